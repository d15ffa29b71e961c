// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package config

// Config holds all application configuration loaded from environment variables.
// This struct uses github.com/caarlos0/env for automatic environment variable parsing.
type Config struct {
	// ============================================================
	// Server configuration
	// ============================================================
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8000"`
	MetricsPort int    `env:"METRICS_PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"RankingProgression"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// ============================================================
	// Redis configuration
	// ============================================================
	RedisHost         string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort         string `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword     string `env:"REDIS_PASSWORD"`
	RedisMaxRetries   int    `env:"REDIS_MAX_RETRIES" envDefault:"5"`
	RedisRetryDelayMs int    `env:"REDIS_RETRY_DELAY_MS" envDefault:"1000"`

	// ============================================================
	// Engine configuration
	// ============================================================
	// TiersPath points at the badge tier table. An empty value or a
	// missing file falls back to the built-in defaults.
	TiersPath         string `env:"TIERS_PATH" envDefault:"config/tiers.yaml"`
	CASMaxRetries     int    `env:"CAS_MAX_RETRIES" envDefault:"5"`
	CASRetryDelayMs   int    `env:"CAS_RETRY_DELAY_MS" envDefault:"20"`
	CategoryBoardSize int    `env:"CATEGORY_BOARD_SIZE" envDefault:"50"`
	GlobalBoardSize   int    `env:"GLOBAL_BOARD_SIZE" envDefault:"100"`

	// ============================================================
	// Telemetry configuration
	// ============================================================
	OtelEnabled     bool   `env:"OTEL_ENABLED" envDefault:"true"`
	OtelServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"ranking-progression"`
	ZipkinEndpoint  string `env:"ZIPKIN_ENDPOINT" envDefault:"http://localhost:9411/api/v2/spans"`
}

// RedisAddr joins host and port into the address go-redis expects.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}
