// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-ranking-progression/internal/config"
	"github.com/AccelByte/extend-ranking-progression/internal/server"
	"github.com/AccelByte/extend-ranking-progression/pkg/badge"
	"github.com/AccelByte/extend-ranking-progression/pkg/leaderboard"
	"github.com/AccelByte/extend-ranking-progression/pkg/progression"
	"github.com/AccelByte/extend-ranking-progression/pkg/ranking"
	"github.com/AccelByte/extend-ranking-progression/pkg/registry"
	"github.com/AccelByte/extend-ranking-progression/pkg/stats"
)

// App holds all application dependencies and manages the application lifecycle.
type App struct {
	cfg               *config.Config
	httpServer        *server.HTTPServer
	metricsServer     *server.MetricsServer
	redisClient       *redis.Client
	shutdownTelemetry func(context.Context) error
}

// New creates and initializes a new application instance.
//
// Components are initialized in dependency order: Redis, the tier table,
// the engine components over the store, then the servers and telemetry.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logrus.Info("initializing application...")

	app := &App{cfg: cfg}

	if err := app.initRedis(ctx); err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}

	tiers, err := loadTierTable(cfg.TiersPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load tier table: %w", err)
	}

	store := progression.NewRedisStore(app.redisClient, progression.RedisStoreConfig{})
	aggregator := stats.NewAggregator(store, tiers, stats.AggregatorConfig{
		MaxRetries:    cfg.CASMaxRetries,
		RetryInterval: time.Duration(cfg.CASRetryDelayMs) * time.Millisecond,
	})

	service := ranking.NewService(
		store,
		aggregator,
		leaderboard.NewIndex(store),
		registry.New(store),
		ranking.ServiceConfig{
			CategoryViewCap: cfg.CategoryBoardSize,
			GlobalViewCap:   cfg.GlobalBoardSize,
		},
	)

	app.httpServer = server.NewHTTPServer(cfg.HTTPPort, service)
	if err := app.httpServer.Setup(); err != nil {
		return nil, fmt.Errorf("failed to setup API server: %w", err)
	}

	app.metricsServer = server.NewMetricsServer(cfg.MetricsPort, "/metrics")
	if err := app.metricsServer.Setup(); err != nil {
		return nil, fmt.Errorf("failed to setup metrics server: %w", err)
	}

	if cfg.OtelEnabled {
		shutdownTelemetry, err := server.SetupTelemetry(ctx, cfg.OtelServiceName, cfg.Environment, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to setup telemetry: %w", err)
		}
		app.shutdownTelemetry = shutdownTelemetry
	}

	logrus.Info("application initialized successfully")

	return app, nil
}

// initRedis initializes the Redis client and verifies connectivity with a
// bounded retry, so a racing container start does not kill the process.
func (a *App) initRedis(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:         a.cfg.RedisAddr(),
		Password:     a.cfg.RedisPassword,
		DB:           0, // use default DB
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Duration(a.cfg.RedisRetryDelayMs) * time.Millisecond
	maxRetries := backoff.WithMaxRetries(b, uint64(a.cfg.RedisMaxRetries))

	err := backoff.Retry(
		func() error {
			_, err := client.Ping(ctx).Result()
			if err != nil {
				logrus.Warnf("Redis connection failed: %v, retrying...", err)
				return err
			}
			return nil
		},
		maxRetries,
	)

	if err != nil {
		return err
	}

	a.redisClient = client
	logrus.Info("Redis client initialized")
	return nil
}

// loadTierTable reads the configured tier table, falling back to the
// built-in defaults when no file is present.
func loadTierTable(path string) (*badge.Table, error) {
	if path == "" {
		logrus.Info("no tier table configured, using built-in defaults")
		return badge.DefaultTable(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logrus.Warnf("tier table %s not found, using built-in defaults", path)
		return badge.DefaultTable(), nil
	}

	table, err := badge.LoadTable(path)
	if err != nil {
		return nil, err
	}
	logrus.Infof("loaded tier table from %s", path)
	return table, nil
}
