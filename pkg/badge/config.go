package badge

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk shape of a tier table override.
type fileConfig struct {
	Tiers []Threshold `yaml:"tiers"`
}

// LoadTable reads a tier table from a YAML file.
// Supports environment variable expansion in the form ${VAR_NAME} or
// ${VAR_NAME:default}, so threshold tuning can come from the environment.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tier table %s: %w", path, err)
	}

	expanded := expandEnvVars(string(data))

	var cfg fileConfig
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse tier table YAML: %w", err)
	}

	table, err := NewTable(cfg.Tiers)
	if err != nil {
		return nil, fmt.Errorf("invalid tier table %s: %w", path, err)
	}

	return table, nil
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}.
func expandEnvVars(s string) string {
	return os.Expand(s, func(key string) string {
		parts := strings.SplitN(key, ":", 2)
		varName := parts[0]
		defaultValue := ""
		if len(parts) == 2 {
			defaultValue = parts[1]
		}

		value := os.Getenv(varName)
		if value == "" {
			return defaultValue
		}
		return value
	})
}
