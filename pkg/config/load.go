package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified
// path. It applies default values, validates the configuration, and
// returns any errors.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies environment variable overrides. Environment variables follow
// the naming convention REGOLITH_SECTION_FIELD (e.g.,
// REGOLITH_POLICY_PATH) and always take precedence over file values.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies REGOLITH_SECTION_FIELD environment
// variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	// Policy overrides
	if val := os.Getenv("REGOLITH_POLICY_PATH"); val != "" {
		cfg.Policy.Path = val
	}
	if val := os.Getenv("REGOLITH_POLICY_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Policy.Watch = b
		}
	}
	if val := os.Getenv("REGOLITH_POLICY_DEBOUNCE_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Policy.DebounceInterval = d
		}
	}
	if val := os.Getenv("REGOLITH_POLICY_RESYNC_SCHEDULE"); val != "" {
		cfg.Policy.ResyncSchedule = val
	}
	if val := os.Getenv("REGOLITH_POLICY_COVERAGE"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Policy.Coverage = b
		}
	}

	// Decision log overrides
	if val := os.Getenv("REGOLITH_DECISION_LOG_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.DecisionLog.Enabled = b
		}
	}
	if val := os.Getenv("REGOLITH_DECISION_LOG_BACKEND"); val != "" {
		cfg.DecisionLog.Backend = val
	}
	if val := os.Getenv("REGOLITH_DECISION_LOG_SQLITE_PATH"); val != "" {
		cfg.DecisionLog.SQLite.Path = val
	}
	if val := os.Getenv("REGOLITH_DECISION_LOG_RETENTION"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.DecisionLog.Retention.Retention = d
		}
	}

	// Server overrides
	if val := os.Getenv("REGOLITH_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}

	// Telemetry overrides
	if val := os.Getenv("REGOLITH_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("REGOLITH_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("REGOLITH_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
}
