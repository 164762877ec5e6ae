package config

import "time"

// Default values for configuration fields.
const (
	// Policy defaults
	DefaultPolicyPath             = "./policies"
	DefaultPolicyWatch            = false
	DefaultPolicyDebounceInterval = 100 * time.Millisecond
	DefaultPolicyExtension        = ".rego"
	DefaultPolicyMaxFileSize      = int64(10 * 1024 * 1024)

	// Decision log defaults
	DefaultDecisionLogEnabled     = true
	DefaultDecisionLogBackend     = "sqlite"
	DefaultSQLitePath             = "data/decisions.db"
	DefaultSQLiteBusyTimeout      = 5 * time.Second
	DefaultSQLiteWALMode          = true
	DefaultRecorderAsyncBuffer    = 1000
	DefaultRecorderWriteTimeout   = 5 * time.Second
	DefaultRetentionPeriod        = 30 * 24 * time.Hour
	DefaultRetentionPruneSchedule = "0 3 * * *"

	// Server defaults
	DefaultListenAddress   = "127.0.0.1:9090"
	DefaultShutdownTimeout = 30 * time.Second

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "text"
	DefaultMetricsEnabled   = true
	DefaultMetricsNamespace = "regolith"
)

// DefaultConfig returns a configuration populated with all defaults.
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	// Booleans that default to true need explicit assignment since
	// ApplyDefaults cannot distinguish "unset" from "false".
	cfg.DecisionLog.Enabled = DefaultDecisionLogEnabled
	cfg.DecisionLog.SQLite.WALMode = DefaultSQLiteWALMode
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults. Boolean
// fields are left as parsed; YAML cannot express "unset" for them.
func ApplyDefaults(cfg *Config) {
	if cfg.Policy.Path == "" {
		cfg.Policy.Path = DefaultPolicyPath
	}
	if cfg.Policy.DebounceInterval == 0 {
		cfg.Policy.DebounceInterval = DefaultPolicyDebounceInterval
	}
	if len(cfg.Policy.Extensions) == 0 {
		cfg.Policy.Extensions = []string{DefaultPolicyExtension}
	}
	if cfg.Policy.MaxFileSize == 0 {
		cfg.Policy.MaxFileSize = DefaultPolicyMaxFileSize
	}

	if cfg.DecisionLog.Backend == "" {
		cfg.DecisionLog.Backend = DefaultDecisionLogBackend
	}
	if cfg.DecisionLog.SQLite.Path == "" {
		cfg.DecisionLog.SQLite.Path = DefaultSQLitePath
	}
	if cfg.DecisionLog.SQLite.BusyTimeout == 0 {
		cfg.DecisionLog.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}
	if cfg.DecisionLog.Recorder.AsyncBuffer == 0 {
		cfg.DecisionLog.Recorder.AsyncBuffer = DefaultRecorderAsyncBuffer
	}
	if cfg.DecisionLog.Recorder.WriteTimeout == 0 {
		cfg.DecisionLog.Recorder.WriteTimeout = DefaultRecorderWriteTimeout
	}
	if cfg.DecisionLog.Retention.Retention == 0 {
		cfg.DecisionLog.Retention.Retention = DefaultRetentionPeriod
	}
	if cfg.DecisionLog.Retention.PruneSchedule == "" {
		cfg.DecisionLog.Retention.PruneSchedule = DefaultRetentionPruneSchedule
	}

	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
}
