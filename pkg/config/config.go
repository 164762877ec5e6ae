package config

import "time"

// Config is the root configuration structure for Regolith. It contains
// all configuration sections for the policy engine, policy sources,
// the decision log, the admin server, and telemetry.
type Config struct {
	// Policy contains configuration for the policy engine including the
	// policy source location, watch mode, and reload scheduling.
	Policy PolicyConfig `yaml:"policy"`

	// DecisionLog contains configuration for decision recording and
	// storage including backend selection and retention settings.
	DecisionLog DecisionLogConfig `yaml:"decision_log"`

	// Server contains configuration for the admin HTTP server that
	// exposes metrics and health endpoints.
	Server ServerConfig `yaml:"server"`

	// Telemetry contains configuration for observability including
	// logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// PolicyConfig contains configuration for the policy engine and its
// policy source.
type PolicyConfig struct {
	// Path is the policy source path: either a single .rego file or a
	// directory that is walked recursively.
	Path string `yaml:"path"`

	// Watch enables filesystem watching for automatic policy reloads.
	// Default: false
	Watch bool `yaml:"watch"`

	// DebounceInterval is how long to coalesce filesystem events before
	// triggering a reload.
	// Default: 100ms
	DebounceInterval time.Duration `yaml:"debounce_interval"`

	// ResyncSchedule is a cron expression for periodic full reloads
	// independent of filesystem events. Empty disables resync.
	ResyncSchedule string `yaml:"resync_schedule"`

	// Extensions lists the file extensions loaded as policies.
	// Default: [".rego"]
	Extensions []string `yaml:"extensions"`

	// MaxFileSize is the maximum size of a single policy file in bytes.
	// Default: 10485760 (10MB)
	MaxFileSize int64 `yaml:"max_file_size"`

	// Coverage enables evaluation coverage tracking on the engine.
	// Default: false
	Coverage bool `yaml:"coverage"`
}

// DecisionLogConfig contains configuration for decision recording.
type DecisionLogConfig struct {
	// Enabled enables decision recording.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Backend selects the storage backend: "sqlite" or "memory".
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite backend configuration.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Recorder contains recorder configuration.
	Recorder RecorderConfig `yaml:"recorder"`

	// Retention contains retention configuration.
	Retention RetentionConfig `yaml:"retention"`
}

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/decisions.db"
	Path string `yaml:"path"`

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// WALMode enables Write-Ahead Logging for better concurrency.
	// Default: true
	WALMode bool `yaml:"wal_mode"`
}

// RecorderConfig contains configuration for the async decision recorder.
type RecorderConfig struct {
	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 1000
	AsyncBuffer int `yaml:"async_buffer"`

	// WriteTimeout is the timeout for writing a record to storage.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// RetentionConfig contains configuration for decision log retention.
type RetentionConfig struct {
	// Retention is how long decision records are kept. Zero keeps
	// records forever.
	// Default: 720h (30 days)
	Retention time.Duration `yaml:"retention"`

	// PruneSchedule is a cron expression for scheduled pruning.
	// Default: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string `yaml:"prune_schedule"`
}

// ServerConfig contains configuration for the admin HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:9090").
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`

	// ShutdownTimeout is the maximum duration to wait for graceful
	// shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the log output format: "text" or "json".
	// Default: "text"
	Format string `yaml:"format"`

	// AddSource includes source file and line in log records.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and the /metrics endpoint.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Namespace is the Prometheus metric namespace.
	// Default: "regolith"
	Namespace string `yaml:"namespace"`
}
