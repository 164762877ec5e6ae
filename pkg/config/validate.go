package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "policy.path").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a
// configuration. All field errors are collected and returned together.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration. It returns nil if the
// configuration is valid.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validatePolicy(&cfg.Policy)...)
	errs = append(errs, validateDecisionLog(&cfg.DecisionLog)...)
	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validatePolicy(cfg *PolicyConfig) []FieldError {
	var errs []FieldError

	if cfg.Path == "" {
		errs = append(errs, FieldError{Field: "policy.path", Message: "must not be empty"})
	}
	if cfg.DebounceInterval < 0 {
		errs = append(errs, FieldError{Field: "policy.debounce_interval", Message: "must not be negative"})
	}
	if cfg.MaxFileSize <= 0 {
		errs = append(errs, FieldError{Field: "policy.max_file_size", Message: "must be positive"})
	}
	if cfg.ResyncSchedule != "" {
		if _, err := cron.ParseStandard(cfg.ResyncSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "policy.resync_schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}
	for _, ext := range cfg.Extensions {
		if !strings.HasPrefix(ext, ".") {
			errs = append(errs, FieldError{
				Field:   "policy.extensions",
				Message: fmt.Sprintf("extension %q must start with a dot", ext),
			})
		}
	}
	return errs
}

func validateDecisionLog(cfg *DecisionLogConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "sqlite", "memory":
	default:
		errs = append(errs, FieldError{
			Field:   "decision_log.backend",
			Message: fmt.Sprintf("must be %q or %q, got %q", "sqlite", "memory", cfg.Backend),
		})
	}
	if cfg.Backend == "sqlite" && cfg.SQLite.Path == "" {
		errs = append(errs, FieldError{Field: "decision_log.sqlite.path", Message: "must not be empty"})
	}
	if cfg.Recorder.AsyncBuffer <= 0 {
		errs = append(errs, FieldError{Field: "decision_log.recorder.async_buffer", Message: "must be positive"})
	}
	if cfg.Recorder.WriteTimeout <= 0 {
		errs = append(errs, FieldError{Field: "decision_log.recorder.write_timeout", Message: "must be positive"})
	}
	if cfg.Retention.Retention < 0 {
		errs = append(errs, FieldError{Field: "decision_log.retention.retention", Message: "must not be negative"})
	}
	if cfg.Retention.PruneSchedule != "" {
		if _, err := cron.ParseStandard(cfg.Retention.PruneSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "decision_log.retention.prune_schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}
	return errs
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: fmt.Sprintf("must be host:port, got %q", cfg.ListenAddress),
		})
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, FieldError{Field: "server.shutdown_timeout", Message: "must be positive"})
	}
	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("must be debug, info, warn or error, got %q", cfg.Logging.Level),
		})
	}
	switch cfg.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("must be %q or %q, got %q", "text", "json", cfg.Logging.Format),
		})
	}
	return errs
}
