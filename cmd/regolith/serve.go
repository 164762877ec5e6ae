package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"regolith-hq/regolith/pkg/config"
	"regolith-hq/regolith/pkg/decisionlog"
	"regolith-hq/regolith/pkg/policy/engine"
	"regolith-hq/regolith/pkg/policy/manager"
	"regolith-hq/regolith/pkg/policy/source"
	"regolith-hq/regolith/pkg/telemetry/logging"
	"regolith-hq/regolith/pkg/telemetry/metrics"
)

var serveFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Regolith policy server",
	Long: `Start the policy server with the specified configuration.

The server loads policies from the configured source, keeps them in
sync when watch mode is enabled, records query decisions, and exposes
metrics, health, and rule inventory endpoints over HTTP.

Examples:
  # Start with default config
  regolith serve

  # Start with custom config
  regolith serve --config /etc/regolith/config.yaml

  # Override listen address
  regolith serve --listen 0.0.0.0:9090

  # Validate config without starting
  regolith serve --dry-run`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().StringVar(&serveFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "validate config without starting")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return err
	}

	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}
	if serveFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = serveFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.Setup(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
	}, os.Stderr)
	if err != nil {
		return err
	}

	if serveFlags.dryRun {
		fmt.Println("configuration valid")
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(&metrics.Config{
			Namespace: cfg.Telemetry.Metrics.Namespace,
			Subsystem: "engine",
		})
	}

	engineOpts := []engine.Option{engine.WithLogger(logger)}
	if collector != nil {
		engineOpts = append(engineOpts, engine.WithMetrics(collector.Engine))
	}

	var recorder *decisionlog.Recorder
	if cfg.DecisionLog.Enabled {
		storage, err := newDecisionStorage(cfg)
		if err != nil {
			return err
		}
		defer storage.Close()

		recorder = decisionlog.NewRecorder(storage, &decisionlog.RecorderConfig{
			Enabled:      true,
			AsyncBuffer:  cfg.DecisionLog.Recorder.AsyncBuffer,
			WriteTimeout: cfg.DecisionLog.Recorder.WriteTimeout,
		})
		defer recorder.Close()
		engineOpts = append(engineOpts, engine.WithDecisionSink(recorder))

		pruner := decisionlog.NewPruner(storage, &decisionlog.RetentionConfig{
			Retention:     cfg.DecisionLog.Retention.Retention,
			PruneSchedule: cfg.DecisionLog.Retention.PruneSchedule,
		})
		scheduler := decisionlog.NewScheduler(pruner)
		if err := scheduler.Start(ctx); err != nil {
			return err
		}
		defer scheduler.Stop()
	}

	eng := engine.New(engineOpts...)
	eng.EnableCoverage(cfg.Policy.Coverage)

	src := source.NewFileSource(cfg.Policy.Path, &source.FileSourceConfig{
		Extensions:  cfg.Policy.Extensions,
		MaxFileSize: cfg.Policy.MaxFileSize,
		SkipHidden:  true,
	})

	var engineMetrics *metrics.EngineMetrics
	if collector != nil {
		engineMetrics = collector.Engine
	}

	mgr, err := manager.New(&manager.Config{
		Path:             cfg.Policy.Path,
		Watch:            cfg.Policy.Watch,
		DebounceInterval: cfg.Policy.DebounceInterval,
		ResyncSchedule:   cfg.Policy.ResyncSchedule,
	}, src, eng, logger, engineMetrics)
	if err != nil {
		return err
	}

	if err := mgr.Load(ctx); err != nil {
		return err
	}

	server := &http.Server{
		Addr:    cfg.Server.ListenAddress,
		Handler: newServeMux(eng, mgr, collector),
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("admin server listening", "address", cfg.Server.ListenAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		errCh <- mgr.Watch(ctx)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// newDecisionStorage creates the configured decision log backend.
func newDecisionStorage(cfg *config.Config) (decisionlog.Storage, error) {
	switch cfg.DecisionLog.Backend {
	case "memory":
		return decisionlog.NewMemoryStorage(), nil
	case "sqlite":
		return decisionlog.NewSQLiteStorage(&decisionlog.SQLiteConfig{
			Path:        cfg.DecisionLog.SQLite.Path,
			BusyTimeout: cfg.DecisionLog.SQLite.BusyTimeout,
			WALMode:     cfg.DecisionLog.SQLite.WALMode,
		})
	default:
		return nil, fmt.Errorf("unknown decision log backend %q", cfg.DecisionLog.Backend)
	}
}

// newServeMux builds the admin HTTP routes.
func newServeMux(eng *engine.Engine, mgr *manager.Manager, collector *metrics.Collector) *http.ServeMux {
	mux := http.NewServeMux()

	if collector != nil {
		mux.Handle("/metrics", collector.Handler())
	}

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		loadTime, loadErr := mgr.LastLoad()
		status := http.StatusOK
		if loadErr != nil {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		resp := map[string]any{
			"status":         http.StatusText(status),
			"last_load_time": loadTime,
			"policy_version": eng.Sources().Version(),
		}
		if loadErr != nil {
			resp["last_load_error"] = loadErr.Error()
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			slog.Error("failed to write health response", "error", err)
		}
	})

	mux.HandleFunc("/v1/rules", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(eng.Rules()); err != nil {
			slog.Error("failed to write rules response", "error", err)
		}
	})

	mux.HandleFunc("/v1/packages", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(eng.Packages()); err != nil {
			slog.Error("failed to write packages response", "error", err)
		}
	})

	return mux
}
