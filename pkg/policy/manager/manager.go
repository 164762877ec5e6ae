// Package manager coordinates loading policies from a source into an
// engine, with optional hot-reload on file changes and scheduled
// resyncs.
package manager

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"regolith-hq/regolith/pkg/policy/engine"
	"regolith-hq/regolith/pkg/policy/source"
	"regolith-hq/regolith/pkg/telemetry/metrics"
)

// Config contains configuration for the policy manager.
type Config struct {
	// Path is the policy file or directory (used for watching).
	Path string

	// Watch enables hot-reload on file changes.
	Watch bool

	// DebounceInterval is the reload debounce window (default 100ms).
	DebounceInterval time.Duration

	// ResyncSchedule is an optional cron expression for periodic
	// resyncs independent of file events (e.g. "0 * * * *" hourly).
	// Empty disables scheduled resync.
	ResyncSchedule string
}

// Manager binds a policy source to an engine. Load replaces the
// engine's policy set from the source; Watch keeps them in sync.
type Manager struct {
	config *Config
	src    source.Source
	engine *engine.Engine
	logger *slog.Logger
	m      *metrics.EngineMetrics

	cron *cron.Cron

	mu            sync.RWMutex
	lastLoadTime  time.Time
	lastLoadError error

	watcher *FileWatcher
	watchMu sync.Mutex
}

// New creates a policy manager.
func New(config *Config, src source.Source, eng *engine.Engine, logger *slog.Logger, m *metrics.EngineMetrics) (*Manager, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if src == nil {
		return nil, fmt.Errorf("source cannot be nil")
	}
	if eng == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		config: config,
		src:    src,
		engine: eng,
		logger: logger.With("component", "policy.manager"),
		m:      m,
	}, nil
}

// Load replaces the engine's policy set with the source's current
// contents.
func (mgr *Manager) Load(ctx context.Context) error {
	policies, err := mgr.src.LoadPolicies(ctx)
	if err == nil {
		err = mgr.engine.ReplacePolicies(policies)
	}

	mgr.mu.Lock()
	mgr.lastLoadTime = time.Now()
	mgr.lastLoadError = err
	mgr.mu.Unlock()

	if err != nil {
		if mgr.m != nil {
			mgr.m.RecordReload("error")
		}
		return fmt.Errorf("policy load failed: %w", err)
	}

	if mgr.m != nil {
		mgr.m.RecordReload("ok")
	}
	mgr.logger.Info("policies loaded", "count", len(policies))
	return nil
}

// Watch blocks, reloading from the source whenever watched files change
// and, when configured, on the resync schedule. It returns when the
// context is cancelled.
func (mgr *Manager) Watch(ctx context.Context) error {
	if mgr.config.ResyncSchedule != "" {
		if err := mgr.startResync(ctx); err != nil {
			return err
		}
		defer mgr.stopResync()
	}

	if !mgr.config.Watch {
		<-ctx.Done()
		return nil
	}

	watcherConfig := DefaultFileWatcherConfig()
	watcherConfig.Path = mgr.config.Path
	if mgr.config.DebounceInterval > 0 {
		watcherConfig.DebounceInterval = mgr.config.DebounceInterval
	}

	watcher, err := NewFileWatcher(watcherConfig, mgr.logger)
	if err != nil {
		return err
	}

	mgr.watchMu.Lock()
	mgr.watcher = watcher
	mgr.watchMu.Unlock()

	return watcher.Watch(ctx, func() error {
		return mgr.Load(ctx)
	})
}

// LastLoad reports the time and outcome of the most recent Load.
func (mgr *Manager) LastLoad() (time.Time, error) {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()

	return mgr.lastLoadTime, mgr.lastLoadError
}

// startResync schedules periodic reloads with the configured cron
// expression.
func (mgr *Manager) startResync(ctx context.Context) error {
	if _, err := cron.ParseStandard(mgr.config.ResyncSchedule); err != nil {
		return fmt.Errorf("invalid resync schedule %q: %w", mgr.config.ResyncSchedule, err)
	}

	mgr.cron = cron.New()
	_, err := mgr.cron.AddFunc(mgr.config.ResyncSchedule, func() {
		if err := mgr.Load(ctx); err != nil {
			mgr.logger.Error("scheduled resync failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule resync: %w", err)
	}

	mgr.cron.Start()
	mgr.logger.Info("scheduled resync started", "schedule", mgr.config.ResyncSchedule)
	return nil
}

// stopResync stops the resync scheduler.
func (mgr *Manager) stopResync() {
	if mgr.cron != nil {
		mgr.cron.Stop()
	}
}
