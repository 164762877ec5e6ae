package decisionlog

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"regolith-hq/regolith/pkg/policy/engine"
)

// RecorderConfig contains configuration for the decision recorder.
type RecorderConfig struct {
	// Enabled enables decision recording.
	Enabled bool

	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 1000
	AsyncBuffer int

	// WriteTimeout is the timeout for writing a record to storage.
	// Default: 5 seconds
	WriteTimeout time.Duration
}

// DefaultRecorderConfig returns the default recorder configuration.
func DefaultRecorderConfig() *RecorderConfig {
	return &RecorderConfig{
		Enabled:      true,
		AsyncBuffer:  1000,
		WriteTimeout: 5 * time.Second,
	}
}

// Recorder implements engine.DecisionSink. Records are written to
// storage asynchronously so evaluation latency is never affected; when
// the buffer is full the record is dropped and counted.
type Recorder struct {
	storage    Storage
	config     *RecorderConfig
	recordChan chan *Record
	done       chan struct{}
	wg         sync.WaitGroup
	logger     *slog.Logger

	mu      sync.Mutex
	dropped int64
}

// NewRecorder creates a decision recorder backed by the given storage.
func NewRecorder(storage Storage, config *RecorderConfig) *Recorder {
	if config == nil {
		config = DefaultRecorderConfig()
	}

	r := &Recorder{
		storage:    storage,
		config:     config,
		recordChan: make(chan *Record, config.AsyncBuffer),
		done:       make(chan struct{}),
		logger:     slog.Default().With("component", "decisionlog.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	return r
}

// RecordDecision implements engine.DecisionSink. It never blocks.
func (r *Recorder) RecordDecision(_ context.Context, d engine.Decision) {
	if !r.config.Enabled {
		return
	}

	record := &Record{
		ID:            uuid.NewString(),
		Time:          time.Now(),
		Query:         d.Query,
		Defined:       d.Defined,
		Duration:      d.Duration,
		PolicyVersion: d.PolicyVersion,
	}

	if d.Err != nil {
		record.Error = d.Err.Error()
	}
	if d.Defined {
		if encoded, err := json.Marshal(d.Value); err == nil {
			record.Value = string(encoded)
		}
	}

	select {
	case r.recordChan <- record:
	default:
		r.mu.Lock()
		r.dropped++
		dropped := r.dropped
		r.mu.Unlock()
		r.logger.Warn("decision record dropped (buffer full)", "dropped_total", dropped)
	}
}

// Dropped returns the number of records dropped due to a full buffer.
func (r *Recorder) Dropped() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.dropped
}

// Close drains pending records and stops the worker.
func (r *Recorder) Close() error {
	close(r.done)
	r.wg.Wait()
	return nil
}

// worker drains the record channel into storage.
func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.recordChan:
			r.write(record)

		case <-r.done:
			// Drain anything still buffered before exiting.
			for {
				select {
				case record := <-r.recordChan:
					r.write(record)
				default:
					return
				}
			}
		}
	}
}

// write persists one record with the configured timeout.
func (r *Recorder) write(record *Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	if err := r.storage.Store(ctx, record); err != nil {
		r.logger.Error("failed to store decision record", "record_id", record.ID, "error", err)
	}
}
