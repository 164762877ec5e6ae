package decisionlog

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStorage implements Storage with an in-memory map. Intended for
// tests and short-lived processes.
type MemoryStorage struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records: make(map[string]*Record),
	}
}

// Store persists a record to memory.
func (s *MemoryStorage) Store(ctx context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recordCopy := *record
	s.records[record.ID] = &recordCopy
	return nil
}

// Query returns records matching the filter, newest first.
func (s *MemoryStorage) Query(ctx context.Context, filter *Filter) ([]*Record, error) {
	if filter == nil {
		filter = &Filter{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []*Record
	for _, record := range s.records {
		if matches(record, filter) {
			recordCopy := *record
			results = append(results, &recordCopy)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Time.After(results[j].Time)
	})

	if filter.Limit > 0 && len(results) > filter.Limit {
		results = results[:filter.Limit]
	}
	return results, nil
}

// Count returns the total number of records.
func (s *MemoryStorage) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.records)), nil
}

// DeleteBefore removes records older than cutoff.
func (s *MemoryStorage) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, record := range s.records {
		if record.Time.Before(cutoff) {
			delete(s.records, id)
			deleted++
		}
	}
	return deleted, nil
}

// Close releases nothing for the memory backend.
func (s *MemoryStorage) Close() error {
	return nil
}

func matches(record *Record, filter *Filter) bool {
	if !filter.Since.IsZero() && record.Time.Before(filter.Since) {
		return false
	}
	if !filter.Until.IsZero() && !record.Time.Before(filter.Until) {
		return false
	}
	return true
}
