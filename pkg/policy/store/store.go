// Package store holds the last-registered raw source text per policy
// name. It owns no parsing logic; it is the source-of-truth input for
// rule inventory extraction.
package store

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"sync"
	"time"
)

// SourceStore is a thread-safe mapping from policy name to raw source
// text. A later Put under the same name replaces the text wholesale;
// there are no partial updates.
type SourceStore struct {
	mu       sync.RWMutex
	sources  map[string]string
	version  string
	loadTime time.Time
}

// NewSourceStore creates a new empty source store.
func NewSourceStore() *SourceStore {
	return &SourceStore{
		sources:  make(map[string]string),
		loadTime: time.Now(),
	}
}

// Put inserts or overwrites the source text for name. It performs no
// validation of the source and always succeeds.
func (s *SourceStore) Put(name, source string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sources[name] = source
	s.loadTime = time.Now()
	s.updateVersion()
}

// Get retrieves the stored source text for name.
func (s *SourceStore) Get(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	source, ok := s.sources[name]
	return source, ok
}

// Snapshot returns a copy of the full name-to-source mapping. The copy
// is owned by the caller and is not affected by later writes.
func (s *SourceStore) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make(map[string]string, len(s.sources))
	for name, source := range s.sources {
		snapshot[name] = source
	}
	return snapshot
}

// Names returns a sorted list of all stored policy names.
func (s *SourceStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.sources))
	for name := range s.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of stored policies.
func (s *SourceStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sources)
}

// Clear removes all stored policies.
func (s *SourceStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sources = make(map[string]string)
	s.loadTime = time.Now()
	s.updateVersion()
}

// Replace atomically swaps the entire stored policy set.
func (s *SourceStore) Replace(sources map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]string, len(sources))
	for name, source := range sources {
		next[name] = source
	}

	s.sources = next
	s.loadTime = time.Now()
	s.updateVersion()
}

// Version returns the current content version of the store. It changes
// whenever a policy is added, replaced, or removed.
func (s *SourceStore) Version() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.version
}

// LoadTime returns when the store was last modified.
func (s *SourceStore) LoadTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.loadTime
}

// updateVersion recomputes the content hash. Callers hold the write lock.
func (s *SourceStore) updateVersion() {
	h := sha256.New()

	names := make([]string, 0, len(s.sources))
	for name := range s.sources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		h.Write([]byte(name))
		h.Write([]byte{0})
		h.Write([]byte(s.sources[name]))
		h.Write([]byte{0})
	}

	s.version = fmt.Sprintf("%x", h.Sum(nil))[:16]
}
