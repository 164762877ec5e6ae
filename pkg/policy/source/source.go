// Package source provides policy sources: suppliers of named Rego
// policy text for the engine to register.
package source

import "context"

// Source supplies a set of named policies. Implementations must be safe
// for concurrent use.
type Source interface {
	// LoadPolicies returns the current name-to-source mapping.
	LoadPolicies(ctx context.Context) (map[string]string, error)
}

// MemorySource is an in-memory policy source, useful for tests and for
// embedding policies in a binary.
type MemorySource struct {
	policies map[string]string
}

// NewMemorySource creates a source backed by the given mapping.
func NewMemorySource(policies map[string]string) *MemorySource {
	return &MemorySource{policies: policies}
}

// LoadPolicies returns a copy of the stored mapping.
func (s *MemorySource) LoadPolicies(ctx context.Context) (map[string]string, error) {
	policies := make(map[string]string, len(s.policies))
	for name, source := range s.policies {
		policies[name] = source
	}
	return policies, nil
}
