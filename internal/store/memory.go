package store

import (
	"context"
	"sync"
)

// Memory is an existence store backed by a set of names.
type Memory struct {
	mu      sync.RWMutex
	names   map[string]bool
	queries int
}

// NewMemory returns a store containing names.
func NewMemory(names ...string) *Memory {
	m := &Memory{names: make(map[string]bool, len(names))}
	m.Add(names...)
	return m
}

// Add records names as ingested.
func (m *Memory) Add(names ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range names {
		m.names[n] = true
	}
}

// ExistingFilenames returns the subset of names in the set.
func (m *Memory) ExistingFilenames(ctx context.Context, names []string) (map[string]bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries++

	existing := make(map[string]bool)
	for _, n := range names {
		if m.names[n] {
			existing[n] = true
		}
	}
	return existing, nil
}

// Queries returns how many lookups have been made.
func (m *Memory) Queries() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.queries
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }
