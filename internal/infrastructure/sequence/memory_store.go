package sequence

import (
	"context"
	"sync"

	coresequence "admissions/internal/core/sequence"
)

// MemoryStore is a process-local counter Store for tests and single-process
// development runs. The mutex stands in for the atomic update of a real store;
// it must not back more than one server instance.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]int64
	calls    int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counters: make(map[string]int64)}
}

// Increment implements core/sequence.Store.
func (m *MemoryStore) Increment(ctx context.Context, name string, delta, start int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	v, ok := m.counters[name]
	if !ok {
		v = start
	}
	v += delta
	m.counters[name] = v
	return v, nil
}

// Value returns the current counter value and whether it exists.
func (m *MemoryStore) Value(name string) (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.counters[name]
	return v, ok
}

// Calls reports how many increments reached the store.
func (m *MemoryStore) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

var _ coresequence.Store = (*MemoryStore)(nil)
