package sequence

import (
	"context"
	"sync"
)

// MockAllocator is a test implementation of Allocator.
// Without overrides it counts up from Start per sequence name.
type MockAllocator struct {
	NextFunc      func(ctx context.Context, name string) (int64, error)
	NextBatchFunc func(ctx context.Context, name string, count int) ([]int64, error)

	Start int64

	mu        sync.Mutex
	values    map[string]int64
	nextCalls int
}

// Next implements Allocator.
func (m *MockAllocator) Next(ctx context.Context, name string) (int64, error) {
	m.mu.Lock()
	m.nextCalls++
	m.mu.Unlock()

	if m.NextFunc != nil {
		return m.NextFunc(ctx, name)
	}
	return m.bump(name, 1), nil
}

// NextBatch implements Allocator.
func (m *MockAllocator) NextBatch(ctx context.Context, name string, count int) ([]int64, error) {
	if m.NextBatchFunc != nil {
		return m.NextBatchFunc(ctx, name, count)
	}
	if count < 0 {
		return nil, ErrInvalidCount
	}
	if count == 0 {
		return []int64{}, nil
	}
	return Range(m.bump(name, int64(count)), count), nil
}

// NextCalls reports how many times Next was invoked.
func (m *MockAllocator) NextCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nextCalls
}

func (m *MockAllocator) bump(name string, delta int64) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = make(map[string]int64)
	}
	v, ok := m.values[name]
	if !ok {
		v = m.Start
	}
	v += delta
	m.values[name] = v
	return v
}

var _ Allocator = (*MockAllocator)(nil)
