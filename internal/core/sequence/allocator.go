// Package sequence provides domain contracts for monotonic number allocation.
// Implementations live in the infrastructure layer.
package sequence

import (
	"context"
	"errors"
)

// Well-known sequence names.
const (
	RegistrationNumber = "registration_number"
	ApplicationNumber  = "application_number"
)

// ErrStoreUnavailable is returned when the counter store could not execute the
// atomic increment. No number is issued when it is returned.
var ErrStoreUnavailable = errors.New("sequence store unavailable")

var (
	// ErrInvalidCount is returned by NextBatch for a negative count.
	ErrInvalidCount = errors.New("sequence batch count must not be negative")
	// ErrEmptyName is returned when no sequence name is given.
	ErrEmptyName = errors.New("sequence name is required")
)

// Allocator hands out unique, strictly increasing numbers per sequence name.
//
// Uniqueness is guaranteed by the store's atomic increment, never by
// in-process locking, so any number of server instances may share a store.
type Allocator interface {
	// Next returns the next number of the sequence.
	Next(ctx context.Context, name string) (int64, error)

	// NextBatch reserves count consecutive numbers in one atomic step and
	// returns them in ascending order. A zero count returns an empty slice
	// without touching the store.
	NextBatch(ctx context.Context, name string, count int) ([]int64, error)
}

// Store is the durable counter collection behind an Allocator.
type Store interface {
	// Increment adds delta to the counter name and returns the new value.
	// An absent counter is created holding start before delta is applied.
	Increment(ctx context.Context, name string, delta, start int64) (int64, error)
}

// Range expands the inclusive batch ending at last into ascending numbers.
func Range(last int64, count int) []int64 {
	out := make([]int64, count)
	first := last - int64(count) + 1
	for i := range out {
		out[i] = first + int64(i)
	}
	return out
}
