// Package allocatortest checks Allocator implementations against a live store.
package allocatortest

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admissions/internal/core/sequence"
)

// AssertConcurrentUniqueness runs workers goroutines that interleave Next and
// NextBatch calls on name and fails t if any number is issued twice, a batch
// is not contiguous, or a worker sees a non-increasing value.
func AssertConcurrentUniqueness(t *testing.T, alloc sequence.Allocator, name string, workers, rounds int) {
	t.Helper()
	ctx := context.Background()

	var (
		mu   sync.Mutex
		seen = make(map[int64]int)
		wg   sync.WaitGroup
	)

	total := 0
	for w := 0; w < workers; w++ {
		batchSize := w%4 + 1
		total += rounds * (1 + batchSize)

		wg.Add(1)
		go func(batchSize int) {
			defer wg.Done()
			var last int64
			issued := make([]int64, 0, rounds*(1+batchSize))

			for i := 0; i < rounds; i++ {
				n, err := alloc.Next(ctx, name)
				if !assert.NoError(t, err) {
					return
				}
				assert.Greater(t, n, last)
				last = n
				issued = append(issued, n)

				batch, err := alloc.NextBatch(ctx, name, batchSize)
				if !assert.NoError(t, err) || !assert.Len(t, batch, batchSize) {
					return
				}
				for j := 1; j < len(batch); j++ {
					assert.Equal(t, batch[j-1]+1, batch[j])
				}
				assert.Greater(t, batch[0], last)
				last = batch[len(batch)-1]
				issued = append(issued, batch...)
			}

			mu.Lock()
			defer mu.Unlock()
			for _, n := range issued {
				seen[n]++
			}
		}(batchSize)
	}
	wg.Wait()

	require.Len(t, seen, total)
	for n, c := range seen {
		if c != 1 {
			t.Fatalf("number %d issued %d times", n, c)
		}
	}
}
