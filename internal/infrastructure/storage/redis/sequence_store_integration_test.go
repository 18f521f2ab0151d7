//go:build integration

package redis_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admissions/internal/config"
	coresequence "admissions/internal/core/sequence"
	"admissions/internal/infrastructure/sequence"
	"admissions/internal/infrastructure/storage/redis"
	"admissions/internal/testutil/allocatortest"
	"admissions/internal/testutil/containers"
)

func TestSequenceStore_Redis(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	rc := containers.NewRedisContainer(t)
	store := redis.NewSequenceStore(rc.Client)
	svc := sequence.New(store, coresequence.DefaultConfig())
	ctx := context.Background()

	t.Run("first value is start plus one", func(t *testing.T) {
		n, err := svc.Next(ctx, coresequence.RegistrationNumber)
		require.NoError(t, err)
		assert.Equal(t, coresequence.DefaultRegistrationStart+1, n)

		v, ok, err := store.Current(ctx, coresequence.RegistrationNumber)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, n, v)
	})

	t.Run("unknown counter has no value", func(t *testing.T) {
		_, ok, err := store.Current(ctx, "never_used")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("batch is contiguous", func(t *testing.T) {
		batch, err := svc.NextBatch(ctx, coresequence.ApplicationNumber, 4)
		require.NoError(t, err)
		assert.Equal(t, []int64{260001, 260002, 260003, 260004}, batch)
	})

	t.Run("concurrent allocations are unique", func(t *testing.T) {
		allocatortest.AssertConcurrentUniqueness(t, svc, "concurrent", 30, 10)
	})

	t.Run("client built from config", func(t *testing.T) {
		client, err := redis.New(ctx, config.RedisConfig{URL: rc.URL, PoolSize: 4})
		require.NoError(t, err)
		defer client.Close()
		assert.NoError(t, client.Health(ctx))
	})
}
