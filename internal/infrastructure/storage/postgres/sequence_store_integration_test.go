//go:build integration

package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coresequence "admissions/internal/core/sequence"
	"admissions/internal/infrastructure/sequence"
	"admissions/internal/infrastructure/storage/postgres"
	"admissions/internal/testutil/allocatortest"
	"admissions/internal/testutil/containers"
)

func TestSequenceStore_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	pg := containers.NewPostgresContainer(t)
	store := postgres.NewSequenceStore(pg.TxManager)
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

	t.Run("batch follows single", func(t *testing.T) {
		n, err := svc.Next(ctx, coresequence.ApplicationNumber)
		require.NoError(t, err)

		batch, err := svc.NextBatch(ctx, coresequence.ApplicationNumber, 3)
		require.NoError(t, err)
		assert.Equal(t, []int64{n + 1, n + 2, n + 3}, batch)
	})

	t.Run("rolled back transaction issues nothing", func(t *testing.T) {
		before, _, err := store.Current(ctx, coresequence.ApplicationNumber)
		require.NoError(t, err)

		_ = pg.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
			_, err := svc.Next(ctx, coresequence.ApplicationNumber)
			require.NoError(t, err)
			return assert.AnError
		})

		after, _, err := store.Current(ctx, coresequence.ApplicationNumber)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("set overrides counter", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "reset_me", 500))
		n, err := svc.Next(ctx, "reset_me")
		require.NoError(t, err)
		assert.Equal(t, int64(501), n)
	})

	t.Run("concurrent allocations are unique", func(t *testing.T) {
		allocatortest.AssertConcurrentUniqueness(t, svc, "concurrent", 30, 10)
	})

	t.Run("closed pool is store unavailable", func(t *testing.T) {
		pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(pg.DSN))
		require.NoError(t, err)
		closed := sequence.New(postgres.NewSequenceStore(postgres.NewTxManager(pool)), coresequence.DefaultConfig())
		pool.Close()

		_, err = closed.Next(ctx, coresequence.RegistrationNumber)
		assert.ErrorIs(t, err, coresequence.ErrStoreUnavailable)
	})
}
