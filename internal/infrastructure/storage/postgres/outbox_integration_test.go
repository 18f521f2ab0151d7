//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admissions/internal/core/id"
	"admissions/internal/infrastructure/storage/postgres"
	"admissions/internal/testutil/containers"
)

type outboxCounts struct {
	mu      sync.Mutex
	results map[string]int
}

func (c *outboxCounts) ObserveOutbox(_, result string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.results == nil {
		c.results = map[string]int{}
	}
	c.results[result]++
}

func outboxStatus(t *testing.T, pg *containers.PostgresContainer, aggregateID id.ID) (string, int) {
	t.Helper()
	var status string
	var attempts int
	err := pg.TxManager.GetQuerier(context.Background()).QueryRow(context.Background(),
		`SELECT status, attempts FROM sys_outbox WHERE aggregate_id = $1`, aggregateID).Scan(&status, &attempts)
	require.NoError(t, err)
	return status, attempts
}

func TestOutbox_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	pg := containers.NewPostgresContainer(t)
	publisher := postgres.NewOutboxPublisher(pg.TxManager)
	ctx := context.Background()

	t.Run("rolled back publish leaves nothing", func(t *testing.T) {
		aggregateID := id.New()
		rollback := errors.New("rollback")

		err := pg.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
			require.NoError(t, publisher.Publish(ctx, "candidate", aggregateID, "candidate.registered", map[string]int{"n": 1}))
			return rollback
		})
		require.ErrorIs(t, err, rollback)

		var count int
		require.NoError(t, pg.TxManager.GetQuerier(ctx).QueryRow(ctx,
			`SELECT count(*) FROM sys_outbox WHERE aggregate_id = $1`, aggregateID).Scan(&count))
		assert.Zero(t, count)
	})

	t.Run("relay publishes and purges", func(t *testing.T) {
		aggregateID := id.New()
		require.NoError(t, publisher.Publish(ctx, "candidate", aggregateID, "candidate.registered",
			map[string]int64{"registration_number": 202600001}))

		var payloads []string
		counts := &outboxCounts{}
		relay := postgres.NewOutboxRelay(pg.TxManager,
			postgres.OutboxHandlerFunc(func(_ context.Context, msg *postgres.OutboxMessage) error {
				payloads = append(payloads, string(msg.Payload))
				return nil
			}),
			counts, postgres.DefaultOutboxRelayConfig())

		n, err := relay.ProcessBatch(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		require.Len(t, payloads, 1)
		assert.JSONEq(t, `{"registration_number": 202600001}`, payloads[0])

		status, attempts := outboxStatus(t, pg, aggregateID)
		assert.Equal(t, string(postgres.OutboxStatusPublished), status)
		assert.Equal(t, 1, attempts)
		assert.Equal(t, 1, counts.results["published"])

		n, err = relay.ProcessBatch(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)

		purged, err := relay.PurgePublished(ctx, -time.Minute)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, purged, int64(1))
	})

	t.Run("failing handler retries then fails", func(t *testing.T) {
		aggregateID := id.New()
		require.NoError(t, publisher.Publish(ctx, "candidate", aggregateID, "candidate.registered", struct{}{}))

		relay := postgres.NewOutboxRelay(pg.TxManager,
			postgres.OutboxHandlerFunc(func(context.Context, *postgres.OutboxMessage) error {
				return errors.New("smtp timeout")
			}),
			nil,
			postgres.OutboxRelayConfig{BatchSize: 10, MaxAttempts: 2, RetryBackoff: 0})

		n, err := relay.ProcessBatch(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)

		status, attempts := outboxStatus(t, pg, aggregateID)
		assert.Equal(t, string(postgres.OutboxStatusPending), status)
		assert.Equal(t, 1, attempts)

		_, err = relay.ProcessBatch(ctx)
		require.NoError(t, err)

		status, attempts = outboxStatus(t, pg, aggregateID)
		assert.Equal(t, string(postgres.OutboxStatusFailed), status)
		assert.Equal(t, 2, attempts)
	})
}
