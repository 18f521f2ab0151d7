//go:build integration

package containers

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"admissions/internal/infrastructure/storage/postgres"
)

// PostgresContainer wraps a migrated testcontainers Postgres instance.
type PostgresContainer struct {
	DSN       string
	Pool      *postgres.Pool
	TxManager *postgres.TxManager
}

// NewPostgresContainer starts Postgres, applies the schema and returns a
// pool. Everything is torn down when t ends.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("admissions"),
		tcpostgres.WithUsername("admissions"),
		tcpostgres.WithPassword("admissions"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	cfg := postgres.DefaultPoolConfig(dsn)
	cfg.MaxConns = 40
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to connect to postgres: %v", err)
	}
	t.Cleanup(pool.Close)

	txm := postgres.NewTxManager(pool)
	if err := postgres.Migrate(ctx, txm); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return &PostgresContainer{DSN: dsn, Pool: pool, TxManager: txm}
}
