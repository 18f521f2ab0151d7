// Package tx defines the transaction contract used by domain services.
// The Postgres implementation lives in infrastructure/storage/postgres.
package tx

import (
	"context"
)

// Manager runs a function inside a database transaction.
// fn returning an error rolls the transaction back, otherwise it commits.
// Nested calls join the transaction already carried by ctx.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
