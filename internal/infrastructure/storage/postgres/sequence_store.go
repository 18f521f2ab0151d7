package postgres

import (
	"context"
	"fmt"

	coresequence "admissions/internal/core/sequence"
)

// SequenceStore keeps counters in the sys_sequences table.
//
// The single INSERT ... ON CONFLICT DO UPDATE ... RETURNING statement is the
// atomic find-increment-return primitive: the row lock taken by the upsert
// orders concurrent increments of one name.
type SequenceStore struct {
	txm *TxManager
}

var _ coresequence.Store = (*SequenceStore)(nil)

// NewSequenceStore creates a store that joins the transaction in ctx, if any.
func NewSequenceStore(txm *TxManager) *SequenceStore {
	return &SequenceStore{txm: txm}
}

// Increment implements core/sequence.Store.
func (s *SequenceStore) Increment(ctx context.Context, name string, delta, start int64) (int64, error) {
	var value int64
	err := s.txm.GetQuerier(ctx).QueryRow(ctx, `
		INSERT INTO sys_sequences (name, value)
		VALUES ($1, $3::bigint + $2::bigint)
		ON CONFLICT (name) DO UPDATE
			SET value = sys_sequences.value + $2::bigint, updated_at = now()
		RETURNING value
	`, name, delta, start).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("increment %s: %w", name, err)
	}
	return value, nil
}

// Set forces the counter to value (seeding and migrations only).
func (s *SequenceStore) Set(ctx context.Context, name string, value int64) error {
	_, err := s.txm.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO sys_sequences (name, value)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET value = $2, updated_at = now()
	`, name, value)
	if err != nil {
		return fmt.Errorf("set %s: %w", name, err)
	}
	return nil
}

// Current returns the last issued value, or ok=false if the counter does not exist yet.
func (s *SequenceStore) Current(ctx context.Context, name string) (value int64, ok bool, err error) {
	rows, err := s.txm.GetQuerier(ctx).Query(ctx, `SELECT value FROM sys_sequences WHERE name = $1`, name)
	if err != nil {
		return 0, false, fmt.Errorf("read %s: %w", name, err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&value); err != nil {
			return 0, false, fmt.Errorf("scan %s: %w", name, err)
		}
		ok = true
	}
	return value, ok, rows.Err()
}
