// Package id provides UUIDv7 identifiers for candidates, staff and audit rows.
// UUIDv7 is time-ordered, so primary key inserts stay append-friendly in B-tree indexes.
package id

import (
	"github.com/google/uuid"
)

// ID is the identifier type used by every persisted entity.
type ID = uuid.UUID

// New generates a new UUIDv7, falling back to V4 if the clock read fails.
func New() ID {
	v, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return v
}

// Parse converts string to ID with validation.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// IsNil checks if ID is zero-value.
func IsNil(v ID) bool {
	return v == uuid.Nil
}
