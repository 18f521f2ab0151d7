package auth

import (
	"context"
	"time"

	"admissions/internal/core/id"
)

// StaffRepository defines staff storage operations.
type StaffRepository interface {
	// GetByEmail retrieves staff by college email or returns a not-found AppError.
	GetByEmail(ctx context.Context, email string) (*Staff, error)

	// SaveOTP stores a fresh OTP hash and resets the attempt counter.
	SaveOTP(ctx context.Context, staffID id.ID, hash string, expiresAt time.Time) error

	// RecordFailedOTP increments the attempt counter and returns its new value.
	RecordFailedOTP(ctx context.Context, staffID id.ID) (int, error)

	// ClearOTP removes the OTP after use.
	ClearOTP(ctx context.Context, staffID id.ID) error

	// Upsert inserts or updates staff by staff id.
	Upsert(ctx context.Context, s *Staff) error
}
