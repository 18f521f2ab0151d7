package candidate

import (
	"context"
)

// Repository defines the interface for Candidate persistence.
type Repository interface {
	Inserter

	// ExistsByMobile reports whether a candidate registered with mobile.
	ExistsByMobile(ctx context.Context, mobile string) (bool, error)

	// FindByMobile returns the candidate registered with mobile or a not-found AppError.
	FindByMobile(ctx context.Context, mobile string) (*Candidate, error)

	// FindByRegistrationNumber returns the candidate with its applications
	// or a not-found AppError.
	FindByRegistrationNumber(ctx context.Context, number int64) (*Candidate, error)

	// ListByProgram returns candidates that applied to programCode. Each
	// candidate carries only the application for that programme.
	ListByProgram(ctx context.Context, programCode string) ([]*Candidate, error)
}
