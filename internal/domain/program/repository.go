package program

import "context"

// Repository defines the interface for Program persistence.
type Repository interface {
	// ListVisible returns programmes with show=true ordered by name.
	ListVisible(ctx context.Context) ([]*Program, error)

	// FindByCodes returns the programmes among codes that exist.
	FindByCodes(ctx context.Context, codes []string) ([]*Program, error)

	// GetVisible returns the visible programme code of department, or a not-found AppError.
	GetVisible(ctx context.Context, departmentCode, code string) (*Program, error)

	// Upsert inserts or replaces a programme by code.
	Upsert(ctx context.Context, p *Program) error
}
