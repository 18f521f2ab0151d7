// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// Roles carried in tokens.
const (
	RoleCandidate = "candidate"
	RoleStaff     = "staff"
)

// Principal is the authenticated caller of a request.
// Candidates carry their registration number, staff carry their department.
type Principal struct {
	Subject            string // candidate id or staff id
	Role               string
	RegistrationNumber int64
	PaymentStatus      string
	StaffID            string
	DepartmentCode     string
	Email              string
}

// IsStaff reports whether the principal authenticated as staff.
func (p *Principal) IsStaff() bool {
	return p != nil && p.Role == RoleStaff
}

type principalKey struct{}

// WithPrincipal adds Principal to context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// GetPrincipal returns Principal from context.
func GetPrincipal(ctx context.Context) *Principal {
	if v, ok := ctx.Value(principalKey{}).(*Principal); ok {
		return v
	}
	return nil
}

// GetSubject returns the principal subject or empty string.
func GetSubject(ctx context.Context) string {
	if p := GetPrincipal(ctx); p != nil {
		return p.Subject
	}
	return ""
}

// HasRole checks if the principal has the given role.
func HasRole(ctx context.Context, role string) bool {
	p := GetPrincipal(ctx)
	return p != nil && p.Role == role
}
