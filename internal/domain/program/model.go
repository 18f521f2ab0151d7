// Package program provides the programme catalogue candidates apply to.
package program

import (
	"context"
	"strings"
	"time"

	"admissions/internal/core/apperror"
	"admissions/internal/core/id"
)

// Program is an offered programme of a department.
type Program struct {
	ID                     id.ID     `db:"id" json:"id"`
	ProgramCode            string    `db:"program_code" json:"program_code"`
	ProgramName            string    `db:"program_name" json:"program_name"`
	DepartmentCode         string    `db:"department_code" json:"department_code"`
	DepartmentName         string    `db:"department_name" json:"department_name"`
	Type                   string    `db:"type" json:"type"`
	ProgramType            string    `db:"program_type" json:"program_type"`
	Stream                 string    `db:"stream" json:"stream"`
	Shift                  string    `db:"shift" json:"shift"`
	Special                *string   `db:"special" json:"special,omitempty"`
	EligibilityDescription string    `db:"eligibility_description" json:"eligibility_description"`
	SanctionedStrength     int       `db:"sanctioned_strength" json:"sanctioned_strength"`
	Show                   bool      `db:"show" json:"show"`
	CreatedAt              time.Time `db:"created_at" json:"-"`
}

// NewProgram creates a visible programme.
func NewProgram(code, name, departmentCode string) *Program {
	return &Program{
		ID:             id.New(),
		ProgramCode:    code,
		ProgramName:    name,
		DepartmentCode: departmentCode,
		Show:           true,
	}
}

// Validate checks required fields.
func (p *Program) Validate(_ context.Context) error {
	if strings.TrimSpace(p.ProgramCode) == "" {
		return apperror.NewValidation("program code is required").WithDetail("field", "program_code")
	}
	if strings.TrimSpace(p.ProgramName) == "" {
		return apperror.NewValidation("program name is required").WithDetail("field", "program_name")
	}
	if strings.TrimSpace(p.DepartmentCode) == "" {
		return apperror.NewValidation("department code is required").WithDetail("field", "department_code")
	}
	if p.SanctionedStrength < 0 {
		return apperror.NewValidation("sanctioned strength must not be negative").
			WithDetail("field", "sanctioned_strength")
	}
	return nil
}
