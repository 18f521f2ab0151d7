// Package auth provides authentication of candidates and department staff.
package auth

import (
	"context"
	"strings"
	"time"

	"admissions/internal/core/apperror"
	"admissions/internal/core/id"
)

// Staff is a department member allowed to review applications.
type Staff struct {
	ID             id.ID      `db:"id" json:"id"`
	StaffID        string     `db:"staff_id" json:"staff_id"`
	Name           string     `db:"name" json:"name"`
	DepartmentCode string     `db:"department_code" json:"department_code"`
	DepartmentName string     `db:"department_name" json:"department_name"`
	Shift          string     `db:"shift" json:"shift"`
	Stream         string     `db:"stream" json:"stream"`
	CollegeEmail   string     `db:"college_email" json:"college_email"`
	OTPHash        *string    `db:"otp_hash" json:"-"`
	OTPExpiresAt   *time.Time `db:"otp_expires_at" json:"-"`
	OTPAttempts    int        `db:"otp_attempts" json:"-"`
}

// NewStaff creates a new staff member.
func NewStaff(staffID, name, departmentCode, email string) *Staff {
	return &Staff{
		ID:             id.New(),
		StaffID:        staffID,
		Name:           name,
		DepartmentCode: departmentCode,
		CollegeEmail:   strings.ToLower(strings.TrimSpace(email)),
	}
}

// Validate validates staff data.
func (s *Staff) Validate(_ context.Context) error {
	if s.StaffID == "" {
		return apperror.NewValidation("staff id is required").WithDetail("field", "staff_id")
	}
	if s.DepartmentCode == "" {
		return apperror.NewValidation("department code is required").WithDetail("field", "department_code")
	}
	if !emailRegex.MatchString(s.CollegeEmail) {
		return apperror.NewValidation("Invalid email format").WithDetail("field", "college_email")
	}
	return nil
}

// HasPendingOTP reports whether an unexpired OTP is waiting for verification.
func (s *Staff) HasPendingOTP(now time.Time) bool {
	return s.OTPHash != nil && s.OTPExpiresAt != nil && now.Before(*s.OTPExpiresAt)
}
