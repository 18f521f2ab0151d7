package dto

import (
	"strconv"
	"time"

	appctx "admissions/internal/core/context"
	"admissions/internal/domain/auth"
	"admissions/internal/domain/candidate"
)

// --- Candidate ---

// LoginRequest for candidate login.
type LoginRequest struct {
	RegistrationNumber FlexString `json:"registration_number"`
	Mobile             FlexString `json:"mobile"`
}

// RegistrationNumberValue parses the registration number, 0 when absent or malformed.
func (r *LoginRequest) RegistrationNumberValue() int64 {
	n, err := strconv.ParseInt(r.RegistrationNumber.String(), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// CandidateUser is the token subject returned on login.
type CandidateUser struct {
	ID                 string `json:"id"`
	RegistrationNumber int64  `json:"registration_number"`
	Role               string `json:"role"`
	PaymentStatus      string `json:"payment_status"`
}

// LoginResponse for candidate login.
type LoginResponse struct {
	Message   string        `json:"message"`
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	User      CandidateUser `json:"user"`
}

// FromLoginResult creates response from domain login result.
func FromLoginResult(r *candidate.LoginResult) LoginResponse {
	return LoginResponse{
		Message:   "Login successful",
		Token:     r.Token,
		ExpiresAt: r.ExpiresAt,
		User: CandidateUser{
			ID:                 r.Candidate.ID.String(),
			RegistrationNumber: r.Candidate.RegistrationNumber,
			Role:               appctx.RoleCandidate,
			PaymentStatus:      string(r.Candidate.PaymentStatus),
		},
	}
}

// ForgotRegistrationRequest for registration number recovery.
type ForgotRegistrationRequest struct {
	Mobile FlexString `json:"mobile"`
}

// ForgotRegistrationResponse carries the recovered number.
type ForgotRegistrationResponse struct {
	Message            string `json:"message"`
	RegistrationNumber int64  `json:"registration_number"`
}

// --- Department staff ---

// DepartmentLoginRequest starts the OTP flow.
type DepartmentLoginRequest struct {
	CollegeEmail string `json:"college_email"`
}

// VerifyOTPRequest completes the OTP flow.
type VerifyOTPRequest struct {
	CollegeEmail string     `json:"college_email"`
	OTP          FlexString `json:"otp"`
}

// StaffUser describes the logged in staff member.
type StaffUser struct {
	StaffID        string `json:"staff_id"`
	Name           string `json:"name"`
	DepartmentCode string `json:"department_code"`
	DepartmentName string `json:"department_name"`
	Shift          string `json:"shift"`
	Stream         string `json:"stream"`
	Role           string `json:"role"`
}

// StaffLoginResponse for a verified OTP.
type StaffLoginResponse struct {
	Message   string    `json:"message"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      StaffUser `json:"user"`
}

// FromStaffLogin creates response from domain staff login result.
func FromStaffLogin(r *auth.StaffLoginResult) StaffLoginResponse {
	return StaffLoginResponse{
		Message:   "Login successful",
		Token:     r.Token,
		ExpiresAt: r.ExpiresAt,
		User: StaffUser{
			StaffID:        r.Staff.StaffID,
			Name:           r.Staff.Name,
			DepartmentCode: r.Staff.DepartmentCode,
			DepartmentName: r.Staff.DepartmentName,
			Shift:          r.Staff.Shift,
			Stream:         r.Staff.Stream,
			Role:           appctx.RoleStaff,
		},
	}
}

// --- Dashboard ---

// PrincipalResponse describes the authenticated caller.
type PrincipalResponse struct {
	Subject            string `json:"id"`
	Role               string `json:"role"`
	RegistrationNumber int64  `json:"registration_number,omitempty"`
	PaymentStatus      string `json:"payment_status,omitempty"`
	StaffID            string `json:"staff_id,omitempty"`
	DepartmentCode     string `json:"department_code,omitempty"`
	Email              string `json:"email,omitempty"`
}

// FromPrincipal creates response from the request principal.
func FromPrincipal(p *appctx.Principal) PrincipalResponse {
	return PrincipalResponse{
		Subject:            p.Subject,
		Role:               p.Role,
		RegistrationNumber: p.RegistrationNumber,
		PaymentStatus:      p.PaymentStatus,
		StaffID:            p.StaffID,
		DepartmentCode:     p.DepartmentCode,
		Email:              p.Email,
	}
}

// DashboardResponse greets the authenticated caller.
type DashboardResponse struct {
	Message string            `json:"message"`
	User    PrincipalResponse `json:"user"`
}
