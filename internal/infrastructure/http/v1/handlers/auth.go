// Package handlers provides HTTP request handlers.
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"admissions/internal/core/apperror"
	appctx "admissions/internal/core/context"
	"admissions/internal/domain/auth"
	"admissions/internal/domain/candidate"
	"admissions/internal/infrastructure/http/v1/dto"
)

// CandidateService is the candidate side of authentication.
type CandidateService interface {
	Signup(ctx context.Context, in candidate.SignupInput) (*candidate.SignupResult, error)
	SimulatePayment(ctx context.Context, in candidate.SimulatePaymentInput) (*candidate.SignupResult, error)
	Login(ctx context.Context, registrationNumber int64, mobile string) (*candidate.LoginResult, error)
	FindRegistrationNumber(ctx context.Context, mobile string) (int64, error)
}

// StaffAuthService is the department staff OTP flow.
type StaffAuthService interface {
	DepartmentLogin(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, otp string) (*auth.StaffLoginResult, error)
}

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	*BaseHandler
	candidates CandidateService
	staff      StaffAuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(base *BaseHandler, candidates CandidateService, staff StaffAuthService) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		candidates:  candidates,
		staff:       staff,
	}
}

// Signup handles POST /auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToSignupInput()
	if err != nil {
		h.Error(c, err)
		return
	}
	in.IPAddress = c.ClientIP()
	in.UserAgent = c.Request.UserAgent()

	result, err := h.candidates.Signup(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromSignupResult(result))
}

// SimulatePayment handles POST /auth/simulate-payment
func (h *AuthHandler) SimulatePayment(c *gin.Context) {
	var req dto.SimulatePaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToSimulatePaymentInput()
	if err != nil {
		h.Error(c, err)
		return
	}
	in.Form.IPAddress = c.ClientIP()
	in.Form.UserAgent = c.Request.UserAgent()

	result, err := h.candidates.SimulatePayment(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromSignupResult(result))
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.candidates.Login(c.Request.Context(), req.RegistrationNumberValue(), req.Mobile.String())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromLoginResult(result))
}

// ForgotRegistration handles POST /auth/forgot-registration
func (h *AuthHandler) ForgotRegistration(c *gin.Context) {
	var req dto.ForgotRegistrationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	number, err := h.candidates.FindRegistrationNumber(c.Request.Context(), req.Mobile.String())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ForgotRegistrationResponse{
		Message:            "Registration number found",
		RegistrationNumber: number,
	})
}

// Logout handles POST /auth/logout. Tokens are stateless, the client drops its copy.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.Message(c, "Logged out successfully")
}

// DepartmentLogin handles POST /auth/department/login
func (h *AuthHandler) DepartmentLogin(c *gin.Context) {
	var req dto.DepartmentLoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.staff.DepartmentLogin(c.Request.Context(), req.CollegeEmail); err != nil {
		h.Error(c, err)
		return
	}

	h.Message(c, "OTP sent successfully")
}

// VerifyOTP handles POST /auth/department/verify-otp
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req dto.VerifyOTPRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.staff.VerifyOTP(c.Request.Context(), req.CollegeEmail, req.OTP.String())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromStaffLogin(result))
}

// Dashboard handles GET /protected/dashboard
func (h *AuthHandler) Dashboard(c *gin.Context) {
	p := appctx.GetPrincipal(c.Request.Context())
	if p == nil {
		h.Error(c, apperror.NewUnauthorized("authentication required"))
		return
	}

	h.OK(c, dto.DashboardResponse{
		Message: "Welcome to dashboard",
		User:    dto.FromPrincipal(p),
	})
}

// RegisterRoutes registers auth routes.
func (h *AuthHandler) RegisterRoutes(public *gin.RouterGroup) {
	public.POST("/signup", h.Signup)
	public.POST("/simulate-payment", h.SimulatePayment)
	public.POST("/login", h.Login)
	public.POST("/forgot-registration", h.ForgotRegistration)
	public.POST("/logout", h.Logout)

	if h.staff != nil {
		public.POST("/department/login", h.DepartmentLogin)
		public.POST("/department/verify-otp", h.VerifyOTP)
	}
}
