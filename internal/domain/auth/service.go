package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"admissions/internal/core/apperror"
	"admissions/pkg/logger"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ServiceConfig holds auth service configuration.
type ServiceConfig struct {
	OTPTTL         time.Duration
	MaxOTPAttempts int
}

// DefaultServiceConfig returns default configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		OTPTTL:         5 * time.Minute,
		MaxOTPAttempts: 5,
	}
}

// Service authenticates department staff with emailed one-time passwords.
type Service struct {
	staffRepo  StaffRepository
	jwtService *JWTService
	mailer     Mailer
	config     ServiceConfig

	now         func() time.Time
	generateOTP func() (string, error)
}

// NewService creates a new auth service.
func NewService(staffRepo StaffRepository, jwtService *JWTService, mailer Mailer, config ServiceConfig) *Service {
	return &Service{
		staffRepo:   staffRepo,
		jwtService:  jwtService,
		mailer:      mailer,
		config:      config,
		now:         time.Now,
		generateOTP: randomOTP,
	}
}

// randomOTP returns a uniformly drawn 6-digit code.
func randomOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DepartmentLogin issues an OTP to a registered staff email.
func (s *Service) DepartmentLogin(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return apperror.NewValidation("College email is required").WithDetail("field", "college_email")
	}
	if !emailRegex.MatchString(email) {
		return apperror.NewValidation("Invalid email format").WithDetail("field", "college_email")
	}

	staff, err := s.staffRepo.GetByEmail(ctx, email)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewNotFound("staff", email).WithMessage("Email not registered")
		}
		return err
	}

	otp, err := s.generateOTP()
	if err != nil {
		return apperror.NewInternal(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(otp), bcrypt.DefaultCost)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("hash otp: %w", err))
	}

	expiresAt := s.now().Add(s.config.OTPTTL)
	if err := s.staffRepo.SaveOTP(ctx, staff.ID, string(hash), expiresAt); err != nil {
		return fmt.Errorf("save otp: %w", err)
	}

	if err := s.mailer.SendOTP(ctx, email, otp); err != nil {
		return apperror.NewInternal(fmt.Errorf("send otp: %w", err))
	}

	logger.Info(ctx, "otp sent", "staff_id", staff.StaffID, "expires_at", expiresAt)
	return nil
}

// StaffLoginResult is returned by VerifyOTP.
type StaffLoginResult struct {
	Token     string
	ExpiresAt time.Time
	Staff     *Staff
}

// VerifyOTP checks the OTP and issues a staff token. The OTP is single use
// and is discarded after MaxOTPAttempts wrong guesses.
func (s *Service) VerifyOTP(ctx context.Context, email, otp string) (*StaffLoginResult, error) {
	email = normalizeEmail(email)
	otp = strings.TrimSpace(otp)
	if email == "" || otp == "" {
		return nil, apperror.NewValidation("College email and OTP are required")
	}

	staff, err := s.staffRepo.GetByEmail(ctx, email)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized("Invalid or expired OTP")
		}
		return nil, err
	}

	if !staff.HasPendingOTP(s.now()) {
		return nil, apperror.NewUnauthorized("Invalid or expired OTP")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*staff.OTPHash), []byte(otp)); err != nil {
		attempts, recErr := s.staffRepo.RecordFailedOTP(ctx, staff.ID)
		if recErr != nil {
			logger.Warn(ctx, "failed to record otp attempt", "staff_id", staff.StaffID, "error", recErr)
		}
		if attempts >= s.config.MaxOTPAttempts {
			if clrErr := s.staffRepo.ClearOTP(ctx, staff.ID); clrErr != nil {
				logger.Warn(ctx, "failed to clear otp", "staff_id", staff.StaffID, "error", clrErr)
			}
			logger.Warn(ctx, "otp discarded after failed attempts", "staff_id", staff.StaffID, "attempts", attempts)
		}
		return nil, apperror.NewUnauthorized("Invalid or expired OTP")
	}

	if err := s.staffRepo.ClearOTP(ctx, staff.ID); err != nil {
		return nil, fmt.Errorf("clear otp: %w", err)
	}

	token, expiresAt, err := s.jwtService.IssueStaffToken(staff)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	logger.Info(ctx, "staff logged in", "staff_id", staff.StaffID, "department", staff.DepartmentCode)

	return &StaffLoginResult{Token: token, ExpiresAt: expiresAt, Staff: staff}, nil
}
