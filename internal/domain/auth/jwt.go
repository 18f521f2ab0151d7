package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	appctx "admissions/internal/core/context"
)

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret         string
	Issuer         string
	AccessTokenTTL time.Duration
}

// DefaultJWTConfig returns default JWT configuration.
func DefaultJWTConfig(secret string) JWTConfig {
	return JWTConfig{
		Secret:         secret,
		Issuer:         "admissions",
		AccessTokenTTL: 24 * time.Hour,
	}
}

// Claims represents JWT claims.
type Claims struct {
	jwt.RegisteredClaims
	Role               string `json:"role"`
	RegistrationNumber int64  `json:"registration_number,omitempty"`
	PaymentStatus      string `json:"payment_status,omitempty"`
	StaffID            string `json:"staff_id,omitempty"`
	DepartmentCode     string `json:"department_code,omitempty"`
	Email              string `json:"email,omitempty"`
}

// JWTService handles JWT operations.
type JWTService struct {
	config JWTConfig
	now    func() time.Time
}

// NewJWTService creates a new JWT service.
func NewJWTService(config JWTConfig) *JWTService {
	return &JWTService{config: config, now: time.Now}
}

// IssueCandidateToken issues a token for a registered candidate.
func (s *JWTService) IssueCandidateToken(subject string, registrationNumber int64, paymentStatus string) (string, time.Time, error) {
	return s.sign(subject, Claims{
		Role:               appctx.RoleCandidate,
		RegistrationNumber: registrationNumber,
		PaymentStatus:      paymentStatus,
	})
}

// IssueStaffToken issues a token for a department staff member.
func (s *JWTService) IssueStaffToken(st *Staff) (string, time.Time, error) {
	return s.sign(st.ID.String(), Claims{
		Role:           appctx.RoleStaff,
		StaffID:        st.StaffID,
		DepartmentCode: st.DepartmentCode,
		Email:          st.CollegeEmail,
	})
}

func (s *JWTService) sign(subject string, claims Claims) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.config.AccessTokenTTL)

	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    s.config.Issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// ValidateToken validates JWT and returns the principal it carries.
func (s *JWTService) ValidateToken(tokenString string) (*appctx.Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithIssuer(s.config.Issuer), jwt.WithTimeFunc(s.now))

	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return &appctx.Principal{
		Subject:            claims.Subject,
		Role:               claims.Role,
		RegistrationNumber: claims.RegistrationNumber,
		PaymentStatus:      claims.PaymentStatus,
		StaffID:            claims.StaffID,
		DepartmentCode:     claims.DepartmentCode,
		Email:              claims.Email,
	}, nil
}
