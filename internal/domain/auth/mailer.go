package auth

import (
	"context"

	"admissions/pkg/logger"
)

// Mailer delivers one-time passwords.
type Mailer interface {
	SendOTP(ctx context.Context, email, otp string) error
}

// LogMailer writes OTPs to the log instead of sending mail.
// Only meant for development setups without an SMTP relay.
type LogMailer struct{}

// SendOTP implements Mailer.
func (LogMailer) SendOTP(ctx context.Context, email, otp string) error {
	logger.Info(ctx, "otp issued", "email", email, "otp", otp)
	return nil
}
