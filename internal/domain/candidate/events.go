package candidate

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"admissions/internal/core/id"
	"admissions/pkg/logger"
)

// Event names written to the outbox.
const (
	AggregateType   = "candidate"
	EventRegistered = "candidate.registered"
)

// EventPublisher enqueues events for asynchronous delivery.
type EventPublisher interface {
	Publish(ctx context.Context, aggregateType string, aggregateID id.ID, eventType string, payload any) error
}

// RegisteredEvent is the payload of EventRegistered.
type RegisteredEvent struct {
	CandidateID        id.ID           `json:"candidate_id"`
	RegistrationNumber int64           `json:"registration_number"`
	FullName           string          `json:"full_name"`
	Email              string          `json:"email"`
	Mobile             string          `json:"mobile"`
	PaymentStatus      PaymentStatus   `json:"payment_status"`
	Amount             decimal.Decimal `json:"amount"`
	Applications       []Application   `json:"applications"`
}

// NewRegisteredEvent builds the event for a persisted candidate.
func NewRegisteredEvent(c *Candidate) RegisteredEvent {
	return RegisteredEvent{
		CandidateID:        c.ID,
		RegistrationNumber: c.RegistrationNumber,
		FullName:           c.FullName,
		Email:              c.Email,
		Mobile:             c.Mobile,
		PaymentStatus:      c.PaymentStatus,
		Amount:             c.PaymentAmount,
		Applications:       c.Applications,
	}
}

// ConfirmationSender delivers registration confirmations to candidates.
type ConfirmationSender interface {
	SendRegistrationConfirmation(ctx context.Context, ev RegisteredEvent) error
}

// NotificationHandler turns outbox events into candidate notifications.
type NotificationHandler struct {
	sender ConfirmationSender
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(sender ConfirmationSender) *NotificationHandler {
	return &NotificationHandler{sender: sender}
}

// Handle delivers one event. Events it does not know are acknowledged.
func (h *NotificationHandler) Handle(ctx context.Context, eventType string, payload []byte) error {
	switch eventType {
	case EventRegistered:
		var ev RegisteredEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return fmt.Errorf("decode %s: %w", eventType, err)
		}
		return h.sender.SendRegistrationConfirmation(ctx, ev)
	default:
		logger.Debug(ctx, "ignoring outbox event", "event_type", eventType)
		return nil
	}
}

// LogSender writes confirmations to the log instead of sending them.
type LogSender struct{}

// SendRegistrationConfirmation implements ConfirmationSender.
func (LogSender) SendRegistrationConfirmation(ctx context.Context, ev RegisteredEvent) error {
	numbers := make([]int64, len(ev.Applications))
	for i, a := range ev.Applications {
		numbers[i] = a.ApplicationNumber
	}
	logger.Info(ctx, "registration confirmation",
		"registration_number", ev.RegistrationNumber,
		"email", logger.Mask(ev.Email, 12),
		"mobile", logger.Mask(ev.Mobile, 4),
		"application_numbers", numbers,
		"payment_status", ev.PaymentStatus)
	return nil
}
