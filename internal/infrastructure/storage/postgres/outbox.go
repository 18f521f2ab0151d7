package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"admissions/internal/core/id"
	"admissions/pkg/logger"
)

// OutboxStatus represents the state of an outbox message.
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// OutboxMessage represents a message in the transactional outbox.
type OutboxMessage struct {
	ID            id.ID        `db:"id"`
	AggregateType string       `db:"aggregate_type"` // e.g. "candidate"
	AggregateID   id.ID        `db:"aggregate_id"`
	EventType     string       `db:"event_type"` // e.g. "candidate.registered"
	Payload       []byte       `db:"payload"`
	Status        OutboxStatus `db:"status"`
	Attempts      int          `db:"attempts"`
	LastError     *string      `db:"last_error"`
	NextRetryAt   *time.Time   `db:"next_retry_at"`
	CreatedAt     time.Time    `db:"created_at"`
	PublishedAt   *time.Time   `db:"published_at"`
}

// OutboxPublisher writes events to the outbox table.
type OutboxPublisher struct {
	txManager *TxManager
}

// NewOutboxPublisher creates a new outbox publisher.
func NewOutboxPublisher(txManager *TxManager) *OutboxPublisher {
	return &OutboxPublisher{txManager: txManager}
}

// Publish writes an event to the outbox. Inside a transaction the row
// commits or rolls back together with the caller's writes.
func (p *OutboxPublisher) Publish(ctx context.Context, aggregateType string, aggregateID id.ID, eventType string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	_, err = p.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO sys_outbox (id, aggregate_type, aggregate_id, event_type, payload, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id.New(), aggregateType, aggregateID, eventType, body, OutboxStatusPending, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert outbox message: %w", err)
	}
	return nil
}

// OutboxHandler processes outbox messages.
type OutboxHandler interface {
	Handle(ctx context.Context, msg *OutboxMessage) error
}

// OutboxHandlerFunc adapts a function to OutboxHandler.
type OutboxHandlerFunc func(ctx context.Context, msg *OutboxMessage) error

// Handle implements OutboxHandler.
func (f OutboxHandlerFunc) Handle(ctx context.Context, msg *OutboxMessage) error {
	return f(ctx, msg)
}

// OutboxObserver is notified of every handled message.
type OutboxObserver interface {
	ObserveOutbox(eventType, result string)
}

// OutboxRelayConfig configures the relay.
type OutboxRelayConfig struct {
	BatchSize   int
	MaxAttempts int

	// RetryBackoff is multiplied by the attempt number.
	RetryBackoff time.Duration
}

// DefaultOutboxRelayConfig returns default configuration.
func DefaultOutboxRelayConfig() OutboxRelayConfig {
	return OutboxRelayConfig{
		BatchSize:    50,
		MaxAttempts:  5,
		RetryBackoff: time.Minute,
	}
}

// OutboxRelay reads pending messages and hands them to a handler.
// Used by the background worker.
type OutboxRelay struct {
	txManager *TxManager
	handler   OutboxHandler
	observer  OutboxObserver
	config    OutboxRelayConfig
	now       func() time.Time
}

// NewOutboxRelay creates a new outbox relay. observer may be nil.
func NewOutboxRelay(txManager *TxManager, handler OutboxHandler, observer OutboxObserver, config OutboxRelayConfig) *OutboxRelay {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultOutboxRelayConfig().BatchSize
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultOutboxRelayConfig().MaxAttempts
	}
	return &OutboxRelay{
		txManager: txManager,
		handler:   handler,
		observer:  observer,
		config:    config,
		now:       time.Now,
	}
}

// ProcessBatch fetches due messages and processes them. The rows stay
// locked until the batch commits, so concurrent workers skip them.
// Returns the number of messages published.
func (r *OutboxRelay) ProcessBatch(ctx context.Context) (int, error) {
	published := 0

	err := r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		messages, err := r.fetchDue(ctx)
		if err != nil {
			return err
		}

		for _, msg := range messages {
			ok, err := r.processMessage(ctx, msg)
			if err != nil {
				return err
			}
			if ok {
				published++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return published, nil
}

func (r *OutboxRelay) fetchDue(ctx context.Context) ([]*OutboxMessage, error) {
	rows, err := r.txManager.GetQuerier(ctx).Query(ctx, `
		SELECT id, aggregate_type, aggregate_id, event_type, payload, status,
		       attempts, last_error, next_retry_at, created_at, published_at
		FROM sys_outbox
		WHERE status = $1
		  AND (next_retry_at IS NULL OR next_retry_at <= $2)
		ORDER BY created_at
		LIMIT $3
		FOR UPDATE SKIP LOCKED
	`, OutboxStatusPending, r.now().UTC(), r.config.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("fetch outbox messages: %w", err)
	}
	defer rows.Close()

	var messages []*OutboxMessage
	for rows.Next() {
		var msg OutboxMessage
		if err := rows.Scan(
			&msg.ID, &msg.AggregateType, &msg.AggregateID, &msg.EventType,
			&msg.Payload, &msg.Status, &msg.Attempts, &msg.LastError,
			&msg.NextRetryAt, &msg.CreatedAt, &msg.PublishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan outbox message: %w", err)
		}
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox messages: %w", err)
	}
	return messages, nil
}

// processMessage runs the handler and records the outcome. A handler
// failure is not returned; only failures to update the row are.
func (r *OutboxRelay) processMessage(ctx context.Context, msg *OutboxMessage) (bool, error) {
	q := r.txManager.GetQuerier(ctx)
	now := r.now().UTC()

	handleErr := r.handler.Handle(ctx, msg)
	if handleErr == nil {
		if _, err := q.Exec(ctx, `
			UPDATE sys_outbox
			SET status = $1, attempts = attempts + 1, published_at = $2, last_error = NULL
			WHERE id = $3
		`, OutboxStatusPublished, now, msg.ID); err != nil {
			return false, fmt.Errorf("mark published: %w", err)
		}
		r.observe(msg.EventType, "published")
		return true, nil
	}

	attempts := msg.Attempts + 1
	status := OutboxStatusPending
	result := "retry"
	if attempts >= r.config.MaxAttempts {
		status = OutboxStatusFailed
		result = "failed"
	}
	nextRetry := now.Add(time.Duration(attempts) * r.config.RetryBackoff)
	errStr := handleErr.Error()

	if _, err := q.Exec(ctx, `
		UPDATE sys_outbox
		SET status = $1, attempts = $2, last_error = $3, next_retry_at = $4
		WHERE id = $5
	`, status, attempts, errStr, nextRetry, msg.ID); err != nil {
		return false, fmt.Errorf("update failed message: %w", err)
	}

	logger.Warn(ctx, "outbox message failed",
		"message_id", msg.ID,
		"event_type", msg.EventType,
		"attempts", attempts,
		"status", status,
		"error", handleErr)
	r.observe(msg.EventType, result)
	return false, nil
}

func (r *OutboxRelay) observe(eventType, result string) {
	if r.observer != nil {
		r.observer.ObserveOutbox(eventType, result)
	}
}

// PurgePublished deletes published messages older than retention.
func (r *OutboxRelay) PurgePublished(ctx context.Context, retention time.Duration) (int64, error) {
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		DELETE FROM sys_outbox
		WHERE status = $1 AND published_at < $2
	`, OutboxStatusPublished, r.now().UTC().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("purge outbox: %w", err)
	}
	return tag.RowsAffected(), nil
}
