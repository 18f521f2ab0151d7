package candidate

import (
	"context"
	"errors"
	"fmt"

	"admissions/internal/core/sequence"
	"admissions/internal/core/tx"
	"admissions/pkg/logger"
)

// DefaultMaxRetries is the number of extra inserts attempted after a
// registration number collision.
const DefaultMaxRetries = 3

// Inserter persists a candidate with its applications.
// A registration number collision must satisfy
// errors.Is(err, ErrDuplicateRegistrationNumber); nothing is written on failure.
type Inserter interface {
	Insert(ctx context.Context, c *Candidate) error
}

// RetryRecorder observes create-with-retry outcomes.
type RetryRecorder interface {
	IncInsertRetry()
	IncRetriesExhausted()
}

// Creator inserts candidates, re-drawing the registration number on collision.
type Creator struct {
	repo      Inserter
	allocator sequence.Allocator
	txManager tx.Manager
	recorder  RetryRecorder
}

// NewCreator creates a new Creator. txManager and recorder may be nil.
func NewCreator(repo Inserter, allocator sequence.Allocator, txManager tx.Manager, recorder RetryRecorder) *Creator {
	return &Creator{
		repo:      repo,
		allocator: allocator,
		txManager: txManager,
		recorder:  recorder,
	}
}

// CreateWithRetry inserts cand. When the insert fails because the
// registration number is taken, a fresh number is drawn and the insert
// repeated, at most maxRetries times. Any other error is returned at once;
// after the last collision its error is returned unchanged.
func (c *Creator) CreateWithRetry(ctx context.Context, cand *Candidate, maxRetries int) error {
	if maxRetries < 0 {
		maxRetries = 0
	}

	for attempt := 0; ; attempt++ {
		err := c.repo.Insert(ctx, cand)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrDuplicateRegistrationNumber) {
			return err
		}
		if attempt >= maxRetries {
			if c.recorder != nil {
				c.recorder.IncRetriesExhausted()
			}
			logger.Error(ctx, "registration number retries exhausted",
				"registration_number", cand.RegistrationNumber,
				"attempts", attempt+1)
			return err
		}

		next, allocErr := c.allocator.Next(ctx, sequence.RegistrationNumber)
		if allocErr != nil {
			return allocErr
		}

		logger.Warn(ctx, "registration number taken, retrying",
			"taken", cand.RegistrationNumber,
			"next", next,
			"attempt", attempt+1)

		if c.recorder != nil {
			c.recorder.IncInsertRetry()
		}
		cand.RegistrationNumber = next
	}
}

// CreateInTransaction draws the registration number and inserts cand in one
// transaction. With a transactional counter store a failed signup leaves no
// gap in the registration sequence; counters held elsewhere are not rolled back.
func (c *Creator) CreateInTransaction(ctx context.Context, cand *Candidate, maxRetries int) error {
	if c.txManager == nil {
		return fmt.Errorf("create in transaction: no transaction manager")
	}

	return c.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		n, err := c.allocator.Next(ctx, sequence.RegistrationNumber)
		if err != nil {
			return err
		}
		cand.RegistrationNumber = n
		return c.CreateWithRetry(ctx, cand, maxRetries)
	})
}
