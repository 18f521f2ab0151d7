package candidate

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admissions/internal/core/sequence"
)

// scriptedInserter fails the first len(errs) inserts with the scripted errors.
type scriptedInserter struct {
	errs    []error
	numbers []int64
}

func (s *scriptedInserter) Insert(_ context.Context, c *Candidate) error {
	s.numbers = append(s.numbers, c.RegistrationNumber)
	if i := len(s.numbers) - 1; i < len(s.errs) {
		return s.errs[i]
	}
	return nil
}

type countingRecorder struct {
	retries   int
	exhausted int
	created   int
}

func (r *countingRecorder) IncInsertRetry()       { r.retries++ }
func (r *countingRecorder) IncRetriesExhausted()  { r.exhausted++ }
func (r *countingRecorder) IncCandidatesCreated() { r.created++ }

type inlineTxManager struct {
	calls int
}

func (m *inlineTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

func duplicateErr(n int64) error {
	return fmt.Errorf("insert candidate %d: %w", n, ErrDuplicateRegistrationNumber)
}

func TestCreateWithRetry_SucceedsAfterDuplicates(t *testing.T) {
	repo := &scriptedInserter{errs: []error{duplicateErr(202600001), duplicateErr(202600002)}}
	alloc := &sequence.MockAllocator{Start: 202600001}
	rec := &countingRecorder{}
	c := NewCreator(repo, alloc, nil, rec)

	cand := &Candidate{RegistrationNumber: 202600001}
	err := c.CreateWithRetry(context.Background(), cand, DefaultMaxRetries)

	require.NoError(t, err)
	assert.Equal(t, 2, alloc.NextCalls())
	assert.Equal(t, []int64{202600001, 202600002, 202600003}, repo.numbers)
	assert.Equal(t, int64(202600003), cand.RegistrationNumber)
	assert.Equal(t, 2, rec.retries)
	assert.Zero(t, rec.exhausted)
}

func TestCreateWithRetry_ExhaustedReturnsLastDuplicate(t *testing.T) {
	last := duplicateErr(4)
	repo := &scriptedInserter{errs: []error{duplicateErr(1), duplicateErr(2), duplicateErr(3), last}}
	alloc := &sequence.MockAllocator{Start: 1}
	rec := &countingRecorder{}
	c := NewCreator(repo, alloc, nil, rec)

	err := c.CreateWithRetry(context.Background(), &Candidate{RegistrationNumber: 1}, 3)

	require.Error(t, err)
	assert.Same(t, last, err)
	assert.ErrorIs(t, err, ErrDuplicateRegistrationNumber)
	assert.Len(t, repo.numbers, 4)
	assert.Equal(t, 3, alloc.NextCalls())
	assert.Equal(t, 1, rec.exhausted)
}

func TestCreateWithRetry_OtherErrorIsNotRetried(t *testing.T) {
	boom := errors.New("connection reset")
	repo := &scriptedInserter{errs: []error{boom}}
	alloc := &sequence.MockAllocator{}
	c := NewCreator(repo, alloc, nil, nil)

	err := c.CreateWithRetry(context.Background(), &Candidate{RegistrationNumber: 7}, 3)

	assert.Same(t, boom, err)
	assert.Len(t, repo.numbers, 1)
	assert.Zero(t, alloc.NextCalls())
}

func TestCreateWithRetry_ZeroRetriesInsertsOnce(t *testing.T) {
	dup := duplicateErr(9)
	repo := &scriptedInserter{errs: []error{dup}}
	alloc := &sequence.MockAllocator{}
	c := NewCreator(repo, alloc, nil, nil)

	err := c.CreateWithRetry(context.Background(), &Candidate{RegistrationNumber: 9}, -1)

	assert.Same(t, dup, err)
	assert.Len(t, repo.numbers, 1)
	assert.Zero(t, alloc.NextCalls())
}

func TestCreateWithRetry_AllocatorFailureSurfaces(t *testing.T) {
	repo := &scriptedInserter{errs: []error{duplicateErr(1)}}
	storeErr := fmt.Errorf("%w: increment registration_number by 1: %w", sequence.ErrStoreUnavailable, errors.New("dial tcp"))
	alloc := &sequence.MockAllocator{
		NextFunc: func(context.Context, string) (int64, error) { return 0, storeErr },
	}
	c := NewCreator(repo, alloc, nil, nil)

	err := c.CreateWithRetry(context.Background(), &Candidate{RegistrationNumber: 1}, 3)

	assert.ErrorIs(t, err, sequence.ErrStoreUnavailable)
	assert.Len(t, repo.numbers, 1)
}

func TestCreateInTransaction_DrawsNumberInsideTransaction(t *testing.T) {
	repo := &scriptedInserter{errs: []error{duplicateErr(202600001)}}
	alloc := &sequence.MockAllocator{Start: 202600000}
	txm := &inlineTxManager{}
	c := NewCreator(repo, alloc, txm, nil)

	cand := &Candidate{}
	err := c.CreateInTransaction(context.Background(), cand, 3)

	require.NoError(t, err)
	assert.Equal(t, 1, txm.calls)
	assert.Equal(t, []int64{202600001, 202600002}, repo.numbers)
	assert.Equal(t, int64(202600002), cand.RegistrationNumber)
}

func TestCreateInTransaction_RequiresTxManager(t *testing.T) {
	c := NewCreator(&scriptedInserter{}, &sequence.MockAllocator{}, nil, nil)

	err := c.CreateInTransaction(context.Background(), &Candidate{}, 3)

	assert.Error(t, err)
}
