// Package candidate_repo provides the PostgreSQL implementation of candidate.Repository.
package candidate_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"admissions/internal/core/apperror"
	"admissions/internal/core/id"
	"admissions/internal/domain/candidate"
	"admissions/internal/infrastructure/storage/postgres"
)

const (
	candidatesTable   = "candidates"
	applicationsTable = "candidate_applications"

	constraintRegistrationNumber = "candidates_registration_number_key"
	constraintMobile             = "candidates_mobile_key"
)

var (
	candidateColumns   = postgres.ExtractDBColumns[candidate.Candidate]()
	applicationColumns = append([]string{"candidate_id"}, postgres.ExtractDBColumns[candidate.Application]()...)
)

// applicationRow is a candidate_applications row.
type applicationRow struct {
	CandidateID id.ID `db:"candidate_id"`
	candidate.Application
}

// Repo implements candidate.Repository.
type Repo struct {
	txManager *postgres.TxManager
	batch     *postgres.BatchInserter
}

var _ candidate.Repository = (*Repo)(nil)

// NewRepo creates a new candidate repository.
func NewRepo(txManager *postgres.TxManager) *Repo {
	return &Repo{
		txManager: txManager,
		batch:     postgres.NewBatchInserter(txManager),
	}
}

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Insert writes the candidate and its applications atomically. Inside an
// outer transaction the write is isolated by a savepoint, so a duplicate
// registration number can be retried in the same transaction.
func (r *Repo) Insert(ctx context.Context, c *candidate.Candidate) error {
	return r.txManager.RunInSavepoint(ctx, func(ctx context.Context) error {
		sql, args, err := builder().
			Insert(candidatesTable).
			SetMap(postgres.StructToMap(c)).
			ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}

		if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
			return mapWriteErr(err, c)
		}

		rows := make([][]any, len(c.Applications))
		for i, a := range c.Applications {
			rows[i] = []any{
				c.ID, a.ApplicationNumber, a.ApplicationType, a.ProgramCode,
				a.ProgramName, a.Stream, a.Status, a.PreferenceOrder,
			}
		}
		if _, err := r.batch.CopyFromSlice(ctx, applicationsTable, applicationColumns, rows); err != nil {
			return mapWriteErr(err, c)
		}
		return nil
	})
}

func mapWriteErr(err error, c *candidate.Candidate) error {
	if constraint, ok := postgres.UniqueViolation(err); ok {
		switch constraint {
		case constraintRegistrationNumber:
			return fmt.Errorf("insert candidate %d: %w", c.RegistrationNumber, candidate.ErrDuplicateRegistrationNumber)
		case constraintMobile:
			return apperror.NewDuplicate("candidate", "mobile", c.Mobile).
				WithMessage("Candidate already registered with this mobile number").
				WithCause(err)
		}
	}
	if postgres.IsIntegrityViolation(err) {
		return apperror.NewValidation("candidate rejected by database").WithCause(err)
	}
	return fmt.Errorf("insert candidate: %w", err)
}

// ExistsByMobile implements candidate.Repository.
func (r *Repo) ExistsByMobile(ctx context.Context, mobile string) (bool, error) {
	var exists bool
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM candidates WHERE mobile = $1)`, mobile).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists by mobile: %w", err)
	}
	return exists, nil
}

// FindByMobile implements candidate.Repository.
func (r *Repo) FindByMobile(ctx context.Context, mobile string) (*candidate.Candidate, error) {
	return r.getOne(ctx, squirrel.Eq{"mobile": mobile}, mobile)
}

// FindByRegistrationNumber implements candidate.Repository.
func (r *Repo) FindByRegistrationNumber(ctx context.Context, number int64) (*candidate.Candidate, error) {
	return r.getOne(ctx, squirrel.Eq{"registration_number": number}, number)
}

func (r *Repo) getOne(ctx context.Context, where squirrel.Eq, key any) (*candidate.Candidate, error) {
	sql, args, err := builder().
		Select(candidateColumns...).
		From(candidatesTable).
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var c candidate.Candidate
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &c, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("candidate", key)
		}
		return nil, fmt.Errorf("get candidate: %w", err)
	}

	apps, err := r.applications(ctx, squirrel.Eq{"candidate_id": c.ID})
	if err != nil {
		return nil, err
	}
	for _, a := range apps {
		c.Applications = append(c.Applications, a.Application)
	}
	return &c, nil
}

// ListByProgram implements candidate.Repository.
func (r *Repo) ListByProgram(ctx context.Context, programCode string) ([]*candidate.Candidate, error) {
	cols := make([]string, len(candidateColumns))
	for i, col := range candidateColumns {
		cols[i] = "c." + col
	}

	sql, args, err := builder().
		Select(cols...).
		From(candidatesTable + " c").
		Join(applicationsTable + " a ON a.candidate_id = c.id").
		Where(squirrel.Eq{"a.program_code": programCode}).
		OrderBy("c.registration_number").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var candidates []*candidate.Candidate
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &candidates, sql, args...); err != nil {
		return nil, fmt.Errorf("list by program: %w", err)
	}
	if len(candidates) == 0 {
		return candidates, nil
	}

	apps, err := r.applications(ctx, squirrel.Eq{"program_code": programCode})
	if err != nil {
		return nil, err
	}
	byCandidate := make(map[id.ID]candidate.Application, len(apps))
	for _, a := range apps {
		byCandidate[a.CandidateID] = a.Application
	}
	for _, c := range candidates {
		if a, ok := byCandidate[c.ID]; ok {
			c.Applications = []candidate.Application{a}
		}
	}
	return candidates, nil
}

func (r *Repo) applications(ctx context.Context, where squirrel.Eq) ([]applicationRow, error) {
	sql, args, err := builder().
		Select(applicationColumns...).
		From(applicationsTable).
		Where(where).
		OrderBy("preference_order").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []applicationRow
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("load applications: %w", err)
	}
	return rows, nil
}
