// Package staff_repo provides the PostgreSQL implementation of auth.StaffRepository.
package staff_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"admissions/internal/core/apperror"
	"admissions/internal/core/id"
	"admissions/internal/domain/auth"
	"admissions/internal/infrastructure/storage/postgres"
)

const tableName = "staff"

var selectCols = postgres.ExtractDBColumns[auth.Staff]()

// Repo implements auth.StaffRepository.
type Repo struct {
	txManager *postgres.TxManager
}

var _ auth.StaffRepository = (*Repo)(nil)

// NewRepo creates a new staff repository.
func NewRepo(txManager *postgres.TxManager) *Repo {
	return &Repo{txManager: txManager}
}

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// GetByEmail implements auth.StaffRepository.
func (r *Repo) GetByEmail(ctx context.Context, email string) (*auth.Staff, error) {
	sql, args, err := builder().
		Select(selectCols...).
		From(tableName).
		Where(squirrel.Eq{"college_email": email}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var s auth.Staff
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &s, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("staff", email)
		}
		return nil, fmt.Errorf("get staff: %w", err)
	}
	return &s, nil
}

func (r *Repo) update(ctx context.Context, staffID id.ID, set map[string]any) error {
	sql, args, err := builder().
		Update(tableName).
		SetMap(set).
		Where(squirrel.Eq{"id": staffID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update staff: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("staff", staffID.String())
	}
	return nil
}

// SaveOTP implements auth.StaffRepository.
func (r *Repo) SaveOTP(ctx context.Context, staffID id.ID, hash string, expiresAt time.Time) error {
	return r.update(ctx, staffID, map[string]any{
		"otp_hash":       hash,
		"otp_expires_at": expiresAt,
		"otp_attempts":   0,
	})
}

// ClearOTP implements auth.StaffRepository.
func (r *Repo) ClearOTP(ctx context.Context, staffID id.ID) error {
	return r.update(ctx, staffID, map[string]any{
		"otp_hash":       nil,
		"otp_expires_at": nil,
		"otp_attempts":   0,
	})
}

// RecordFailedOTP implements auth.StaffRepository.
func (r *Repo) RecordFailedOTP(ctx context.Context, staffID id.ID) (int, error) {
	var attempts int
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx,
		`UPDATE staff SET otp_attempts = otp_attempts + 1 WHERE id = $1 RETURNING otp_attempts`,
		staffID).Scan(&attempts)
	if err != nil {
		return 0, fmt.Errorf("record failed otp: %w", err)
	}
	return attempts, nil
}

// Upsert implements auth.StaffRepository.
func (r *Repo) Upsert(ctx context.Context, s *auth.Staff) error {
	sql, args, err := builder().
		Insert(tableName).
		Columns("id", "staff_id", "name", "department_code", "department_name", "shift", "stream", "college_email").
		Values(s.ID, s.StaffID, s.Name, s.DepartmentCode, s.DepartmentName, s.Shift, s.Stream, s.CollegeEmail).
		Suffix(`ON CONFLICT (staff_id) DO UPDATE SET
			name = EXCLUDED.name,
			department_code = EXCLUDED.department_code,
			department_name = EXCLUDED.department_name,
			shift = EXCLUDED.shift,
			stream = EXCLUDED.stream,
			college_email = EXCLUDED.college_email`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert staff: %w", err)
	}
	return nil
}
