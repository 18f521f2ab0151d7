// Package program_repo provides the PostgreSQL implementation of program.Repository.
package program_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"admissions/internal/core/apperror"
	"admissions/internal/domain/program"
	"admissions/internal/infrastructure/storage/postgres"
)

const tableName = "programs"

var selectCols = postgres.ExtractDBColumns[program.Program]()

// Repo implements program.Repository.
type Repo struct {
	txManager *postgres.TxManager
}

var _ program.Repository = (*Repo)(nil)

// NewRepo creates a new program repository.
func NewRepo(txManager *postgres.TxManager) *Repo {
	return &Repo{txManager: txManager}
}

func (r *Repo) baseSelect() squirrel.SelectBuilder {
	return squirrel.StatementBuilder.
		PlaceholderFormat(squirrel.Dollar).
		Select(selectCols...).
		From(tableName)
}

func (r *Repo) selectMany(ctx context.Context, q squirrel.SelectBuilder) ([]*program.Program, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*program.Program
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select programs: %w", err)
	}
	return items, nil
}

// ListVisible implements program.Repository.
func (r *Repo) ListVisible(ctx context.Context) ([]*program.Program, error) {
	return r.selectMany(ctx, r.baseSelect().
		Where(squirrel.Eq{"show": true}).
		OrderBy("program_name"))
}

// FindByCodes implements program.Repository.
func (r *Repo) FindByCodes(ctx context.Context, codes []string) ([]*program.Program, error) {
	return r.selectMany(ctx, r.baseSelect().
		Where(squirrel.Eq{"program_code": codes}))
}

// GetVisible implements program.Repository.
func (r *Repo) GetVisible(ctx context.Context, departmentCode, code string) (*program.Program, error) {
	sql, args, err := r.baseSelect().
		Where(squirrel.Eq{
			"department_code": departmentCode,
			"program_code":    code,
			"show":            true,
		}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p program.Program
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("program", code)
		}
		return nil, fmt.Errorf("get program: %w", err)
	}
	return &p, nil
}

// Upsert implements program.Repository.
func (r *Repo) Upsert(ctx context.Context, p *program.Program) error {
	data := postgres.StructToMap(p)
	delete(data, "created_at")

	sql, args, err := squirrel.StatementBuilder.
		PlaceholderFormat(squirrel.Dollar).
		Insert(tableName).
		SetMap(data).
		Suffix(`ON CONFLICT (program_code) DO UPDATE SET
			program_name = EXCLUDED.program_name,
			department_code = EXCLUDED.department_code,
			department_name = EXCLUDED.department_name,
			type = EXCLUDED.type,
			program_type = EXCLUDED.program_type,
			stream = EXCLUDED.stream,
			shift = EXCLUDED.shift,
			special = EXCLUDED.special,
			eligibility_description = EXCLUDED.eligibility_description,
			sanctioned_strength = EXCLUDED.sanctioned_strength,
			show = EXCLUDED.show`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert program: %w", err)
	}
	return nil
}
