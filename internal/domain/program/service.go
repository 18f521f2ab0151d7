package program

import (
	"context"
	"fmt"

	"admissions/internal/core/tx"
	"admissions/pkg/logger"
)

// Service provides programme catalogue operations.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new programme service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// ListVisible returns the programmes open for application.
func (s *Service) ListVisible(ctx context.Context) ([]*Program, error) {
	return s.repo.ListVisible(ctx)
}

// FindByCodes returns the known programmes among codes.
func (s *Service) FindByCodes(ctx context.Context, codes []string) ([]*Program, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	return s.repo.FindByCodes(ctx, codes)
}

// GetVisible returns a visible programme of a department.
func (s *Service) GetVisible(ctx context.Context, departmentCode, code string) (*Program, error) {
	return s.repo.GetVisible(ctx, departmentCode, code)
}

// Import validates and upserts programmes in one transaction.
func (s *Service) Import(ctx context.Context, programs []*Program) error {
	for _, p := range programs {
		if err := p.Validate(ctx); err != nil {
			return err
		}
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, p := range programs {
			if err := s.repo.Upsert(ctx, p); err != nil {
				return fmt.Errorf("upsert program %s: %w", p.ProgramCode, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "programs imported", "count", len(programs))
	return nil
}
