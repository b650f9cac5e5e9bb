package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/Sistersocrates/secure-eduflexscheduler-sub001/internal/models"
	appErrors "github.com/Sistersocrates/secure-eduflexscheduler-sub001/pkg/errors"
)

type creditReader interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.CreditGrant, error)
	TotalsByStudent(ctx context.Context, studentID string) ([]models.CreditTotal, error)
}

// CreditService exposes read projections over the append-only credit
// ledger. Grants are written by the attendance recorder, never here.
type CreditService struct {
	repo   creditReader
	logger *zap.Logger
}

// NewCreditService constructs CreditService.
func NewCreditService(repo creditReader, logger *zap.Logger) *CreditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CreditService{repo: repo, logger: logger}
}

// ListGrants returns every grant recorded for a student.
func (s *CreditService) ListGrants(ctx context.Context, studentID string) ([]models.CreditGrant, error) {
	grants, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list credit grants")
	}
	if grants == nil {
		grants = []models.CreditGrant{}
	}
	return grants, nil
}

// Totals returns the student's credit sums grouped by grant type.
func (s *CreditService) Totals(ctx context.Context, studentID string) ([]models.CreditTotal, error) {
	totals, err := s.repo.TotalsByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum credits")
	}
	if totals == nil {
		totals = []models.CreditTotal{}
	}
	return totals, nil
}
