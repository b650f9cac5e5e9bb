package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Sistersocrates/secure-eduflexscheduler-sub001/internal/models"
)

// CreditRepository reads and appends the credit ledger. Rows are never
// updated or deleted.
type CreditRepository struct {
	db *sqlx.DB
}

// NewCreditRepository constructs the repository.
func NewCreditRepository(db *sqlx.DB) *CreditRepository {
	return &CreditRepository{db: db}
}

// Create appends one grant to the ledger.
func (r *CreditRepository) Create(ctx context.Context, grant *models.CreditGrant) error {
	if grant.ID == "" {
		grant.ID = uuid.NewString()
	}
	if grant.CreatedAt.IsZero() {
		grant.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO credits (id, student_id, offering_id, type, amount, earned_date, created_at)
        VALUES (:id, :student_id, :offering_id, :type, :amount, :earned_date, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, grant); err != nil {
		return fmt.Errorf("create credit grant: %w", err)
	}
	return nil
}

// ListByStudent returns all grants for a student, newest first.
func (r *CreditRepository) ListByStudent(ctx context.Context, studentID string) ([]models.CreditGrant, error) {
	const query = `SELECT id, student_id, offering_id, type, amount, earned_date, created_at
        FROM credits WHERE student_id = $1 ORDER BY earned_date DESC`
	var grants []models.CreditGrant
	if err := r.db.SelectContext(ctx, &grants, query, studentID); err != nil {
		return nil, fmt.Errorf("list credit grants: %w", err)
	}
	return grants, nil
}

// TotalsByStudent sums grant amounts grouped by type.
func (r *CreditRepository) TotalsByStudent(ctx context.Context, studentID string) ([]models.CreditTotal, error) {
	const query = `SELECT type, COALESCE(SUM(amount), 0) AS total
        FROM credits WHERE student_id = $1 GROUP BY type ORDER BY type`
	var totals []models.CreditTotal
	if err := r.db.SelectContext(ctx, &totals, query, studentID); err != nil {
		return nil, fmt.Errorf("sum credit grants: %w", err)
	}
	return totals, nil
}
