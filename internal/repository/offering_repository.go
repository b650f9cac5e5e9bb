package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Sistersocrates/secure-eduflexscheduler-sub001/internal/models"
)

// OfferingRepository handles persistence of class/seminar offerings.
type OfferingRepository struct {
	db *sqlx.DB
}

// NewOfferingRepository constructs the repository.
func NewOfferingRepository(db *sqlx.DB) *OfferingRepository {
	return &OfferingRepository{db: db}
}

const offeringColumns = `id, title, description, owner_id, period, days_of_week, capacity,
        current_enrollment, waitlist_count, status, created_at, updated_at`

// List returns offerings filtered by the provided criteria.
func (r *OfferingRepository) List(ctx context.Context, filter models.OfferingFilter) ([]models.Offering, int, error) {
	base := "FROM offerings o"
	var conditions []string
	var args []interface{}

	if filter.OwnerID != "" {
		conditions = append(conditions, fmt.Sprintf("o.owner_id = $%d", len(args)+1))
		args = append(args, filter.OwnerID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Period != nil {
		conditions = append(conditions, fmt.Sprintf("o.period = $%d", len(args)+1))
		args = append(args, *filter.Period)
	}
	if filter.DayOfWeek != nil {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(o.days_of_week)", len(args)+1))
		args = append(args, *filter.DayOfWeek)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("o.title ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"title":      "o.title",
		"period":     "o.period",
		"created_at": "o.created_at",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "o.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT o.id, o.title, o.description, o.owner_id, o.period, o.days_of_week,
        o.capacity, o.current_enrollment, o.waitlist_count, o.status, o.created_at, o.updated_at
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var offerings []models.Offering
	if err := r.db.SelectContext(ctx, &offerings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list offerings: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count offerings: %w", err)
	}
	return offerings, total, nil
}

// FindByID returns an offering by its ID.
func (r *OfferingRepository) FindByID(ctx context.Context, id string) (*models.Offering, error) {
	query := fmt.Sprintf("SELECT %s FROM offerings WHERE id = $1", offeringColumns)
	var offering models.Offering
	if err := r.db.GetContext(ctx, &offering, query, id); err != nil {
		return nil, err
	}
	return &offering, nil
}

// Create persists a new offering record.
func (r *OfferingRepository) Create(ctx context.Context, offering *models.Offering) error {
	now := time.Now().UTC()
	if offering.ID == "" {
		offering.ID = uuid.NewString()
	}
	if offering.Status == "" {
		offering.Status = models.OfferingStatusDraft
	}
	if offering.CreatedAt.IsZero() {
		offering.CreatedAt = now
	}
	offering.UpdatedAt = now
	const query = `INSERT INTO offerings (id, title, description, owner_id, period, days_of_week,
        capacity, current_enrollment, waitlist_count, status, created_at, updated_at)
        VALUES (:id, :title, :description, :owner_id, :period, :days_of_week,
        :capacity, :current_enrollment, :waitlist_count, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, offering); err != nil {
		return fmt.Errorf("create offering: %w", err)
	}
	return nil
}

// Update rewrites the mutable definition fields of an offering.
func (r *OfferingRepository) Update(ctx context.Context, offering *models.Offering) error {
	offering.UpdatedAt = time.Now().UTC()
	const query = `UPDATE offerings SET title = :title, description = :description, period = :period,
        days_of_week = :days_of_week, capacity = :capacity, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, offering); err != nil {
		return fmt.Errorf("update offering: %w", err)
	}
	return nil
}

// UpdateStatus moves the offering through its lifecycle. Archiving keeps the
// row; offerings are never hard-deleted.
func (r *OfferingRepository) UpdateStatus(ctx context.Context, id string, status models.OfferingStatus) error {
	const query = `UPDATE offerings SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update offering status: %w", err)
	}
	return nil
}

// ClaimSeat atomically increments current_enrollment when a seat is open.
// The conditional update is the capacity check, so two concurrent claims on
// the last seat cannot both succeed. Returns false when the offering is full.
func (r *OfferingRepository) ClaimSeat(ctx context.Context, id string) (bool, int, error) {
	const query = `UPDATE offerings SET current_enrollment = current_enrollment + 1, updated_at = $2
        WHERE id = $1 AND current_enrollment < capacity
        RETURNING current_enrollment`
	var current int
	if err := r.db.GetContext(ctx, &current, query, id, time.Now().UTC()); err != nil {
		if err == sql.ErrNoRows {
			return false, 0, nil
		}
		return false, 0, fmt.Errorf("claim seat: %w", err)
	}
	return true, current, nil
}

// AdjustCounters applies deltas to the denormalized counters, clamping at
// zero so a stray decrement never drives a counter negative.
func (r *OfferingRepository) AdjustCounters(ctx context.Context, id string, enrollmentDelta, waitlistDelta int) error {
	const query = `UPDATE offerings SET
        current_enrollment = GREATEST(current_enrollment + $2, 0),
        waitlist_count = GREATEST(waitlist_count + $3, 0),
        updated_at = $4
        WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, enrollmentDelta, waitlistDelta, time.Now().UTC()); err != nil {
		return fmt.Errorf("adjust offering counters: %w", err)
	}
	return nil
}
