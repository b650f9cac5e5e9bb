package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Sistersocrates/secure-eduflexscheduler-sub001/internal/models"
)

// AttendanceRepository handles persistence for attendance records and the
// credit grants issued alongside them.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// List returns attendance rows matching the provided filter.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecordDetail, int, error) {
	base := `FROM attendance a
LEFT JOIN users u ON u.id = a.student_id`
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.OfferingID != "" {
		where = append(where, fmt.Sprintf("a.offering_id = $%d", len(args)+1))
		args = append(args, filter.OfferingID)
	}
	if filter.StudentID != "" {
		where = append(where, fmt.Sprintf("a.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Status != nil && filter.Status.Valid() {
		where = append(where, fmt.Sprintf("a.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("a.date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("a.date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	whereClause := strings.Join(where, " AND ")

	allowedSort := map[string]string{
		"date":       "a.date",
		"status":     "a.status",
		"created_at": "a.created_at",
	}
	sortColumn, ok := allowedSort[filter.SortBy]
	if !ok {
		sortColumn = "a.date"
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

	query := fmt.Sprintf(`SELECT a.id, a.offering_id, a.student_id, a.date, a.status, a.notes,
        a.credit_awarded, a.created_at, a.updated_at,
        COALESCE(u.display_name, '') AS student_name
        %s WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, whereClause, sortColumn, order, size, offset)

	var rows []models.AttendanceRecordDetail
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendance: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count attendance: %w", err)
	}
	return rows, total, nil
}

// FindByID returns an attendance record by its ID.
func (r *AttendanceRepository) FindByID(ctx context.Context, id string) (*models.AttendanceRecord, error) {
	const query = `SELECT id, offering_id, student_id, date, status, notes, credit_awarded, created_at, updated_at
        FROM attendance WHERE id = $1`
	var record models.AttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// BulkUpsert writes one attendance sheet and its credit grants as a single
// all-or-nothing unit. Records upsert on the (offering, student, date)
// composite key so re-saving a day replaces statuses instead of duplicating
// rows.
func (r *AttendanceRepository) BulkUpsert(ctx context.Context, records []models.AttendanceRecord, grants []models.CreditGrant) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin attendance save: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	const upsert = `INSERT INTO attendance (id, offering_id, student_id, date, status, notes, credit_awarded, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (offering_id, student_id, date)
DO UPDATE SET status = EXCLUDED.status, notes = EXCLUDED.notes,
        credit_awarded = EXCLUDED.credit_awarded, updated_at = EXCLUDED.updated_at`
	for i := range records {
		rec := &records[i]
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		rec.UpdatedAt = now
		if _, err := tx.ExecContext(ctx, upsert, rec.ID, rec.OfferingID, rec.StudentID, rec.Date,
			rec.Status, rec.Notes, rec.CreditAwarded, rec.CreatedAt, rec.UpdatedAt); err != nil {
			return fmt.Errorf("upsert attendance: %w", err)
		}
	}

	const grantInsert = `INSERT INTO credits (id, student_id, offering_id, type, amount, earned_date, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for i := range grants {
		g := &grants[i]
		if g.ID == "" {
			g.ID = uuid.NewString()
		}
		if g.CreatedAt.IsZero() {
			g.CreatedAt = now
		}
		if _, err := tx.ExecContext(ctx, grantInsert, g.ID, g.StudentID, g.OfferingID, g.Type, g.Amount, g.EarnedDate, g.CreatedAt); err != nil {
			return fmt.Errorf("insert credit grant: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit attendance save: %w", err)
	}
	commit = true
	return nil
}

// UpdateStatus rewrites one record's status and derived credit. Credit
// grants issued earlier are left untouched.
func (r *AttendanceRepository) UpdateStatus(ctx context.Context, id string, status models.AttendanceStatus, credit float64) error {
	const query = `UPDATE attendance SET status = $2, credit_awarded = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, credit, time.Now().UTC()); err != nil {
		return fmt.Errorf("update attendance status: %w", err)
	}
	return nil
}

// Stats aggregates per-status counts for an offering over a date range.
func (r *AttendanceRepository) Stats(ctx context.Context, offeringID string, from, to *time.Time) (*models.AttendanceStats, error) {
	query := `SELECT
        COUNT(*) FILTER (WHERE status = 'PRESENT') AS present,
        COUNT(*) FILTER (WHERE status = 'ABSENT') AS absent,
        COUNT(*) FILTER (WHERE status = 'LATE') AS late,
        COUNT(*) FILTER (WHERE status = 'EXCUSED') AS excused,
        COUNT(*) AS total
        FROM attendance WHERE offering_id = $1`
	args := []interface{}{offeringID}
	if from != nil {
		query += fmt.Sprintf(" AND date >= $%d", len(args)+1)
		args = append(args, *from)
	}
	if to != nil {
		query += fmt.Sprintf(" AND date <= $%d", len(args)+1)
		args = append(args, *to)
	}
	var stats models.AttendanceStats
	if err := r.db.GetContext(ctx, &stats, query, args...); err != nil {
		return nil, fmt.Errorf("attendance stats: %w", err)
	}
	return &stats, nil
}
