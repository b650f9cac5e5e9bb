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

// EnrollmentRepository handles persistence of enrollments and the batched
// writes that keep offering counters in step with enrollment rows.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentColumns = `id, student_id, offering_id, status, waitlist_position, enrolled_at, updated_at`

// List returns enrollments filtered by the provided criteria.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	base := `FROM enrollments e
LEFT JOIN users u ON u.id = e.student_id`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.OfferingID != "" {
		conditions = append(conditions, fmt.Sprintf("e.offering_id = $%d", len(args)+1))
		args = append(args, filter.OfferingID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"enrolled_at":  "e.enrolled_at",
		"student_name": "u.display_name",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "e.enrolled_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
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

	query := fmt.Sprintf(`SELECT e.id, e.student_id, e.offering_id, e.status, e.waitlist_position,
        e.enrolled_at, e.updated_at,
        COALESCE(u.display_name, '') AS student_name,
        COALESCE(u.email, '') AS student_email,
        COALESCE(u.external_id, '') AS student_external_id
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	query := fmt.Sprintf("SELECT %s FROM enrollments WHERE id = $1", enrollmentColumns)
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindByStudentAndOffering returns the single enrollment for the pair.
func (r *EnrollmentRepository) FindByStudentAndOffering(ctx context.Context, studentID, offeringID string) (*models.Enrollment, error) {
	query := fmt.Sprintf("SELECT %s FROM enrollments WHERE student_id = $1 AND offering_id = $2", enrollmentColumns)
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, studentID, offeringID); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// Exists checks whether any enrollment exists for the (student, offering)
// pair regardless of status.
func (r *EnrollmentRepository) Exists(ctx context.Context, studentID, offeringID string) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE student_id = $1 AND offering_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, offeringID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment exists: %w", err)
	}
	return true, nil
}

// Create persists a new enrollment record.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	now := time.Now().UTC()
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = now
	}
	enrollment.UpdatedAt = now
	const query = `INSERT INTO enrollments (id, student_id, offering_id, status, waitlist_position, enrolled_at, updated_at)
        VALUES (:id, :student_id, :offering_id, :status, :waitlist_position, :enrolled_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// CreateWaitlisted persists a waitlisted enrollment and bumps the offering's
// waitlist counter in one batched write, so a failed insert cannot strand
// the counter.
func (r *EnrollmentRepository) CreateWaitlisted(ctx context.Context, enrollment *models.Enrollment) error {
	now := time.Now().UTC()
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = now
	}
	enrollment.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin waitlist enrollment: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()

	const insert = `INSERT INTO enrollments (id, student_id, offering_id, status, waitlist_position, enrolled_at, updated_at)
        VALUES (:id, :student_id, :offering_id, :status, :waitlist_position, :enrolled_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insert, enrollment); err != nil {
		return fmt.Errorf("create waitlisted enrollment: %w", err)
	}

	const bump = `UPDATE offerings SET waitlist_count = waitlist_count + 1, updated_at = $2 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, bump, enrollment.OfferingID, now); err != nil {
		return fmt.Errorf("bump waitlist counter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit waitlist enrollment: %w", err)
	}
	commit = true
	return nil
}

// UpdateStatus updates status and waitlist position for an enrollment.
func (r *EnrollmentRepository) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus, waitlistPosition *int) error {
	const query = `UPDATE enrollments SET status = $2, waitlist_position = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, waitlistPosition, time.Now().UTC()); err != nil {
		return fmt.Errorf("update enrollment status: %w", err)
	}
	return nil
}

// Approve promotes a waitlisted enrollment in one batched write: the seat
// claim, the status flip and the waitlist counter decrement either all land
// or none do. Returns sql.ErrNoRows when no seat is open.
func (r *EnrollmentRepository) Approve(ctx context.Context, offeringID, enrollmentID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin approve: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	const claim = `UPDATE offerings SET
        current_enrollment = current_enrollment + 1,
        waitlist_count = GREATEST(waitlist_count - 1, 0),
        updated_at = $2
        WHERE id = $1 AND current_enrollment < capacity
        RETURNING current_enrollment`
	var current int
	if err := tx.GetContext(ctx, &current, claim, offeringID, now); err != nil {
		return err
	}

	const flip = `UPDATE enrollments SET status = $2, waitlist_position = NULL, updated_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, flip, enrollmentID, models.EnrollmentStatusEnrolled, now); err != nil {
		return fmt.Errorf("approve enrollment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit approve: %w", err)
	}
	commit = true
	return nil
}

// ListByOfferingAndStatus returns detail projections for one offering
// ordered by enrollment time ascending (first come, first served).
func (r *EnrollmentRepository) ListByOfferingAndStatus(ctx context.Context, offeringID string, status models.EnrollmentStatus) ([]models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.student_id, e.offering_id, e.status, e.waitlist_position,
        e.enrolled_at, e.updated_at,
        COALESCE(u.display_name, '') AS student_name,
        COALESCE(u.email, '') AS student_email,
        COALESCE(u.external_id, '') AS student_external_id
        FROM enrollments e
        LEFT JOIN users u ON u.id = e.student_id
        WHERE e.offering_id = $1 AND e.status = $2
        ORDER BY e.enrolled_at ASC`
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, offeringID, status); err != nil {
		return nil, fmt.Errorf("list offering enrollments: %w", err)
	}
	return enrollments, nil
}

// ListEnrolledByStudent returns the active enrollments used by the schedule
// composer, joined with their offering definitions.
func (r *EnrollmentRepository) ListEnrolledByStudent(ctx context.Context, studentID string) ([]models.Offering, error) {
	const query = `SELECT o.id, o.title, o.description, o.owner_id, o.period, o.days_of_week,
        o.capacity, o.current_enrollment, o.waitlist_count, o.status, o.created_at, o.updated_at
        FROM enrollments e
        JOIN offerings o ON o.id = e.offering_id
        WHERE e.student_id = $1 AND e.status = $2`
	var offerings []models.Offering
	if err := r.db.SelectContext(ctx, &offerings, query, studentID, models.EnrollmentStatusEnrolled); err != nil {
		return nil, fmt.Errorf("list student offerings: %w", err)
	}
	return offerings, nil
}

// CountByOfferingAndStatus counts enrollments per status for one offering.
func (r *EnrollmentRepository) CountByOfferingAndStatus(ctx context.Context, offeringID string, status models.EnrollmentStatus) (int, error) {
	const query = `SELECT COUNT(*) FROM enrollments WHERE offering_id = $1 AND status = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, offeringID, status); err != nil {
		return 0, fmt.Errorf("count enrollments by status: %w", err)
	}
	return count, nil
}
