package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Sistersocrates/secure-eduflexscheduler-sub001/internal/models"
	appErrors "github.com/Sistersocrates/secure-eduflexscheduler-sub001/pkg/errors"
)

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	Exists(ctx context.Context, studentID, offeringID string) (bool, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	CreateWaitlisted(ctx context.Context, enrollment *models.Enrollment) error
	UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus, waitlistPosition *int) error
	Approve(ctx context.Context, offeringID, enrollmentID string) error
	ListByOfferingAndStatus(ctx context.Context, offeringID string, status models.EnrollmentStatus) ([]models.EnrollmentDetail, error)
}

type offeringCounterRepository interface {
	FindByID(ctx context.Context, id string) (*models.Offering, error)
	ClaimSeat(ctx context.Context, id string) (bool, int, error)
	AdjustCounters(ctx context.Context, id string, enrollmentDelta, waitlistDelta int) error
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type auditRecorder interface {
	Record(actorID, action, resourceType, resourceID string, details map[string]interface{})
}

type notifier interface {
	Notify(ctx context.Context, userID, title, body string) error
}

type scheduleInvalidator interface {
	InvalidateStudent(ctx context.Context, studentID string)
}

// EnrollRequest describes an enrollment creation payload.
type EnrollRequest struct {
	StudentID  string `json:"student_id" validate:"required"`
	OfferingID string `json:"offering_id" validate:"required"`
}

// EnrollmentService is the ledger for enrollments: it owns the denormalized
// offering counters, waitlist promotion and the enrollment state machine.
type EnrollmentService struct {
	repo          enrollmentRepository
	offerings     offeringCounterRepository
	students      studentReader
	audit         auditRecorder
	notifications notifier
	schedules     scheduleInvalidator
	metrics       *MetricsService
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, offerings offeringCounterRepository, students studentReader,
	audit auditRecorder, notifications notifier, schedules scheduleInvalidator, metrics *MetricsService,
	validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		repo:          repo,
		offerings:     offerings,
		students:      students,
		audit:         audit,
		notifications: notifications,
		schedules:     schedules,
		metrics:       metrics,
		validator:     validate,
		logger:        logger,
	}
}

// List returns enrollments with pagination metadata.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return enrollments, pagination, nil
}

// Enroll registers a student into an offering. When a seat is open the
// student is enrolled and the seat claimed atomically; otherwise the student
// is waitlisted. The waitlist position is derived from the enrollment
// counter, mirroring how positions were assigned historically.
func (s *EnrollmentService) Enroll(ctx context.Context, actorID string, req EnrollRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	offering, err := s.offerings.FindByID(ctx, req.OfferingID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "offering not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering")
	}
	if offering.Status != models.OfferingStatusPublished {
		return nil, appErrors.Clone(appErrors.ErrValidation, "offering is not open for enrollment")
	}
	exists, err := s.repo.Exists(ctx, req.StudentID, req.OfferingID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate enrollment")
	}
	if exists {
		return nil, appErrors.ErrAlreadyEnrolled
	}

	claimed, _, err := s.offerings.ClaimSeat(ctx, req.OfferingID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to claim seat")
	}

	enrollment := &models.Enrollment{StudentID: req.StudentID, OfferingID: req.OfferingID}
	if claimed {
		enrollment.Status = models.EnrollmentStatusEnrolled
		if err := s.repo.Create(ctx, enrollment); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
		}
	} else {
		current, err := s.offerings.FindByID(ctx, req.OfferingID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload offering")
		}
		position := current.CurrentEnrollment - current.Capacity + 1
		if position < 1 {
			position = 1
		}
		enrollment.Status = models.EnrollmentStatusWaitlisted
		enrollment.WaitlistPosition = &position
		// Row insert and counter bump land together or not at all.
		if err := s.repo.CreateWaitlisted(ctx, enrollment); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
		}
	}

	if s.metrics != nil {
		s.metrics.RecordEnrollment(string(enrollment.Status))
	}
	if s.schedules != nil {
		s.schedules.InvalidateStudent(ctx, req.StudentID)
	}
	if s.audit != nil {
		s.audit.Record(actorID, models.AuditActionEnroll, "enrollment", enrollment.ID, map[string]interface{}{
			"student_id":  req.StudentID,
			"offering_id": req.OfferingID,
			"status":      enrollment.Status,
		})
	}
	return enrollment, nil
}

// ApproveFromWaitlist promotes a waitlisted enrollment when a seat is open.
// The seat claim, status flip and counter updates land in one batched write.
func (s *EnrollmentService) ApproveFromWaitlist(ctx context.Context, actorID, offeringID, enrollmentID string) (*models.Enrollment, error) {
	offering, err := s.offerings.FindByID(ctx, offeringID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "offering not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering")
	}
	if offering.OwnerID != actorID {
		return nil, appErrors.ErrUnauthorized
	}
	enrollment, err := s.repo.FindByID(ctx, enrollmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.OfferingID != offeringID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "enrollment does not belong to offering")
	}
	if !enrollment.Status.CanTransition(models.EnrollmentStatusEnrolled) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("cannot approve enrollment in status %s", enrollment.Status))
	}

	if err := s.repo.Approve(ctx, offeringID, enrollmentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.ErrCapacityExceeded
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve enrollment")
	}

	if s.schedules != nil {
		s.schedules.InvalidateStudent(ctx, enrollment.StudentID)
	}
	if s.notifications != nil {
		title := "Enrollment approved"
		body := fmt.Sprintf("You have been enrolled in %s from the waitlist.", offering.Title)
		if err := s.notifications.Notify(ctx, enrollment.StudentID, title, body); err != nil {
			s.logger.Warn("approval notification failed",
				zap.String("enrollment_id", enrollmentID), zap.Error(err))
		}
	}
	if s.audit != nil {
		s.audit.Record(actorID, models.AuditActionWaitlistApprove, "enrollment", enrollmentID, map[string]interface{}{
			"offering_id": offeringID,
			"student_id":  enrollment.StudentID,
		})
	}

	return s.reload(ctx, enrollmentID)
}

// Drop removes a student from an offering or its waitlist. Terminal; the
// seat or waitlist slot is released.
func (s *EnrollmentService) Drop(ctx context.Context, actorID, enrollmentID string) (*models.Enrollment, error) {
	return s.transition(ctx, actorID, enrollmentID, models.EnrollmentStatusDropped, models.AuditActionEnrollmentDrop)
}

// Complete marks an enrolled student as having completed the offering. The
// seat is not released; completion is a bookkeeping state. The student's
// composed schedule no longer shows the offering, so the cache is dropped.
func (s *EnrollmentService) Complete(ctx context.Context, actorID, enrollmentID string) (*models.Enrollment, error) {
	return s.transition(ctx, actorID, enrollmentID, models.EnrollmentStatusCompleted, models.AuditActionEnrollmentComplete)
}

func (s *EnrollmentService) transition(ctx context.Context, actorID, enrollmentID string, to models.EnrollmentStatus, action string) (*models.Enrollment, error) {
	enrollment, err := s.repo.FindByID(ctx, enrollmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if !enrollment.Status.CanTransition(to) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("cannot move enrollment from %s to %s", enrollment.Status, to))
	}
	if err := s.repo.UpdateStatus(ctx, enrollmentID, to, nil); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment")
	}
	if to == models.EnrollmentStatusDropped {
		var enrollmentDelta, waitlistDelta int
		switch enrollment.Status {
		case models.EnrollmentStatusEnrolled:
			enrollmentDelta = -1
		case models.EnrollmentStatusWaitlisted:
			waitlistDelta = -1
		}
		if enrollmentDelta != 0 || waitlistDelta != 0 {
			if err := s.offerings.AdjustCounters(ctx, enrollment.OfferingID, enrollmentDelta, waitlistDelta); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to release seat")
			}
		}
	}
	if s.schedules != nil {
		s.schedules.InvalidateStudent(ctx, enrollment.StudentID)
	}
	if s.audit != nil {
		s.audit.Record(actorID, action, "enrollment", enrollmentID, map[string]interface{}{
			"from": enrollment.Status,
			"to":   to,
		})
	}
	return s.reload(ctx, enrollmentID)
}

// Roster returns enrolled students for an offering, first come first served.
func (s *EnrollmentService) Roster(ctx context.Context, offeringID string) ([]models.EnrollmentDetail, error) {
	return s.projection(ctx, offeringID, models.EnrollmentStatusEnrolled)
}

// Waitlist returns waitlisted students for an offering in enrollment order.
func (s *EnrollmentService) Waitlist(ctx context.Context, offeringID string) ([]models.EnrollmentDetail, error) {
	return s.projection(ctx, offeringID, models.EnrollmentStatusWaitlisted)
}

func (s *EnrollmentService) projection(ctx context.Context, offeringID string, status models.EnrollmentStatus) ([]models.EnrollmentDetail, error) {
	if _, err := s.offerings.FindByID(ctx, offeringID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "offering not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering")
	}
	details, err := s.repo.ListByOfferingAndStatus(ctx, offeringID, status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return details, nil
}

func (s *EnrollmentService) reload(ctx context.Context, id string) (*models.Enrollment, error) {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload enrollment")
	}
	return enrollment, nil
}
