package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Sistersocrates/secure-eduflexscheduler-sub001/internal/models"
	appErrors "github.com/Sistersocrates/secure-eduflexscheduler-sub001/pkg/errors"
)

type appointmentRepository interface {
	List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, int, error)
	FindByID(ctx context.Context, id string) (*models.Appointment, error)
	Create(ctx context.Context, appointment *models.Appointment) error
	UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus) error
}

// RequestAppointmentRequest describes an appointment request.
type RequestAppointmentRequest struct {
	StudentID    string    `json:"student_id" validate:"required"`
	SpecialistID string    `json:"specialist_id" validate:"required"`
	Title        string    `json:"title" validate:"required,min=3"`
	StartAt      time.Time `json:"start_at" validate:"required"`
	EndAt        time.Time `json:"end_at" validate:"required"`
}

// AppointmentService manages the appointment lifecycle. Appointments live
// off the weekly period grid; the schedule composer folds them in at read
// time, so every status change invalidates the student's cached schedule.
type AppointmentService struct {
	repo      appointmentRepository
	students  studentReader
	audit     auditRecorder
	schedules scheduleInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAppointmentService constructs AppointmentService.
func NewAppointmentService(
	repo appointmentRepository,
	students studentReader,
	audit auditRecorder,
	schedules scheduleInvalidator,
	validate *validator.Validate,
	logger *zap.Logger,
) *AppointmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AppointmentService{
		repo:      repo,
		students:  students,
		audit:     audit,
		schedules: schedules,
		validator: validate,
		logger:    logger,
	}
}

// List returns appointments with pagination metadata.
func (s *AppointmentService) List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, *models.Pagination, error) {
	appointments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list appointments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return appointments, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one appointment.
func (s *AppointmentService) Get(ctx context.Context, id string) (*models.Appointment, error) {
	appointment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "appointment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appointment")
	}
	return appointment, nil
}

// Request creates a new appointment in REQUESTED state.
func (s *AppointmentService) Request(ctx context.Context, actorID string, req RequestAppointmentRequest) (*models.Appointment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid appointment payload")
	}
	if !req.EndAt.After(req.StartAt) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "appointment must end after it starts")
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	appointment := &models.Appointment{
		StudentID:    req.StudentID,
		SpecialistID: req.SpecialistID,
		Title:        req.Title,
		StartAt:      req.StartAt,
		EndAt:        req.EndAt,
		Status:       models.AppointmentStatusRequested,
	}
	if err := s.repo.Create(ctx, appointment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create appointment")
	}
	s.invalidateSchedule(ctx, appointment.StudentID)
	if s.audit != nil {
		s.audit.Record(actorID, models.AuditActionAppointment, "appointment", appointment.ID, map[string]interface{}{
			"to": appointment.Status,
		})
	}
	return appointment, nil
}

// Schedule moves a requested appointment to SCHEDULED. Only the specialist
// on the appointment may do this.
func (s *AppointmentService) Schedule(ctx context.Context, actorID, id string) (*models.Appointment, error) {
	return s.transition(ctx, actorID, id, models.AppointmentStatusScheduled, true)
}

// Confirm moves a scheduled appointment to CONFIRMED.
func (s *AppointmentService) Confirm(ctx context.Context, actorID, id string) (*models.Appointment, error) {
	return s.transition(ctx, actorID, id, models.AppointmentStatusConfirmed, false)
}

// Cancel terminates an appointment from any live state.
func (s *AppointmentService) Cancel(ctx context.Context, actorID, id string) (*models.Appointment, error) {
	return s.transition(ctx, actorID, id, models.AppointmentStatusCancelled, false)
}

func (s *AppointmentService) transition(ctx context.Context, actorID, id string, to models.AppointmentStatus, specialistOnly bool) (*models.Appointment, error) {
	appointment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "appointment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appointment")
	}
	if specialistOnly {
		if appointment.SpecialistID != actorID {
			return nil, appErrors.ErrUnauthorized
		}
	} else if appointment.StudentID != actorID && appointment.SpecialistID != actorID {
		return nil, appErrors.ErrUnauthorized
	}
	if !appointment.Status.CanTransition(to) {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("cannot move appointment from %s to %s", appointment.Status, to))
	}
	if err := s.repo.UpdateStatus(ctx, id, to); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update appointment")
	}
	from := appointment.Status
	appointment.Status = to
	s.invalidateSchedule(ctx, appointment.StudentID)
	if s.audit != nil {
		s.audit.Record(actorID, models.AuditActionAppointment, "appointment", id, map[string]interface{}{
			"from": from,
			"to":   to,
		})
	}
	return appointment, nil
}

func (s *AppointmentService) invalidateSchedule(ctx context.Context, studentID string) {
	if s.schedules == nil {
		return
	}
	s.schedules.InvalidateStudent(ctx, studentID)
}
