package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Sistersocrates/secure-eduflexscheduler-sub001/internal/models"
	appErrors "github.com/Sistersocrates/secure-eduflexscheduler-sub001/pkg/errors"
)

type attendanceRepository interface {
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecordDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.AttendanceRecord, error)
	BulkUpsert(ctx context.Context, records []models.AttendanceRecord, grants []models.CreditGrant) error
	UpdateStatus(ctx context.Context, id string, status models.AttendanceStatus, credit float64) error
	Stats(ctx context.Context, offeringID string, from, to *time.Time) (*models.AttendanceStats, error)
}

type rosterReader interface {
	ListByOfferingAndStatus(ctx context.Context, offeringID string, status models.EnrollmentStatus) ([]models.EnrollmentDetail, error)
}

type offeringReader interface {
	FindByID(ctx context.Context, id string) (*models.Offering, error)
}

// AttendanceService records per-day attendance sheets, derives credit from
// status and aggregates historical stats.
type AttendanceService struct {
	repo      attendanceRepository
	roster    rosterReader
	offerings offeringReader
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(repo attendanceRepository, roster rosterReader, offerings offeringReader,
	audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AttendanceService{repo: repo, roster: roster, offerings: offerings, audit: audit, validator: validate, logger: logger}
	svc.validator.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		return models.AttendanceStatus(strings.ToUpper(fl.Field().String())).Valid()
	})
	return svc
}

// AttendanceEntry holds one student's submitted status.
type AttendanceEntry struct {
	StudentID string  `json:"student_id" validate:"required"`
	Status    string  `json:"status" validate:"required,attendance_status"`
	Notes     *string `json:"notes"`
}

// RecordAttendanceRequest describes a full sheet for one offering and date.
type RecordAttendanceRequest struct {
	OfferingID string            `json:"offering_id" validate:"required"`
	Date       string            `json:"date" validate:"required"`
	Entries    []AttendanceEntry `json:"entries" validate:"dive"`
}

// UpdateAttendanceRequest rewrites one record's status.
type UpdateAttendanceRequest struct {
	Status string `json:"status" validate:"required,attendance_status"`
}

// AttendanceListRequest filters attendance listings.
type AttendanceListRequest struct {
	OfferingID string     `json:"offering_id"`
	StudentID  string     `json:"student_id"`
	Status     *string    `json:"status" validate:"omitempty,attendance_status"`
	DateFrom   *time.Time `json:"date_from"`
	DateTo     *time.Time `json:"date_to"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	SortBy     string     `json:"sort_by"`
	SortOrder  string     `json:"sort_order"`
}

// Record saves one attendance sheet. Every student on the offering's current
// roster receives a record for the date; roster students missing from the
// submitted entries default to absent. A credit grant is issued only for
// present students. The whole sheet lands in one all-or-nothing write.
func (s *AttendanceService) Record(ctx context.Context, actorID string, req RecordAttendanceRequest) ([]models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	date, err := parseDay(req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date, expected YYYY-MM-DD")
	}
	if _, err := s.ownedOffering(ctx, actorID, req.OfferingID); err != nil {
		return nil, err
	}
	roster, err := s.roster.ListByOfferingAndStatus(ctx, req.OfferingID, models.EnrollmentStatusEnrolled)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	if len(roster) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "offering has no enrolled students")
	}

	submitted := make(map[string]AttendanceEntry, len(req.Entries))
	for _, entry := range req.Entries {
		submitted[entry.StudentID] = entry
	}

	records := make([]models.AttendanceRecord, 0, len(roster))
	grants := make([]models.CreditGrant, 0, len(roster))
	for _, member := range roster {
		status := models.AttendanceStatusAbsent
		var notes *string
		if entry, ok := submitted[member.StudentID]; ok {
			status = models.AttendanceStatus(strings.ToUpper(entry.Status))
			notes = entry.Notes
		}
		credit := status.Credit()
		records = append(records, models.AttendanceRecord{
			OfferingID:    req.OfferingID,
			StudentID:     member.StudentID,
			Date:          date,
			Status:        status,
			Notes:         notes,
			CreditAwarded: credit,
		})
		if status == models.AttendanceStatusPresent {
			grants = append(grants, models.CreditGrant{
				StudentID:  member.StudentID,
				OfferingID: req.OfferingID,
				Type:       models.CreditTypeAttendance,
				Amount:     credit,
				EarnedDate: date,
			})
		}
	}

	if err := s.repo.BulkUpsert(ctx, records, grants); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save attendance")
	}

	if s.audit != nil {
		s.audit.Record(actorID, models.AuditActionAttendanceSave, "attendance", req.OfferingID, map[string]interface{}{
			"date":    req.Date,
			"records": len(records),
			"grants":  len(grants),
		})
	}
	return records, nil
}

// List returns paginated attendance records.
func (s *AttendanceService) List(ctx context.Context, req AttendanceListRequest) ([]models.AttendanceRecordDetail, *models.Pagination, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid filter")
	}
	var status *models.AttendanceStatus
	if req.Status != nil {
		st := models.AttendanceStatus(strings.ToUpper(*req.Status))
		status = &st
	}
	filter := models.AttendanceFilter{
		OfferingID: req.OfferingID,
		StudentID:  req.StudentID,
		Status:     status,
		DateFrom:   req.DateFrom,
		DateTo:     req.DateTo,
		Page:       req.Page,
		PageSize:   req.PageSize,
		SortBy:     req.SortBy,
		SortOrder:  req.SortOrder,
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return rows, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Stats aggregates per-status counts and the attendance rate over a range.
// The rate is 0 when no records exist.
func (s *AttendanceService) Stats(ctx context.Context, offeringID string, from, to *time.Time) (*models.AttendanceStats, error) {
	if _, err := s.offerings.FindByID(ctx, offeringID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "offering not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering")
	}
	stats, err := s.repo.Stats(ctx, offeringID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate attendance")
	}
	if stats.Total > 0 {
		stats.Rate = float64(stats.Present) / float64(stats.Total)
	}
	return stats, nil
}

// UpdateRecord rewrites one record's status and recomputes its credit.
// Credit grants already issued for the old status are not adjusted.
func (s *AttendanceService) UpdateRecord(ctx context.Context, actorID, attendanceID string, req UpdateAttendanceRequest) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	record, err := s.repo.FindByID(ctx, attendanceID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance record")
	}
	if _, err := s.ownedOffering(ctx, actorID, record.OfferingID); err != nil {
		return nil, err
	}
	status := models.AttendanceStatus(strings.ToUpper(req.Status))
	credit := status.Credit()
	if err := s.repo.UpdateStatus(ctx, attendanceID, status, credit); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update attendance record")
	}
	if s.audit != nil {
		s.audit.Record(actorID, models.AuditActionAttendanceSave, "attendance", attendanceID, map[string]interface{}{
			"from": record.Status,
			"to":   status,
		})
	}
	record.Status = status
	record.CreditAwarded = credit
	return record, nil
}

// ownedOffering loads an offering and enforces that the actor owns it.
// Attendance is a credit-issuing write, so only the owner may record it.
func (s *AttendanceService) ownedOffering(ctx context.Context, actorID, offeringID string) (*models.Offering, error) {
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
	return offering, nil
}

func parseDay(raw string) (time.Time, error) {
	return time.Parse("2006-01-02", raw)
}
