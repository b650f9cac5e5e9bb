package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Sistersocrates/secure-eduflexscheduler-sub001/internal/models"
	appErrors "github.com/Sistersocrates/secure-eduflexscheduler-sub001/pkg/errors"
	"github.com/Sistersocrates/secure-eduflexscheduler-sub001/pkg/export"
)

type attendanceLister interface {
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecordDetail, int, error)
}

// ReportService renders roster and attendance sheets as PDF documents for
// the owning teacher.
type ReportService struct {
	offerings  offeringReader
	roster     rosterReader
	attendance attendanceLister
	exporter   *export.PDFExporter
	logger     *zap.Logger
}

// NewReportService constructs ReportService.
func NewReportService(offerings offeringReader, roster rosterReader, attendance attendanceLister,
	exporter *export.PDFExporter, logger *zap.Logger) *ReportService {
	if exporter == nil {
		exporter = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		offerings:  offerings,
		roster:     roster,
		attendance: attendance,
		exporter:   exporter,
		logger:     logger,
	}
}

// RosterPDF renders the enrolled roster of an owner's offering.
func (s *ReportService) RosterPDF(ctx context.Context, actorID, offeringID string) ([]byte, string, error) {
	offering, err := s.ownedOffering(ctx, actorID, offeringID)
	if err != nil {
		return nil, "", err
	}
	roster, err := s.roster.ListByOfferingAndStatus(ctx, offeringID, models.EnrollmentStatusEnrolled)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}

	table := export.Table{Headers: []string{"Student", "Email", "Student ID", "Enrolled"}}
	for _, entry := range roster {
		table.Rows = append(table.Rows, map[string]string{
			"Student":    entry.StudentName,
			"Email":      entry.StudentEmail,
			"Student ID": entry.StudentExternalID,
			"Enrolled":   entry.EnrolledAt.Format("2006-01-02"),
		})
	}
	doc, err := s.exporter.Render(table, fmt.Sprintf("Roster: %s", offering.Title))
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster pdf")
	}
	filename := fmt.Sprintf("roster-%s.pdf", offeringID)
	return doc, filename, nil
}

// AttendancePDF renders an offering's attendance log for a date range.
func (s *ReportService) AttendancePDF(ctx context.Context, actorID, offeringID string, from, to *time.Time) ([]byte, string, error) {
	offering, err := s.ownedOffering(ctx, actorID, offeringID)
	if err != nil {
		return nil, "", err
	}
	records, _, err := s.attendance.List(ctx, models.AttendanceFilter{
		OfferingID: offeringID,
		DateFrom:   from,
		DateTo:     to,
		PageSize:   1000,
	})
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}

	table := export.Table{Headers: []string{"Date", "Student", "Status", "Credit"}}
	for _, record := range records {
		table.Rows = append(table.Rows, map[string]string{
			"Date":    record.Date.Format("2006-01-02"),
			"Student": record.StudentName,
			"Status":  string(record.Status),
			"Credit":  fmt.Sprintf("%.1f", record.CreditAwarded),
		})
	}
	doc, err := s.exporter.Render(table, fmt.Sprintf("Attendance: %s", offering.Title))
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render attendance pdf")
	}
	filename := fmt.Sprintf("attendance-%s.pdf", offeringID)
	return doc, filename, nil
}

func (s *ReportService) ownedOffering(ctx context.Context, actorID, offeringID string) (*models.Offering, error) {
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
