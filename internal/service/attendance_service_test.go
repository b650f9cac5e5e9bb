package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sistersocrates/secure-eduflexscheduler-sub001/internal/models"
	appErrors "github.com/Sistersocrates/secure-eduflexscheduler-sub001/pkg/errors"
)

type mockAttendanceRepo struct {
	records map[string]models.AttendanceRecord
	saved   []models.AttendanceRecord
	grants  []models.CreditGrant
	stats   models.AttendanceStats
	updated map[string]models.AttendanceStatus
}

func (m *mockAttendanceRepo) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecordDetail, int, error) {
	return nil, 0, nil
}

func (m *mockAttendanceRepo) FindByID(ctx context.Context, id string) (*models.AttendanceRecord, error) {
	if r, ok := m.records[id]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAttendanceRepo) BulkUpsert(ctx context.Context, records []models.AttendanceRecord, grants []models.CreditGrant) error {
	m.saved = append([]models.AttendanceRecord{}, records...)
	m.grants = append([]models.CreditGrant{}, grants...)
	return nil
}

func (m *mockAttendanceRepo) UpdateStatus(ctx context.Context, id string, status models.AttendanceStatus, credit float64) error {
	if m.updated == nil {
		m.updated = make(map[string]models.AttendanceStatus)
	}
	m.updated[id] = status
	return nil
}

func (m *mockAttendanceRepo) Stats(ctx context.Context, offeringID string, from, to *time.Time) (*models.AttendanceStats, error) {
	stats := m.stats
	return &stats, nil
}

func newAttendanceFixture(rosterStudents []string) (*AttendanceService, *mockAttendanceRepo, *mockAuditRecorder) {
	enrollRepo := &mockEnrollmentRepo{enrollments: make(map[string]models.Enrollment)}
	for i, studentID := range rosterStudents {
		id := "enr-" + studentID
		enrollRepo.enrollments[id] = models.Enrollment{
			ID: id, StudentID: studentID, OfferingID: "off-1",
			Status:     models.EnrollmentStatusEnrolled,
			EnrolledAt: time.Date(2026, 3, 1, 9, 0, i, 0, time.UTC),
		}
	}
	offeringRepo := &mockOfferingCounterRepo{offerings: map[string]models.Offering{
		"off-1": {ID: "off-1", OwnerID: "teacher-1", Status: models.OfferingStatusPublished, Capacity: 10},
	}}
	attendanceRepo := &mockAttendanceRepo{records: make(map[string]models.AttendanceRecord)}
	audit := &mockAuditRecorder{}
	svc := NewAttendanceService(attendanceRepo, enrollRepo, offeringRepo, audit, nil, nil)
	return svc, attendanceRepo, audit
}

func statusFor(records []models.AttendanceRecord, studentID string) (models.AttendanceStatus, float64) {
	for _, r := range records {
		if r.StudentID == studentID {
			return r.Status, r.CreditAwarded
		}
	}
	return "", -1
}

func TestRecordDerivesCreditFromStatus(t *testing.T) {
	svc, repo, audit := newAttendanceFixture([]string{"s1", "s2", "s3"})

	records, err := svc.Record(context.Background(), "teacher-1", RecordAttendanceRequest{
		OfferingID: "off-1",
		Date:       "2026-03-02",
		Entries: []AttendanceEntry{
			{StudentID: "s1", Status: "PRESENT"},
			{StudentID: "s2", Status: "ABSENT"},
			{StudentID: "s3", Status: "LATE"},
		},
	})
	require.NoError(t, err)
	require.Len(t, records, 3)

	status, credit := statusFor(records, "s1")
	assert.Equal(t, models.AttendanceStatusPresent, status)
	assert.Equal(t, 1.0, credit)

	status, credit = statusFor(records, "s2")
	assert.Equal(t, models.AttendanceStatusAbsent, status)
	assert.Equal(t, 0.0, credit)

	status, credit = statusFor(records, "s3")
	assert.Equal(t, models.AttendanceStatusLate, status)
	assert.Equal(t, 0.8, credit)

	// Only the present student earns a grant.
	require.Len(t, repo.grants, 1)
	assert.Equal(t, "s1", repo.grants[0].StudentID)
	assert.Equal(t, models.CreditTypeAttendance, repo.grants[0].Type)
	assert.Equal(t, 1.0, repo.grants[0].Amount)

	assert.Contains(t, audit.actions, models.AuditActionAttendanceSave)
}

func TestRecordDefaultsMissingStudentsToAbsent(t *testing.T) {
	svc, repo, _ := newAttendanceFixture([]string{"s1", "s2"})

	records, err := svc.Record(context.Background(), "teacher-1", RecordAttendanceRequest{
		OfferingID: "off-1",
		Date:       "2026-03-02",
		Entries:    []AttendanceEntry{{StudentID: "s1", Status: "present"}},
	})
	require.NoError(t, err)
	require.Len(t, records, 2)

	status, _ := statusFor(records, "s2")
	assert.Equal(t, models.AttendanceStatusAbsent, status)
	assert.Len(t, repo.grants, 1)
}

func TestRecordRejectsEmptyRoster(t *testing.T) {
	svc, _, _ := newAttendanceFixture(nil)

	_, err := svc.Record(context.Background(), "teacher-1", RecordAttendanceRequest{
		OfferingID: "off-1",
		Date:       "2026-03-02",
		Entries:    []AttendanceEntry{{StudentID: "s1", Status: "PRESENT"}},
	})
	require.Error(t, err)
}

func TestRecordRejectsBadDate(t *testing.T) {
	svc, _, _ := newAttendanceFixture([]string{"s1"})

	_, err := svc.Record(context.Background(), "teacher-1", RecordAttendanceRequest{
		OfferingID: "off-1",
		Date:       "03/02/2026",
		Entries:    []AttendanceEntry{{StudentID: "s1", Status: "PRESENT"}},
	})
	require.Error(t, err)
}

func TestRecordRejectsNonOwner(t *testing.T) {
	svc, repo, audit := newAttendanceFixture([]string{"s1"})

	_, err := svc.Record(context.Background(), "intruder-99", RecordAttendanceRequest{
		OfferingID: "off-1",
		Date:       "2026-03-02",
		Entries:    []AttendanceEntry{{StudentID: "s1", Status: "PRESENT"}},
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
	assert.Empty(t, repo.saved)
	assert.Empty(t, repo.grants)
	assert.Empty(t, audit.actions)
}

func TestUpdateRecordRejectsNonOwner(t *testing.T) {
	svc, repo, _ := newAttendanceFixture([]string{"s1"})
	repo.records["att-1"] = models.AttendanceRecord{
		ID: "att-1", OfferingID: "off-1", StudentID: "s1",
		Status: models.AttendanceStatusAbsent, CreditAwarded: 0,
	}

	_, err := svc.UpdateRecord(context.Background(), "intruder-99", "att-1", UpdateAttendanceRequest{Status: "EXCUSED"})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
	assert.Empty(t, repo.updated)
}

func TestStatsComputesRate(t *testing.T) {
	svc, repo, _ := newAttendanceFixture([]string{"s1"})
	repo.stats = models.AttendanceStats{Present: 3, Absent: 1, Total: 4}

	stats, err := svc.Stats(context.Background(), "off-1", nil, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, stats.Rate, 1e-9)
}

func TestStatsRateZeroWithoutRecords(t *testing.T) {
	svc, _, _ := newAttendanceFixture([]string{"s1"})

	stats, err := svc.Stats(context.Background(), "off-1", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, stats.Rate)
}

func TestUpdateRecordRecomputesCreditWithoutNewGrant(t *testing.T) {
	svc, repo, _ := newAttendanceFixture([]string{"s1"})
	repo.records["att-1"] = models.AttendanceRecord{
		ID: "att-1", OfferingID: "off-1", StudentID: "s1",
		Status: models.AttendanceStatusAbsent, CreditAwarded: 0,
	}

	record, err := svc.UpdateRecord(context.Background(), "teacher-1", "att-1", UpdateAttendanceRequest{Status: "EXCUSED"})
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceStatusExcused, record.Status)
	assert.Equal(t, 0.5, record.CreditAwarded)
	assert.Equal(t, models.AttendanceStatusExcused, repo.updated["att-1"])
	assert.Empty(t, repo.grants)
}
