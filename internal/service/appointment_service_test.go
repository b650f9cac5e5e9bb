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

type mockAppointmentRepo struct {
	appointments map[string]models.Appointment
	created      *models.Appointment
	status       map[string]models.AppointmentStatus
}

func (m *mockAppointmentRepo) List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, int, error) {
	return nil, 0, nil
}

func (m *mockAppointmentRepo) FindByID(ctx context.Context, id string) (*models.Appointment, error) {
	if a, ok := m.appointments[id]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAppointmentRepo) Create(ctx context.Context, appointment *models.Appointment) error {
	if m.appointments == nil {
		m.appointments = make(map[string]models.Appointment)
	}
	if appointment.ID == "" {
		appointment.ID = "new-appointment"
	}
	m.appointments[appointment.ID] = *appointment
	m.created = appointment
	return nil
}

func (m *mockAppointmentRepo) UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus) error {
	if m.status == nil {
		m.status = make(map[string]models.AppointmentStatus)
	}
	m.status[id] = status
	if a, ok := m.appointments[id]; ok {
		a.Status = status
		m.appointments[id] = a
	}
	return nil
}

type mockScheduleInvalidator struct {
	invalidated []string
}

func (m *mockScheduleInvalidator) InvalidateStudent(ctx context.Context, studentID string) {
	m.invalidated = append(m.invalidated, studentID)
}

func newAppointmentFixture() (*AppointmentService, *mockAppointmentRepo, *mockScheduleInvalidator) {
	repo := &mockAppointmentRepo{appointments: make(map[string]models.Appointment)}
	students := &mockStudentReader{users: map[string]models.User{
		"student-1": {ID: "student-1"},
	}}
	schedules := &mockScheduleInvalidator{}
	svc := NewAppointmentService(repo, students, &mockAuditRecorder{}, schedules, nil, nil)
	return svc, repo, schedules
}

func appointmentAt(status models.AppointmentStatus) models.Appointment {
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	return models.Appointment{
		ID: "apt-1", StudentID: "student-1", SpecialistID: "spec-1",
		Title: "Counseling", StartAt: start, EndAt: start.Add(time.Hour),
		Status: status,
	}
}

func TestRequestAppointment(t *testing.T) {
	svc, repo, schedules := newAppointmentFixture()
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	appointment, err := svc.Request(context.Background(), "student-1", RequestAppointmentRequest{
		StudentID: "student-1", SpecialistID: "spec-1", Title: "Counseling",
		StartAt: start, EndAt: start.Add(30 * time.Minute),
	})
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentStatusRequested, appointment.Status)
	assert.NotNil(t, repo.created)
	assert.Equal(t, []string{"student-1"}, schedules.invalidated)
}

func TestRequestAppointmentRejectsInvertedRange(t *testing.T) {
	svc, _, _ := newAppointmentFixture()
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	_, err := svc.Request(context.Background(), "student-1", RequestAppointmentRequest{
		StudentID: "student-1", SpecialistID: "spec-1", Title: "Counseling",
		StartAt: start, EndAt: start.Add(-time.Minute),
	})
	require.Error(t, err)
}

func TestScheduleRequiresSpecialist(t *testing.T) {
	svc, repo, _ := newAppointmentFixture()
	repo.appointments["apt-1"] = appointmentAt(models.AppointmentStatusRequested)

	_, err := svc.Schedule(context.Background(), "student-1", "apt-1")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)

	appointment, err := svc.Schedule(context.Background(), "spec-1", "apt-1")
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentStatusScheduled, appointment.Status)
}

func TestConfirmFollowsLifecycle(t *testing.T) {
	svc, repo, _ := newAppointmentFixture()
	repo.appointments["apt-1"] = appointmentAt(models.AppointmentStatusRequested)

	// Requested appointments cannot be confirmed directly.
	_, err := svc.Confirm(context.Background(), "student-1", "apt-1")
	require.Error(t, err)

	repo.appointments["apt-1"] = appointmentAt(models.AppointmentStatusScheduled)
	appointment, err := svc.Confirm(context.Background(), "student-1", "apt-1")
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentStatusConfirmed, appointment.Status)
}

func TestCancelIsTerminal(t *testing.T) {
	svc, repo, schedules := newAppointmentFixture()
	repo.appointments["apt-1"] = appointmentAt(models.AppointmentStatusConfirmed)

	appointment, err := svc.Cancel(context.Background(), "spec-1", "apt-1")
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentStatusCancelled, appointment.Status)
	assert.Contains(t, schedules.invalidated, "student-1")

	_, err = svc.Cancel(context.Background(), "spec-1", "apt-1")
	require.Error(t, err)
}

func TestCancelRequiresParticipant(t *testing.T) {
	svc, repo, _ := newAppointmentFixture()
	repo.appointments["apt-1"] = appointmentAt(models.AppointmentStatusScheduled)

	_, err := svc.Cancel(context.Background(), "intruder", "apt-1")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}
