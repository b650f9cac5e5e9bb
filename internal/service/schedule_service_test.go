package service

import (
	"context"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sistersocrates/secure-eduflexscheduler-sub001/internal/models"
)

type mockStudentOfferingReader struct {
	offerings []models.Offering
}

func (m *mockStudentOfferingReader) ListEnrolledByStudent(ctx context.Context, studentID string) ([]models.Offering, error) {
	return m.offerings, nil
}

type mockDayAppointmentReader struct {
	appointments []models.Appointment
}

func (m *mockDayAppointmentReader) ListByStudentAndDay(ctx context.Context, studentID string, day time.Time) ([]models.Appointment, error) {
	return m.appointments, nil
}

// 2026-03-02 is a Monday.
var testMonday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func TestScheduleForMergesOfferingsAndAppointments(t *testing.T) {
	offerings := &mockStudentOfferingReader{offerings: []models.Offering{
		{ID: "off-1", Title: "Robotics", Period: 3, DaysOfWeek: pq.Int64Array{1, 3}},
		{ID: "off-2", Title: "Choir", Period: 5, DaysOfWeek: pq.Int64Array{2}},
	}}
	appointments := &mockDayAppointmentReader{appointments: []models.Appointment{
		{
			ID: "apt-1", StudentID: "student-1", Title: "Counseling",
			StartAt: testMonday.Add(10*time.Hour + 30*time.Minute),
			EndAt:   testMonday.Add(11 * time.Hour),
			Status:  models.AppointmentStatusConfirmed,
		},
	}}
	svc := NewScheduleService(offerings, appointments, nil, 0, nil)

	schedule, err := svc.ScheduleFor(context.Background(), "student-1", testMonday)
	require.NoError(t, err)
	assert.Equal(t, 1, schedule.DayOfWeek)
	// Choir meets Tuesdays only; Monday has the seminar plus the appointment.
	require.Len(t, schedule.Items, 2)
	assert.Equal(t, models.ScheduleItemOffering, schedule.Items[0].Kind)
	assert.Equal(t, models.Period(3), schedule.Items[0].Period)
	assert.Equal(t, models.ScheduleItemAppointment, schedule.Items[1].Kind)
	// A 10:30 start falls in the 10:00 slot, period 3.
	assert.Equal(t, models.Period(3), schedule.Items[1].Period)
}

func TestScheduleForFreePeriodsCountsDistinctOccupied(t *testing.T) {
	offerings := &mockStudentOfferingReader{offerings: []models.Offering{
		{ID: "off-1", Title: "Robotics", Period: 3, DaysOfWeek: pq.Int64Array{1}},
	}}
	appointments := &mockDayAppointmentReader{appointments: []models.Appointment{
		{
			ID: "apt-1", StudentID: "student-1", Title: "Counseling",
			StartAt: testMonday.Add(10*time.Hour + 30*time.Minute),
			EndAt:   testMonday.Add(11 * time.Hour),
		},
	}}
	svc := NewScheduleService(offerings, appointments, nil, 0, nil)

	schedule, err := svc.ScheduleFor(context.Background(), "student-1", testMonday)
	require.NoError(t, err)
	// Both items collide in period 3: two items but only one occupied slot,
	// so six of the seven periods read as free.
	require.Len(t, schedule.Items, 2)
	assert.Equal(t, 6, schedule.FreePeriods)
}

func TestScheduleForSkipsOffGridAppointments(t *testing.T) {
	offerings := &mockStudentOfferingReader{}
	appointments := &mockDayAppointmentReader{appointments: []models.Appointment{
		{
			ID: "apt-1", StudentID: "student-1", Title: "Early meeting",
			StartAt: testMonday.Add(7 * time.Hour),
			EndAt:   testMonday.Add(7*time.Hour + 30*time.Minute),
		},
	}}
	svc := NewScheduleService(offerings, appointments, nil, 0, nil)

	schedule, err := svc.ScheduleFor(context.Background(), "student-1", testMonday)
	require.NoError(t, err)
	assert.Empty(t, schedule.Items)
	assert.Equal(t, models.PeriodCount, schedule.FreePeriods)
}

func TestScheduleForEmptyDay(t *testing.T) {
	svc := NewScheduleService(&mockStudentOfferingReader{}, &mockDayAppointmentReader{}, nil, 0, nil)

	schedule, err := svc.ScheduleFor(context.Background(), "student-1", testMonday)
	require.NoError(t, err)
	assert.Equal(t, "student-1", schedule.StudentID)
	assert.Empty(t, schedule.Items)
	assert.Equal(t, 7, schedule.FreePeriods)
}
