package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodForHourCoversInstructionalDay(t *testing.T) {
	for hour := 8; hour < 15; hour++ {
		period, ok := PeriodForHour(hour)
		require.True(t, ok, "hour %d should map to a period", hour)
		assert.Equal(t, Period(hour-7), period)

		start, end, ok := TimeRangeForPeriod(period)
		require.True(t, ok)
		assert.Equal(t, hour, start)
		assert.Equal(t, hour+1, end)
	}
}

func TestPeriodForHourRejectsOffGridHours(t *testing.T) {
	for _, hour := range []int{0, 7, 15, 23} {
		_, ok := PeriodForHour(hour)
		assert.False(t, ok, "hour %d should be off the grid", hour)
	}
}

func TestTimeRangeForPeriodRejectsInvalidPeriods(t *testing.T) {
	for _, p := range []Period{0, -1, 8} {
		_, _, ok := TimeRangeForPeriod(p)
		assert.False(t, ok)
	}
}

func TestPeriodValid(t *testing.T) {
	assert.True(t, Period(1).Valid())
	assert.True(t, Period(7).Valid())
	assert.False(t, Period(0).Valid())
	assert.False(t, Period(8).Valid())
}

func TestAttendanceStatusCredit(t *testing.T) {
	assert.Equal(t, 1.0, AttendanceStatusPresent.Credit())
	assert.Equal(t, 0.8, AttendanceStatusLate.Credit())
	assert.Equal(t, 0.5, AttendanceStatusExcused.Credit())
	assert.Equal(t, 0.0, AttendanceStatusAbsent.Credit())
}

func TestEnrollmentStatusTransitions(t *testing.T) {
	assert.True(t, EnrollmentStatusWaitlisted.CanTransition(EnrollmentStatusEnrolled))
	assert.True(t, EnrollmentStatusWaitlisted.CanTransition(EnrollmentStatusDropped))
	assert.True(t, EnrollmentStatusEnrolled.CanTransition(EnrollmentStatusCompleted))
	assert.True(t, EnrollmentStatusEnrolled.CanTransition(EnrollmentStatusDropped))

	assert.False(t, EnrollmentStatusEnrolled.CanTransition(EnrollmentStatusWaitlisted))
	assert.False(t, EnrollmentStatusCompleted.CanTransition(EnrollmentStatusEnrolled))
	assert.False(t, EnrollmentStatusDropped.CanTransition(EnrollmentStatusEnrolled))
}

func TestAppointmentStatusTransitions(t *testing.T) {
	assert.True(t, AppointmentStatusRequested.CanTransition(AppointmentStatusScheduled))
	assert.True(t, AppointmentStatusScheduled.CanTransition(AppointmentStatusConfirmed))
	assert.True(t, AppointmentStatusConfirmed.CanTransition(AppointmentStatusCancelled))

	assert.False(t, AppointmentStatusRequested.CanTransition(AppointmentStatusConfirmed))
	assert.False(t, AppointmentStatusCancelled.CanTransition(AppointmentStatusScheduled))
}
