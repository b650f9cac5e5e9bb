package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Sistersocrates/secure-eduflexscheduler-sub001/internal/models"
	appErrors "github.com/Sistersocrates/secure-eduflexscheduler-sub001/pkg/errors"
)

type studentOfferingReader interface {
	ListEnrolledByStudent(ctx context.Context, studentID string) ([]models.Offering, error)
}

type dayAppointmentReader interface {
	ListByStudentAndDay(ctx context.Context, studentID string, day time.Time) ([]models.Appointment, error)
}

// ScheduleService composes a student's per-day, per-period view out of two
// heterogeneous sources: recurring weekly offering sessions and one-off
// dated appointments mapped onto the period grid by start hour.
type ScheduleService struct {
	enrollments  studentOfferingReader
	appointments dayAppointmentReader
	cache        *CacheService
	cacheTTL     time.Duration
	logger       *zap.Logger
}

// NewScheduleService constructs the schedule composer.
func NewScheduleService(enrollments studentOfferingReader, appointments dayAppointmentReader,
	cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		enrollments:  enrollments,
		appointments: appointments,
		cache:        cache,
		cacheTTL:     cacheTTL,
		logger:       logger,
	}
}

func scheduleCacheKey(studentID string, day time.Time) string {
	return fmt.Sprintf("schedule:%s:%s", studentID, day.Format("2006-01-02"))
}

// ScheduleFor returns the composed day view for a student on a calendar
// date. Items colliding in the same period are all returned; FreePeriods
// counts periods with no items at all, so a collision makes it undercount
// relative to the raw item count.
func (s *ScheduleService) ScheduleFor(ctx context.Context, studentID string, day time.Time) (*models.DaySchedule, error) {
	key := scheduleCacheKey(studentID, day)
	if s.cache != nil {
		var cached models.DaySchedule
		if hit, _ := s.cache.Get(ctx, key, &cached); hit {
			return &cached, nil
		}
	}

	weekday := day.Weekday()
	offerings, err := s.enrollments.ListEnrolledByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}

	items := make([]models.ScheduleItem, 0, len(offerings))
	for _, offering := range offerings {
		if !offering.MeetsOn(weekday) {
			continue
		}
		items = append(items, models.ScheduleItem{
			Kind:       models.ScheduleItemOffering,
			Period:     offering.Period,
			Title:      offering.Title,
			ResourceID: offering.ID,
		})
	}

	appointments, err := s.appointments.ListByStudentAndDay(ctx, studentID, day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appointments")
	}
	for _, appt := range appointments {
		period, ok := models.PeriodForHour(appt.StartAt.Hour())
		if !ok {
			// Outside the instructional day; not placeable on the grid.
			continue
		}
		start := appt.StartAt
		end := appt.EndAt
		items = append(items, models.ScheduleItem{
			Kind:       models.ScheduleItemAppointment,
			Period:     period,
			Title:      appt.Title,
			ResourceID: appt.ID,
			StartAt:    &start,
			EndAt:      &end,
		})
	}

	occupied := make(map[models.Period]struct{}, len(items))
	for _, item := range items {
		occupied[item.Period] = struct{}{}
	}

	schedule := &models.DaySchedule{
		StudentID:   studentID,
		Date:        time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC),
		DayOfWeek:   int(weekday),
		Items:       items,
		FreePeriods: models.PeriodCount - len(occupied),
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, schedule, s.cacheTTL); err != nil {
			s.logger.Debug("schedule cache write failed", zap.String("student_id", studentID), zap.Error(err))
		}
	}
	return schedule, nil
}

// InvalidateStudent drops all cached day views for a student. Called by the
// enrollment ledger and appointment workflows after mutations.
func (s *ScheduleService) InvalidateStudent(ctx context.Context, studentID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, fmt.Sprintf("schedule:%s:*", studentID)); err != nil {
		s.logger.Debug("schedule cache invalidation failed", zap.String("student_id", studentID), zap.Error(err))
	}
}
