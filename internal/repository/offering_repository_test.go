package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/Sistersocrates/secure-eduflexscheduler-sub001/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestOfferingRepositoryClaimSeatSucceedsWhenOpen(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewOfferingRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE offerings SET current_enrollment = current_enrollment + 1")).
		WithArgs("off-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"current_enrollment"}).AddRow(5))

	claimed, current, err := repo.ClaimSeat(context.Background(), "off-1")
	require.NoError(t, err)
	require.True(t, claimed)
	require.Equal(t, 5, current)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferingRepositoryClaimSeatFailsWhenFull(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewOfferingRepository(db)
	// The conditional update matches no row at capacity.
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE offerings SET current_enrollment = current_enrollment + 1")).
		WithArgs("off-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"current_enrollment"}))

	claimed, _, err := repo.ClaimSeat(context.Background(), "off-1")
	require.NoError(t, err)
	require.False(t, claimed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferingRepositoryAdjustCountersClampsAtZero(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewOfferingRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("GREATEST(current_enrollment + $2, 0)")).
		WithArgs("off-1", -1, 0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.AdjustCounters(context.Background(), "off-1", -1, 0))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferingRepositoryCreateDefaultsToDraft(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewOfferingRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO offerings")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	offering := &models.Offering{
		Title:      "Robotics Seminar",
		OwnerID:    "teacher-1",
		Period:     3,
		DaysOfWeek: pq.Int64Array{1, 3},
		Capacity:   12,
	}
	require.NoError(t, repo.Create(context.Background(), offering))
	require.NotEmpty(t, offering.ID)
	require.Equal(t, models.OfferingStatusDraft, offering.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferingRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewOfferingRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "title", "description", "owner_id", "period", "days_of_week",
		"capacity", "current_enrollment", "waitlist_count", "status", "created_at", "updated_at"}).
		AddRow("off-1", "Robotics Seminar", "", "teacher-1", 3, "{1,3}", 12, 4, 0, "PUBLISHED", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, description, owner_id, period, days_of_week")).
		WithArgs("off-1").
		WillReturnRows(rows)

	offering, err := repo.FindByID(context.Background(), "off-1")
	require.NoError(t, err)
	require.Equal(t, "off-1", offering.ID)
	require.Equal(t, models.Period(3), offering.Period)
	require.True(t, offering.MeetsOn(time.Monday))
	require.False(t, offering.MeetsOn(time.Tuesday))
	require.NoError(t, mock.ExpectationsWereMet())
}
