package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/Sistersocrates/secure-eduflexscheduler-sub001/internal/models"
)

func TestAttendanceRepositoryBulkUpsertWritesRecordsAndGrants(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	records := []models.AttendanceRecord{
		{OfferingID: "off-1", StudentID: "s1", Date: date, Status: models.AttendanceStatusPresent, CreditAwarded: 1.0},
		{OfferingID: "off-1", StudentID: "s2", Date: date, Status: models.AttendanceStatusAbsent, CreditAwarded: 0.0},
	}
	grants := []models.CreditGrant{
		{StudentID: "s1", OfferingID: "off-1", Type: models.CreditTypeAttendance, Amount: 1.0, EarnedDate: date},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (offering_id, student_id, date)")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (offering_id, student_id, date)")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO credits")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.BulkUpsert(context.Background(), records, grants))
	require.NotEmpty(t, records[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryBulkUpsertNoRecordsIsNoop(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	require.NoError(t, repo.BulkUpsert(context.Background(), nil, nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryStats(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	rows := sqlmock.NewRows([]string{"present", "absent", "late", "excused", "total"}).
		AddRow(6, 2, 1, 1, 10)
	mock.ExpectQuery(regexp.QuoteMeta("COUNT(*) FILTER (WHERE status = 'PRESENT')")).
		WithArgs("off-1").
		WillReturnRows(rows)

	stats, err := repo.Stats(context.Background(), "off-1", nil, nil)
	require.NoError(t, err)
	require.Equal(t, 6, stats.Present)
	require.Equal(t, 10, stats.Total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryStatsWithRange(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"present", "absent", "late", "excused", "total"}).
		AddRow(0, 0, 0, 0, 0)
	mock.ExpectQuery(regexp.QuoteMeta("COUNT(*) FILTER (WHERE status = 'PRESENT')")).
		WithArgs("off-1", from, to).
		WillReturnRows(rows)

	stats, err := repo.Stats(context.Background(), "off-1", &from, &to)
	require.NoError(t, err)
	require.Equal(t, 0, stats.Total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE attendance SET status = $2")).
		WithArgs("att-1", models.AttendanceStatusLate, 0.8, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "att-1", models.AttendanceStatusLate, 0.8))
	require.NoError(t, mock.ExpectationsWereMet())
}
