package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/Sistersocrates/secure-eduflexscheduler-sub001/internal/models"
)

func TestEnrollmentRepositoryApproveClaimsSeatAndFlips(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE offerings SET")).
		WithArgs("off-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"current_enrollment"}).AddRow(3))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET status = $2, waitlist_position = NULL")).
		WithArgs("enr-1", models.EnrollmentStatusEnrolled, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Approve(context.Background(), "off-1", "enr-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryApproveRollsBackAtCapacity(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	mock.ExpectBegin()
	// No seat to claim: the conditional update returns no row.
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE offerings SET")).
		WithArgs("off-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"current_enrollment"}))
	mock.ExpectRollback()

	err := repo.Approve(context.Background(), "off-1", "enr-1")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryExists(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments")).
		WithArgs("student-1", "off-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(1))

	exists, err := repo.Exists(context.Background(), "student-1", "off-1")
	require.NoError(t, err)
	require.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCreateWaitlistedBumpsCounterInTx(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE offerings SET waitlist_count = waitlist_count + 1")).
		WithArgs("off-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	position := 1
	enrollment := &models.Enrollment{
		StudentID:        "student-2",
		OfferingID:       "off-1",
		Status:           models.EnrollmentStatusWaitlisted,
		WaitlistPosition: &position,
	}
	require.NoError(t, repo.CreateWaitlisted(context.Background(), enrollment))
	require.NotEmpty(t, enrollment.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCreateWaitlistedRollsBackOnInsertFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	mock.ExpectBegin()
	// A failed insert rolls back before the counter bump is attempted.
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments")).
		WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	enrollment := &models.Enrollment{
		StudentID:  "student-2",
		OfferingID: "off-1",
		Status:     models.EnrollmentStatusWaitlisted,
	}
	require.Error(t, repo.CreateWaitlisted(context.Background(), enrollment))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	enrollment := &models.Enrollment{
		StudentID:  "student-1",
		OfferingID: "off-1",
		Status:     models.EnrollmentStatusEnrolled,
	}
	require.NoError(t, repo.Create(context.Background(), enrollment))
	require.NotEmpty(t, enrollment.ID)
	require.False(t, enrollment.EnrolledAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}
