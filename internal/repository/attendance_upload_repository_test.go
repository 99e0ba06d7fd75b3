package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-payroll-api/internal/models"
)

func TestAttendanceUploadRepositoryTransitionIsConditional(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewAttendanceUploadRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE attendance_uploads SET status = $1 WHERE id = $2 AND status = $3")).
		WithArgs(models.UploadStatusProcessing, "upload-1", models.UploadStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Transition(context.Background(), "upload-1", models.UploadStatusPending, models.UploadStatusProcessing))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE attendance_uploads SET status = $1 WHERE id = $2 AND status = $3")).
		WithArgs(models.UploadStatusProcessing, "upload-1", models.UploadStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Transition(context.Background(), "upload-1", models.UploadStatusPending, models.UploadStatusProcessing)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceUploadRepositoryMarkFailedLeavesTerminalBatches(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewAttendanceUploadRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE attendance_uploads SET status = $1, error_message = $2")).
		WithArgs(models.UploadStatusFailed, "row 3: unknown code", sqlmock.AnyArg(), "upload-1", models.UploadStatusPending, models.UploadStatusProcessing).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkFailed(context.Background(), "upload-1", "row 3: unknown code")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceUploadRepositoryMarkCompletedUsesExecutor(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewAttendanceUploadRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE attendance_uploads SET status = $1, records_count = $2")).
		WithArgs(models.UploadStatusCompleted, 42, sqlmock.AnyArg(), "upload-1", models.UploadStatusProcessing).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	require.NoError(t, repo.MarkCompleted(context.Background(), tx, "upload-1", 42))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}
