package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certpath/certpath-api/internal/models"
)

var processTestColumns = []string{
	"id", "student_id", "current_stage", "wants_physical", "tracking_code",
	"welcome_at", "exam_in_progress_at", "documents_requested_at", "documents_under_review_at",
	"certifier_submission_at", "digital_certificate_sent_at", "physical_certificate_sent_at",
	"completed_at", "created_at", "updated_at",
}

func newProcessRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func processRowValues(process *models.CertificationProcess) []driverValue {
	return []driverValue{
		process.ID, process.StudentID, string(process.CurrentStage), process.WantsPhysical, process.TrackingCode,
		process.WelcomeAt, process.ExamInProgressAt, process.DocumentsRequestedAt, process.DocumentsUnderReviewAt,
		process.CertifierSubmissionAt, process.DigitalCertSentAt, process.PhysicalCertSentAt,
		process.CompletedAt, process.CreatedAt, process.UpdatedAt,
	}
}

type driverValue = driver.Value

func sampleProcess() *models.CertificationProcess {
	welcome := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	return &models.CertificationProcess{
		ID:           "proc-1",
		StudentID:    "stu-1",
		CurrentStage: models.StageWelcome,
		WelcomeAt:    &welcome,
		CreatedAt:    welcome,
		UpdatedAt:    welcome,
	}
}

func TestProcessRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newProcessRepoMock(t)
	defer cleanup()
	repo := NewProcessRepository(db)

	mock.ExpectExec("INSERT INTO certification_processes").
		WillReturnResult(sqlmock.NewResult(1, 1))

	process := &models.CertificationProcess{
		StudentID:    "stu-1",
		CurrentStage: models.StageWelcome,
	}
	require.NoError(t, repo.Create(context.Background(), process))
	assert.NotEmpty(t, process.ID)
	assert.False(t, process.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessRepositoryGetByStudentID(t *testing.T) {
	db, mock, cleanup := newProcessRepoMock(t)
	defer cleanup()
	repo := NewProcessRepository(db)

	process := sampleProcess()
	rows := sqlmock.NewRows(processTestColumns).AddRow(processRowValues(process)...)
	mock.ExpectQuery("SELECT (.+) FROM certification_processes WHERE student_id").
		WithArgs("stu-1").
		WillReturnRows(rows)

	got, err := repo.GetByStudentID(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, "proc-1", got.ID)
	assert.Equal(t, models.StageWelcome, got.CurrentStage)
	require.NotNil(t, got.WelcomeAt)
}

func TestProcessRepositoryGetByStudentIDNotFound(t *testing.T) {
	db, mock, cleanup := newProcessRepoMock(t)
	defer cleanup()
	repo := NewProcessRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM certification_processes WHERE student_id").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByStudentID(context.Background(), "missing")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestProcessRepositoryUpdateLocked(t *testing.T) {
	db, mock, cleanup := newProcessRepoMock(t)
	defer cleanup()
	repo := NewProcessRepository(db)

	process := sampleProcess()
	rows := sqlmock.NewRows(processTestColumns).AddRow(processRowValues(process)...)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM certification_processes WHERE student_id = (.+) FOR UPDATE").
		WithArgs("stu-1").
		WillReturnRows(rows)
	mock.ExpectExec("UPDATE certification_processes SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	updated, err := repo.UpdateLocked(context.Background(), "stu-1", func(p *models.CertificationProcess) error {
		p.CurrentStage = models.StageExamInProgress
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, models.StageExamInProgress, updated.CurrentStage)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessRepositoryUpdateLockedMutateErrorRollsBack(t *testing.T) {
	db, mock, cleanup := newProcessRepoMock(t)
	defer cleanup()
	repo := NewProcessRepository(db)

	process := sampleProcess()
	rows := sqlmock.NewRows(processTestColumns).AddRow(processRowValues(process)...)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FOR UPDATE").
		WithArgs("stu-1").
		WillReturnRows(rows)
	mock.ExpectRollback()

	boom := errors.New("rejected")
	_, err := repo.UpdateLocked(context.Background(), "stu-1", func(*models.CertificationProcess) error {
		return boom
	})
	assert.True(t, errors.Is(err, boom))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessRepositoryList(t *testing.T) {
	db, mock, cleanup := newProcessRepoMock(t)
	defer cleanup()
	repo := NewProcessRepository(db)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	process := sampleProcess()
	columns := append(append([]string{}, processTestColumns...), "student_name")
	values := append(processRowValues(process), "Maria Silva")
	mock.ExpectQuery("SELECT p\\.\\*, s\\.full_name AS student_name").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(values...))

	rows, total, err := repo.List(context.Background(), models.ProcessFilter{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, rows, 1)
	assert.Equal(t, "Maria Silva", rows[0].StudentName)
	assert.Equal(t, "proc-1", rows[0].ID)
}

func TestProcessRepositoryListFiltersByStageAndSearch(t *testing.T) {
	db, mock, cleanup := newProcessRepoMock(t)
	defer cleanup()
	repo := NewProcessRepository(db)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("welcome", "%maria%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT p\\.\\*, s\\.full_name AS student_name").
		WithArgs("welcome", "%maria%", 20, 0).
		WillReturnRows(sqlmock.NewRows(append(append([]string{}, processTestColumns...), "student_name")))

	_, total, err := repo.List(context.Background(), models.ProcessFilter{
		Stage:    models.StageWelcome,
		Search:   "maria",
		Page:     1,
		PageSize: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	require.NoError(t, mock.ExpectationsWereMet())
}
