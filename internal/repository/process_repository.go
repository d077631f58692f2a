package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/certpath/certpath-api/internal/models"
)

const processColumns = `id, student_id, current_stage, wants_physical, tracking_code,
welcome_at, exam_in_progress_at, documents_requested_at, documents_under_review_at,
certifier_submission_at, digital_certificate_sent_at, physical_certificate_sent_at,
completed_at, created_at, updated_at`

// ProcessRepository persists certification processes.
type ProcessRepository struct {
	db *sqlx.DB
}

// NewProcessRepository constructs the repository.
func NewProcessRepository(db *sqlx.DB) *ProcessRepository {
	return &ProcessRepository{db: db}
}

// Create inserts a new process. The unique index on student_id enforces at
// most one process per student.
func (r *ProcessRepository) Create(ctx context.Context, process *models.CertificationProcess) error {
	if process.ID == "" {
		process.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	process.CreatedAt = now
	process.UpdatedAt = now
	const query = `INSERT INTO certification_processes
(id, student_id, current_stage, wants_physical, tracking_code,
 welcome_at, exam_in_progress_at, documents_requested_at, documents_under_review_at,
 certifier_submission_at, digital_certificate_sent_at, physical_certificate_sent_at,
 completed_at, created_at, updated_at)
VALUES (:id, :student_id, :current_stage, :wants_physical, :tracking_code,
 :welcome_at, :exam_in_progress_at, :documents_requested_at, :documents_under_review_at,
 :certifier_submission_at, :digital_certificate_sent_at, :physical_certificate_sent_at,
 :completed_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, process); err != nil {
		return fmt.Errorf("create certification process: %w", err)
	}
	return nil
}

// GetByStudentID fetches the process owned by a student.
func (r *ProcessRepository) GetByStudentID(ctx context.Context, studentID string) (*models.CertificationProcess, error) {
	query := fmt.Sprintf(`SELECT %s FROM certification_processes WHERE student_id = $1`, processColumns)
	var process models.CertificationProcess
	if err := r.db.GetContext(ctx, &process, query, studentID); err != nil {
		return nil, err
	}
	return &process, nil
}

// UpdateLocked applies mutate to the student's process inside a transaction
// holding a row lock, so two administrators can never interleave writes on
// the same record.
func (r *ProcessRepository) UpdateLocked(ctx context.Context, studentID string, mutate func(*models.CertificationProcess) error) (*models.CertificationProcess, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin process update tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := fmt.Sprintf(`SELECT %s FROM certification_processes WHERE student_id = $1 FOR UPDATE`, processColumns)
	var process models.CertificationProcess
	if err := tx.GetContext(ctx, &process, query, studentID); err != nil {
		return nil, err
	}

	if err := mutate(&process); err != nil {
		return nil, err
	}
	process.UpdatedAt = time.Now().UTC()

	const update = `UPDATE certification_processes SET
current_stage = :current_stage, wants_physical = :wants_physical, tracking_code = :tracking_code,
welcome_at = :welcome_at, exam_in_progress_at = :exam_in_progress_at,
documents_requested_at = :documents_requested_at, documents_under_review_at = :documents_under_review_at,
certifier_submission_at = :certifier_submission_at, digital_certificate_sent_at = :digital_certificate_sent_at,
physical_certificate_sent_at = :physical_certificate_sent_at, completed_at = :completed_at,
updated_at = :updated_at
WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, update, &process); err != nil {
		return nil, fmt.Errorf("update certification process: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit process update tx: %w", err)
	}
	return &process, nil
}

// ProcessRow joins a process with the owning student for dashboard listings.
type ProcessRow struct {
	models.CertificationProcess
	StudentName string `db:"student_name"`
}

// List returns processes with student names applying the filter.
func (r *ProcessRepository) List(ctx context.Context, filter models.ProcessFilter) ([]ProcessRow, int, error) {
	conditions := []string{"1=1"}
	args := map[string]interface{}{}

	if filter.Stage != "" {
		conditions = append(conditions, "p.current_stage = :stage")
		args["stage"] = string(filter.Stage)
	}
	if filter.Search != "" {
		conditions = append(conditions, "s.full_name ILIKE :search")
		args["search"] = "%" + filter.Search + "%"
	}

	where := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM certification_processes p
JOIN students s ON s.id = p.student_id WHERE %s`, where)
	query, queryArgs, err := sqlx.Named(countQuery, args)
	if err != nil {
		return nil, 0, fmt.Errorf("build process count query: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(query), queryArgs...); err != nil {
		return nil, 0, fmt.Errorf("count processes: %w", err)
	}

	sortBy := "p.updated_at"
	if filter.SortBy == "student_name" {
		sortBy = "s.full_name"
	}
	sortOrder := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		sortOrder = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	args["limit"] = pageSize
	args["offset"] = (page - 1) * pageSize

	listQuery := fmt.Sprintf(`SELECT p.*, s.full_name AS student_name
FROM certification_processes p
JOIN students s ON s.id = p.student_id
WHERE %s ORDER BY %s %s LIMIT :limit OFFSET :offset`, where, sortBy, sortOrder)
	query, queryArgs, err = sqlx.Named(listQuery, args)
	if err != nil {
		return nil, 0, fmt.Errorf("build process list query: %w", err)
	}
	var rows []ProcessRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), queryArgs...); err != nil {
		return nil, 0, fmt.Errorf("list processes: %w", err)
	}
	return rows, total, nil
}
