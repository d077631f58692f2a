package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/certpath/certpath-api/internal/dto"
	"github.com/certpath/certpath-api/internal/models"
	"github.com/certpath/certpath-api/internal/repository"
	"github.com/certpath/certpath-api/pkg/clock"
	appErrors "github.com/certpath/certpath-api/pkg/errors"
	"github.com/certpath/certpath-api/pkg/timeutil"
)

type processStore interface {
	Create(ctx context.Context, process *models.CertificationProcess) error
	GetByStudentID(ctx context.Context, studentID string) (*models.CertificationProcess, error)
	UpdateLocked(ctx context.Context, studentID string, mutate func(*models.CertificationProcess) error) (*models.CertificationProcess, error)
	List(ctx context.Context, filter models.ProcessFilter) ([]repository.ProcessRow, int, error)
}

type processStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type processAuditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type slaTableProvider interface {
	Table(ctx context.Context) map[models.StageID]models.SLAConfig
}

type slaObserver interface {
	ObserveSLAEvaluation(status models.SLAStatus)
}

// ProcessService orchestrates certification process mutations and views.
type ProcessService struct {
	repo      processStore
	students  processStudentReader
	audit     processAuditLogger
	sla       slaTableProvider
	lifecycle *LifecycleService
	timeline  *TimelineService
	metrics   slaObserver
	clock     clock.Clock
	location  *time.Location
	validator *validator.Validate
	logger    *zap.Logger
}

// ProcessServiceOption configures optional collaborators.
type ProcessServiceOption func(*ProcessService)

// WithProcessMetrics attaches an SLA evaluation observer.
func WithProcessMetrics(metrics slaObserver) ProcessServiceOption {
	return func(s *ProcessService) {
		s.metrics = metrics
	}
}

// NewProcessService constructs the service.
func NewProcessService(
	repo processStore,
	students processStudentReader,
	audit processAuditLogger,
	sla slaTableProvider,
	lifecycle *LifecycleService,
	timeline *TimelineService,
	clk clock.Clock,
	location *time.Location,
	validate *validator.Validate,
	logger *zap.Logger,
	opts ...ProcessServiceOption,
) *ProcessService {
	if clk == nil {
		clk = clock.System{}
	}
	if location == nil {
		location = time.UTC
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &ProcessService{
		repo:      repo,
		students:  students,
		audit:     audit,
		sla:       sla,
		lifecycle: lifecycle,
		timeline:  timeline,
		clock:     clk,
		location:  location,
		validator: validate,
		logger:    logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Start opens a certification process at the first stage, stamped with the
// current instant.
func (s *ProcessService) Start(ctx context.Context, studentID string, req dto.StartProcessRequest, actor *models.JWTClaims) (*models.CertificationProcess, error) {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	if _, err := s.repo.GetByStudentID(ctx, studentID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already has a certification process")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing process")
	}

	now := s.clock.Now()
	process := &models.CertificationProcess{
		StudentID:     studentID,
		CurrentStage:  models.StageWelcome,
		WantsPhysical: req.WantsPhysical,
		WelcomeAt:     &now,
	}
	if err := s.repo.Create(ctx, process); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create process")
	}

	newBytes, _ := json.Marshal(process)
	s.emitAudit(ctx, actor, models.AuditActionProcessCreate, process.ID, nil, newBytes)
	return process, nil
}

// View loads a process with its rendered timeline and SLA verdict.
func (s *ProcessService) View(ctx context.Context, studentID string) (*dto.ProcessView, error) {
	process, err := s.repo.GetByStudentID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "certification process not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load process")
	}

	evaluation := s.lifecycle.Evaluate(process, s.sla.Table(ctx))
	if s.metrics != nil {
		s.metrics.ObserveSLAEvaluation(evaluation.Status)
	}
	return &dto.ProcessView{
		Process:  *process,
		Timeline: s.timeline.Render(process),
		SLA:      evaluation,
	}, nil
}

// UpdateStatus moves the process to another stage and stamps the destination
// timestamp. Forward moves are the normal transition; moving backward is an
// administrative override that must be requested explicitly and is audited
// under a distinct action.
func (s *ProcessService) UpdateStatus(ctx context.Context, studentID string, req dto.UpdateStatusRequest, actor *models.JWTClaims) (*models.CertificationProcess, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}

	newStage := models.StageID(req.Stage)
	if !newStage.Valid() {
		return nil, appErrors.Clone(appErrors.ErrInvalidStage, "unknown stage: "+req.Stage)
	}

	stampAt := s.clock.Now()
	if req.Date != "" {
		parsed, err := timeutil.ParseInstant(req.Date, s.location)
		if err != nil {
			return nil, err
		}
		stampAt = parsed
	}

	var action string
	var oldBytes []byte
	process, err := s.repo.UpdateLocked(ctx, studentID, func(p *models.CertificationProcess) error {
		if newStage == models.StagePhysicalCertSent && !p.WantsPhysical {
			return appErrors.Clone(appErrors.ErrValidation, "process does not include a physical certificate")
		}
		newIdx := models.StageIndex(newStage)
		curIdx := models.StageIndex(p.CurrentStage)
		if newIdx == curIdx {
			return appErrors.Clone(appErrors.ErrValidation, "process is already in this stage")
		}

		action = models.AuditActionStageAdvance
		if newIdx < curIdx {
			if !req.AllowRegression {
				return appErrors.ErrStageRegression
			}
			action = models.AuditActionStageRegression
		}

		oldBytes, _ = json.Marshal(map[string]interface{}{
			"stage":     p.CurrentStage,
			"timestamp": p.StageTimestamp(p.CurrentStage),
		})

		p.CurrentStage = newStage
		ts := stampAt
		p.SetStageTimestamp(newStage, &ts)
		if newStage == models.StagePhysicalCertSent && req.TrackingCode != "" {
			code := req.TrackingCode
			p.TrackingCode = &code
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "certification process not found")
		}
		var typed *appErrors.Error
		if errors.As(err, &typed) {
			return nil, typed
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update status")
	}

	if action == models.AuditActionStageRegression {
		s.logger.Warn("stage regression applied",
			zap.String("student_id", studentID),
			zap.String("stage", string(newStage)))
	}
	newBytes, _ := json.Marshal(map[string]interface{}{
		"stage":     newStage,
		"timestamp": stampAt,
	})
	s.emitAudit(ctx, actor, action, process.ID, oldBytes, newBytes)
	return process, nil
}

// UpdateDates retroactively corrects stage timestamps. Every input is parsed
// before any write so a bad entry aborts the whole edit; ordering across
// stages is deliberately not validated, the engine degrades instead.
// current_stage is never touched here.
func (s *ProcessService) UpdateDates(ctx context.Context, studentID string, req dto.UpdateDatesRequest, actor *models.JWTClaims) (*models.CertificationProcess, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid dates payload")
	}

	edits := make(map[models.StageID]*time.Time, len(req.Dates))
	for rawStage, rawDate := range req.Dates {
		stageID := models.StageID(rawStage)
		if !stageID.Valid() {
			return nil, appErrors.Clone(appErrors.ErrInvalidStage, "unknown stage: "+rawStage)
		}
		if rawDate == "" {
			edits[stageID] = nil
			continue
		}
		parsed, err := timeutil.ParseInstant(rawDate, s.location)
		if err != nil {
			return nil, err
		}
		ts := parsed
		edits[stageID] = &ts
	}

	var oldBytes []byte
	process, err := s.repo.UpdateLocked(ctx, studentID, func(p *models.CertificationProcess) error {
		old := make(map[models.StageID]*time.Time, len(edits))
		for stageID := range edits {
			old[stageID] = p.StageTimestamp(stageID)
		}
		oldBytes, _ = json.Marshal(old)

		for stageID, ts := range edits {
			p.SetStageTimestamp(stageID, ts)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "certification process not found")
		}
		var typed *appErrors.Error
		if errors.As(err, &typed) {
			return nil, typed
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update dates")
	}

	newBytes, _ := json.Marshal(edits)
	s.emitAudit(ctx, actor, models.AuditActionDateEdit, process.ID, oldBytes, newBytes)
	return process, nil
}

// List returns dashboard rows with an SLA badge per process.
func (s *ProcessService) List(ctx context.Context, filter models.ProcessFilter) ([]dto.ProcessListItem, *models.Pagination, error) {
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list processes")
	}

	table := s.sla.Table(ctx)
	items := make([]dto.ProcessListItem, 0, len(rows))
	for i := range rows {
		process := rows[i].CertificationProcess
		evaluation := s.lifecycle.Evaluate(&process, table)
		if s.metrics != nil {
			s.metrics.ObserveSLAEvaluation(evaluation.Status)
		}
		label := ""
		if stage, ok := models.StageByID(process.CurrentStage); ok {
			label = stage.Label
		}
		items = append(items, dto.ProcessListItem{
			ProcessID:    process.ID,
			StudentID:    process.StudentID,
			StudentName:  rows[i].StudentName,
			CurrentStage: process.CurrentStage,
			StageLabel:   label,
			SLA:          evaluation,
		})
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	pagination := &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
	return items, pagination, nil
}

func (s *ProcessService) emitAudit(ctx context.Context, actor *models.JWTClaims, action, processID string, oldValues, newValues []byte) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		UserID:     actorIDPtr(actor),
		Action:     action,
		Resource:   "certification_process",
		ResourceID: &processID,
		OldValues:  oldValues,
		NewValues:  newValues,
		IPAddress:  "system",
		UserAgent:  "process-service",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record process audit", zap.Error(err))
	}
}
