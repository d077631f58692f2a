package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/certpath/certpath-api/internal/models"
	appErrors "github.com/certpath/certpath-api/pkg/errors"
	"github.com/certpath/certpath-api/pkg/jobs"
)

// MessageTransport delivers a rendered message. The core never interprets
// delivery beyond logging and auditing the outcome.
type MessageTransport interface {
	SendText(ctx context.Context, phone, message string) error
}

type notificationObserver interface {
	ObserveNotification(delivered bool)
}

// NotificationPayload is the queued unit of delivery work.
type NotificationPayload struct {
	ProcessID string `json:"process_id"`
	StudentID string `json:"student_id"`
	Phone     string `json:"phone"`
	Message   string `json:"message"`
}

// NotificationService renders progress messages and dispatches them through
// the worker queue.
type NotificationService struct {
	processes processStore
	students  processStudentReader
	timeline  *TimelineService
	transport MessageTransport
	audit     processAuditLogger
	metrics   notificationObserver
	logger    *zap.Logger
	queue     *jobs.Queue[NotificationPayload]
}

// NewNotificationService constructs the service and its queue. Call Start
// before sending and Stop on shutdown.
func NewNotificationService(
	processes processStore,
	students processStudentReader,
	timeline *TimelineService,
	transport MessageTransport,
	audit processAuditLogger,
	logger *zap.Logger,
	queueCfg jobs.QueueConfig,
	metrics notificationObserver,
) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &NotificationService{
		processes: processes,
		students:  students,
		timeline:  timeline,
		transport: transport,
		audit:     audit,
		metrics:   metrics,
		logger:    logger,
	}
	queueCfg.Logger = logger
	svc.queue = jobs.NewQueue[NotificationPayload]("whatsapp-notifications", svc.deliver, queueCfg)
	return svc
}

// Start launches the dispatch workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the dispatch workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// Send renders the progress message for the student and enqueues delivery.
// The rendered text is returned so the administrator can preview what went
// out.
func (s *NotificationService) Send(ctx context.Context, studentID, template string, actor *models.JWTClaims) (string, error) {
	process, err := s.processes.GetByStudentID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "certification process not found")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load process")
	}
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Phone == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "student has no phone number")
	}

	message := s.timeline.RenderMessage(process, student, template)
	job := jobs.Job[NotificationPayload]{
		ID: uuid.NewString(),
		Payload: NotificationPayload{
			ProcessID: process.ID,
			StudentID: studentID,
			Phone:     student.Phone,
			Message:   message,
		},
	}
	if err := s.queue.Enqueue(job); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue notification")
	}

	s.logger.Info("notification enqueued",
		zap.String("student_id", studentID),
		zap.String("job_id", job.ID),
		zap.String("actor", actorID(actor)))
	return message, nil
}

func (s *NotificationService) deliver(ctx context.Context, job jobs.Job[NotificationPayload]) error {
	err := s.transport.SendText(ctx, job.Payload.Phone, job.Payload.Message)
	delivered := err == nil
	if s.metrics != nil {
		s.metrics.ObserveNotification(delivered)
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"phone":     job.Payload.Phone,
		"delivered": delivered,
		"attempt":   job.Attempt,
	})
	log := &models.AuditLog{
		Action:     models.AuditActionMessageSent,
		Resource:   "certification_process",
		ResourceID: &job.Payload.ProcessID,
		NewValues:  payload,
		IPAddress:  "system",
		UserAgent:  "notification-service",
	}
	if s.audit != nil {
		if auditErr := s.audit.CreateAuditLog(ctx, log); auditErr != nil {
			s.logger.Warn("failed to record notification audit", zap.Error(auditErr))
		}
	}

	if err != nil {
		s.logger.Warn("notification delivery failed",
			zap.String("job_id", job.ID),
			zap.String("student_id", job.Payload.StudentID),
			zap.Error(err))
		return err
	}
	s.logger.Info("notification delivered",
		zap.String("job_id", job.ID),
		zap.String("student_id", job.Payload.StudentID))
	return nil
}

func actorID(actor *models.JWTClaims) string {
	if actor == nil {
		return ""
	}
	return actor.UserID
}
