package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/certpath/certpath-api/internal/models"
	appErrors "github.com/certpath/certpath-api/pkg/errors"
	"github.com/certpath/certpath-api/pkg/export"
)

// ReportFile is a rendered document ready for download.
type ReportFile struct {
	Filename string
	MimeType string
	Content  []byte
}

// ReportService renders the certification timeline as a PDF document.
type ReportService struct {
	processes processStore
	students  processStudentReader
	timeline  *TimelineService
	lifecycle *LifecycleService
	sla       slaTableProvider
	exporter  *export.PDFExporter
}

// NewReportService constructs the service.
func NewReportService(
	processes processStore,
	students processStudentReader,
	timeline *TimelineService,
	lifecycle *LifecycleService,
	sla slaTableProvider,
	exporter *export.PDFExporter,
) *ReportService {
	if exporter == nil {
		exporter = export.NewPDFExporter()
	}
	return &ReportService{
		processes: processes,
		students:  students,
		timeline:  timeline,
		lifecycle: lifecycle,
		sla:       sla,
		exporter:  exporter,
	}
}

// TimelinePDF builds the downloadable timeline report for one student.
func (s *ReportService) TimelinePDF(ctx context.Context, studentID string) (*ReportFile, error) {
	process, err := s.processes.GetByStudentID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "certification process not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load process")
	}
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	dataset := export.Dataset{
		Headers: []string{"Etapa", "Situação", "Data"},
	}
	for _, entry := range s.timeline.Render(process) {
		timestamp := "-"
		if entry.Timestamp != nil {
			timestamp = *entry.Timestamp
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Etapa":    entry.Label,
			"Situação": stageStateLabel(entry.State),
			"Data":     timestamp,
		})
	}

	evaluation := s.lifecycle.Evaluate(process, s.sla.Table(ctx))
	notes := []string{
		fmt.Sprintf("Situação do prazo: %s", slaStatusLabel(evaluation.Status)),
	}
	switch evaluation.Status {
	case models.SLAStatusOK, models.SLAStatusWarning:
		notes = append(notes, fmt.Sprintf("Dias restantes na etapa atual: %d", evaluation.DaysRemaining))
	case models.SLAStatusOverdue:
		notes = append(notes, fmt.Sprintf("Dias de atraso na etapa atual: %d", -evaluation.DaysRemaining))
	}
	if process.TrackingCode != nil && *process.TrackingCode != "" {
		notes = append(notes, "Código de rastreio: "+*process.TrackingCode)
	}

	title := "Andamento da certificação - " + student.FullName
	content, err := s.exporter.Render(dataset, title, notes...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}

	return &ReportFile{
		Filename: fmt.Sprintf("certificacao-%s.pdf", studentID),
		MimeType: "application/pdf",
		Content:  content,
	}, nil
}

func stageStateLabel(state models.StageState) string {
	switch state {
	case models.StageStateCompleted:
		return "Concluída"
	case models.StageStateCurrent:
		return "Em andamento"
	default:
		return "Pendente"
	}
}

func slaStatusLabel(status models.SLAStatus) string {
	switch status {
	case models.SLAStatusOK:
		return "Dentro do prazo"
	case models.SLAStatusWarning:
		return "Próximo do limite"
	case models.SLAStatusOverdue:
		return "Prazo estourado"
	case models.SLAStatusNone:
		return "Processo concluído"
	default:
		return "Sem data registrada"
	}
}
