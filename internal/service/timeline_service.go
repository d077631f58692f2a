package service

import (
	"strings"
	"time"

	"github.com/certpath/certpath-api/internal/dto"
	"github.com/certpath/certpath-api/internal/models"
	"github.com/certpath/certpath-api/pkg/timeutil"
)

const (
	markerCompleted = "✅"
	markerCurrent   = "⏳"
	markerUpcoming  = "◻"
)

// DefaultMessageTemplate greets the student before the timeline block.
const DefaultMessageTemplate = "Olá, {nome}! Segue o andamento da sua certificação:"

// TimelineService turns engine output into display entries and WhatsApp-ready
// text. Pure string composition; delivery lives elsewhere.
type TimelineService struct {
	lifecycle *LifecycleService
	location  *time.Location
}

// NewTimelineService constructs the renderer. location is the reference
// timezone used for all formatting.
func NewTimelineService(lifecycle *LifecycleService, location *time.Location) *TimelineService {
	if location == nil {
		location = time.UTC
	}
	return &TimelineService{lifecycle: lifecycle, location: location}
}

// Render produces the ordered timeline for a process. Upcoming stages never
// expose a timestamp, even when one is stored: a future-dated leftover from a
// bad manual edit must not read as authoritative progress.
func (s *TimelineService) Render(process *models.CertificationProcess) []dto.TimelineEntry {
	classifications := s.lifecycle.Classify(process)
	entries := make([]dto.TimelineEntry, 0, len(classifications))
	for _, c := range classifications {
		entry := dto.TimelineEntry{
			Stage: c.Stage.ID,
			Label: c.Stage.Label,
			State: c.State,
		}
		if c.State != models.StageStateUpcoming {
			if ts := process.StageTimestamp(c.Stage.ID); ts != nil {
				formatted := timeutil.Format(*ts, s.location)
				entry.Timestamp = &formatted
			}
		}
		entries = append(entries, entry)
	}
	return entries
}

// RenderMessage expands the template's {nome} and {rastreio} placeholders and
// appends the formatted timeline block.
func (s *TimelineService) RenderMessage(process *models.CertificationProcess, student *models.Student, template string) string {
	if strings.TrimSpace(template) == "" {
		template = DefaultMessageTemplate
	}

	name := ""
	if student != nil {
		name = student.FullName
	}
	tracking := ""
	if process.TrackingCode != nil {
		tracking = *process.TrackingCode
	}

	text := strings.ReplaceAll(template, "{nome}", name)
	text = strings.ReplaceAll(text, "{rastreio}", tracking)

	var b strings.Builder
	b.WriteString(strings.TrimRight(text, "\n"))
	b.WriteString("\n\n")

	for _, entry := range s.Render(process) {
		switch entry.State {
		case models.StageStateCompleted:
			b.WriteString(markerCompleted)
		case models.StageStateCurrent:
			b.WriteString(markerCurrent)
		default:
			b.WriteString(markerUpcoming)
		}
		b.WriteString(" ")
		b.WriteString(entry.Label)
		if entry.Timestamp != nil {
			b.WriteString(" (")
			b.WriteString(*entry.Timestamp)
			b.WriteString(")")
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}
