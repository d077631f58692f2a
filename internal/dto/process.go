package dto

import "github.com/certpath/certpath-api/internal/models"

// StartProcessRequest opens a certification process for a student.
type StartProcessRequest struct {
	WantsPhysical bool `json:"wants_physical"`
}

// UpdateStatusRequest moves a process to another stage. Date is optional; when
// empty the destination stage is stamped with the current instant. Backward
// moves are rejected unless AllowRegression is set.
type UpdateStatusRequest struct {
	Stage           string `json:"stage" validate:"required"`
	TrackingCode    string `json:"tracking_code,omitempty"`
	Date            string `json:"date,omitempty"`
	AllowRegression bool   `json:"allow_regression,omitempty"`
}

// UpdateDatesRequest retroactively corrects stage timestamps. Keys are stage
// ids; values are date strings (reference-timezone wall time unless an offset
// is present). An empty value clears the timestamp.
type UpdateDatesRequest struct {
	Dates map[string]string `json:"dates" validate:"required,min=1"`
}

// NotifyRequest asks for a WhatsApp progress message. Template may contain
// the {nome} and {rastreio} placeholders; when empty a default template is
// used.
type NotifyRequest struct {
	Template string `json:"template,omitempty"`
}

// TimelineEntry is one rendered row of the progress timeline.
type TimelineEntry struct {
	Stage     models.StageID    `json:"stage"`
	Label     string            `json:"label"`
	State     models.StageState `json:"state"`
	Timestamp *string           `json:"timestamp,omitempty"`
}

// ProcessView is the dashboard detail payload: raw process state plus the
// derived timeline and SLA verdict.
type ProcessView struct {
	Process  models.CertificationProcess `json:"process"`
	Timeline []TimelineEntry             `json:"timeline"`
	SLA      models.SLAEvaluation        `json:"sla"`
}

// ProcessListItem is one dashboard listing row.
type ProcessListItem struct {
	ProcessID    string               `json:"process_id"`
	StudentID    string               `json:"student_id"`
	StudentName  string               `json:"student_name"`
	CurrentStage models.StageID       `json:"current_stage"`
	StageLabel   string               `json:"stage_label"`
	SLA          models.SLAEvaluation `json:"sla"`
}
