package models

import "time"

// SLAConfig holds the administrator-tunable deadline for one stage.
// DaysLimit is the maximum dwell time in the stage before it is overdue;
// WarningDays is the lead window before the deadline at which the status
// turns to warning.
type SLAConfig struct {
	StageID     StageID   `db:"stage_id" json:"stage_id"`
	DaysLimit   int       `db:"days_limit" json:"days_limit"`
	WarningDays int       `db:"warning_days" json:"warning_days"`
	UpdatedBy   *string   `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// DefaultSLATable supplies the fallback deadline per stage when no row has
// been persisted yet. One entry always exists per registry stage.
var DefaultSLATable = map[StageID]SLAConfig{
	StageWelcome:              {StageID: StageWelcome, DaysLimit: 3, WarningDays: 1},
	StageExamInProgress:       {StageID: StageExamInProgress, DaysLimit: 30, WarningDays: 5},
	StageDocumentsRequested:   {StageID: StageDocumentsRequested, DaysLimit: 7, WarningDays: 2},
	StageDocumentsUnderReview: {StageID: StageDocumentsUnderReview, DaysLimit: 7, WarningDays: 2},
	StageCertifierSubmission:  {StageID: StageCertifierSubmission, DaysLimit: 45, WarningDays: 7},
	StageDigitalCertSent:      {StageID: StageDigitalCertSent, DaysLimit: 10, WarningDays: 2},
	StagePhysicalCertSent:     {StageID: StagePhysicalCertSent, DaysLimit: 20, WarningDays: 5},
	StageCompleted:            {StageID: StageCompleted, DaysLimit: 0, WarningDays: 0},
}

// SLAStatus is the derived deadline classification of a process.
type SLAStatus string

const (
	SLAStatusOK      SLAStatus = "ok"
	SLAStatusWarning SLAStatus = "warning"
	SLAStatusOverdue SLAStatus = "overdue"
	// SLAStatusNone applies to terminal processes: nothing left to evaluate.
	SLAStatusNone SLAStatus = "none"
	// SLAStatusUnknown applies when the current stage has no recorded entry
	// timestamp, typically after a partial manual edit.
	SLAStatusUnknown SLAStatus = "unknown"
)

// SLAEvaluation is the engine's verdict for a process at a point in time.
// DaysElapsed/DaysRemaining are only meaningful for ok/warning/overdue.
type SLAEvaluation struct {
	Stage         StageID   `json:"stage"`
	Status        SLAStatus `json:"status"`
	DaysElapsed   int       `json:"days_elapsed"`
	DaysRemaining int       `json:"days_remaining"`
	DaysLimit     int       `json:"days_limit"`
	WarningDays   int       `json:"warning_days"`
}
