package models

import "time"

// CertificationProcess tracks one student through the certification pipeline.
// Each stage owns a nullable completion timestamp column; current_stage points
// at the stage the student sits in right now.
type CertificationProcess struct {
	ID            string  `db:"id" json:"id"`
	StudentID     string  `db:"student_id" json:"student_id"`
	CurrentStage  StageID `db:"current_stage" json:"current_stage"`
	WantsPhysical bool    `db:"wants_physical" json:"wants_physical"`
	TrackingCode  *string `db:"tracking_code" json:"tracking_code,omitempty"`

	WelcomeAt              *time.Time `db:"welcome_at" json:"welcome_at,omitempty"`
	ExamInProgressAt       *time.Time `db:"exam_in_progress_at" json:"exam_in_progress_at,omitempty"`
	DocumentsRequestedAt   *time.Time `db:"documents_requested_at" json:"documents_requested_at,omitempty"`
	DocumentsUnderReviewAt *time.Time `db:"documents_under_review_at" json:"documents_under_review_at,omitempty"`
	CertifierSubmissionAt  *time.Time `db:"certifier_submission_at" json:"certifier_submission_at,omitempty"`
	DigitalCertSentAt      *time.Time `db:"digital_certificate_sent_at" json:"digital_certificate_sent_at,omitempty"`
	PhysicalCertSentAt     *time.Time `db:"physical_certificate_sent_at" json:"physical_certificate_sent_at,omitempty"`
	CompletedAt            *time.Time `db:"completed_at" json:"completed_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// StageTimestamp returns the completion timestamp recorded for the given
// stage. The switch is exhaustive over the registry so that adding a stage
// without wiring its column fails review, not production.
func (p *CertificationProcess) StageTimestamp(id StageID) *time.Time {
	switch id {
	case StageWelcome:
		return p.WelcomeAt
	case StageExamInProgress:
		return p.ExamInProgressAt
	case StageDocumentsRequested:
		return p.DocumentsRequestedAt
	case StageDocumentsUnderReview:
		return p.DocumentsUnderReviewAt
	case StageCertifierSubmission:
		return p.CertifierSubmissionAt
	case StageDigitalCertSent:
		return p.DigitalCertSentAt
	case StagePhysicalCertSent:
		return p.PhysicalCertSentAt
	case StageCompleted:
		return p.CompletedAt
	}
	return nil
}

// SetStageTimestamp overwrites the timestamp column for the given stage.
// Returns false when the id is not part of the registry.
func (p *CertificationProcess) SetStageTimestamp(id StageID, t *time.Time) bool {
	switch id {
	case StageWelcome:
		p.WelcomeAt = t
	case StageExamInProgress:
		p.ExamInProgressAt = t
	case StageDocumentsRequested:
		p.DocumentsRequestedAt = t
	case StageDocumentsUnderReview:
		p.DocumentsUnderReviewAt = t
	case StageCertifierSubmission:
		p.CertifierSubmissionAt = t
	case StageDigitalCertSent:
		p.DigitalCertSentAt = t
	case StagePhysicalCertSent:
		p.PhysicalCertSentAt = t
	case StageCompleted:
		p.CompletedAt = t
	default:
		return false
	}
	return true
}

// ProcessFilter constrains dashboard listing queries.
type ProcessFilter struct {
	Stage     StageID
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
