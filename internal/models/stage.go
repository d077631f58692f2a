package models

// StageID identifies one step of the certification pipeline.
type StageID string

const (
	StageWelcome              StageID = "welcome"
	StageExamInProgress       StageID = "exam_in_progress"
	StageDocumentsRequested   StageID = "documents_requested"
	StageDocumentsUnderReview StageID = "documents_under_review"
	StageCertifierSubmission  StageID = "certifier_submission"
	StageDigitalCertSent      StageID = "digital_certificate_sent"
	StagePhysicalCertSent     StageID = "physical_certificate_sent"
	StageCompleted            StageID = "completed"
)

// Stage describes one registry entry of the ordered pipeline.
type Stage struct {
	ID       StageID `json:"id"`
	Label    string  `json:"label"`
	Optional bool    `json:"optional"`
}

// StageRegistry is the fixed, ordered set of certification stages. The
// physical-certificate stage is the only optional one; it is filtered out of
// the effective sequence when a process does not want a physical certificate.
var StageRegistry = []Stage{
	{ID: StageWelcome, Label: "Boas-vindas"},
	{ID: StageExamInProgress, Label: "Prova em andamento"},
	{ID: StageDocumentsRequested, Label: "Documentação solicitada"},
	{ID: StageDocumentsUnderReview, Label: "Documentação em análise"},
	{ID: StageCertifierSubmission, Label: "Enviado à certificadora"},
	{ID: StageDigitalCertSent, Label: "Certificado digital enviado"},
	{ID: StagePhysicalCertSent, Label: "Certificado físico enviado", Optional: true},
	{ID: StageCompleted, Label: "Concluído"},
}

// StageIndex returns the position of the stage in the full registry, or -1
// when the id is unknown.
func StageIndex(id StageID) int {
	for i, stage := range StageRegistry {
		if stage.ID == id {
			return i
		}
	}
	return -1
}

// StageByID resolves a registry entry.
func StageByID(id StageID) (Stage, bool) {
	idx := StageIndex(id)
	if idx < 0 {
		return Stage{}, false
	}
	return StageRegistry[idx], true
}

// Valid reports whether the id belongs to the registry.
func (id StageID) Valid() bool {
	return StageIndex(id) >= 0
}

// Terminal reports whether the stage closes the process. A terminal process
// is never evaluated against the SLA table.
func (id StageID) Terminal() bool {
	return id == StageCompleted
}

// StageState classifies a stage relative to the process position.
type StageState string

const (
	StageStateCompleted StageState = "completed"
	StageStateCurrent   StageState = "current"
	StageStateUpcoming  StageState = "upcoming"
)
