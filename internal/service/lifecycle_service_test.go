package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/certpath/certpath-api/internal/models"
	"github.com/certpath/certpath-api/pkg/clock"
)

func ts(t *testing.T, value string) *time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("bad test timestamp %q: %v", value, err)
	}
	parsed = parsed.UTC()
	return &parsed
}

func TestEffectiveSequenceWithPhysical(t *testing.T) {
	svc := NewLifecycleService(nil)
	process := &models.CertificationProcess{WantsPhysical: true}

	sequence := svc.EffectiveSequence(process)

	assert.Len(t, sequence, 8)
	assert.Equal(t, models.StagePhysicalCertSent, sequence[6].ID)
}

func TestEffectiveSequenceWithoutPhysical(t *testing.T) {
	svc := NewLifecycleService(nil)
	process := &models.CertificationProcess{WantsPhysical: false}

	sequence := svc.EffectiveSequence(process)

	assert.Len(t, sequence, 7)
	for _, stage := range sequence {
		assert.NotEqual(t, models.StagePhysicalCertSent, stage.ID)
	}
	assert.Equal(t, models.StageDigitalCertSent, sequence[5].ID)
	assert.Equal(t, models.StageCompleted, sequence[6].ID)
}

func TestClassifySplitsAroundCurrent(t *testing.T) {
	svc := NewLifecycleService(nil)
	process := &models.CertificationProcess{
		CurrentStage:  models.StageDocumentsUnderReview,
		WantsPhysical: true,
	}

	result := svc.Classify(process)

	assert.Len(t, result, 8)
	for i, c := range result {
		switch {
		case i < 3:
			assert.Equal(t, models.StageStateCompleted, c.State, c.Stage.ID)
		case i == 3:
			assert.Equal(t, models.StageStateCurrent, c.State, c.Stage.ID)
		default:
			assert.Equal(t, models.StageStateUpcoming, c.State, c.Stage.ID)
		}
	}
}

func TestClassifyFirstStageCurrent(t *testing.T) {
	svc := NewLifecycleService(nil)
	process := &models.CertificationProcess{CurrentStage: models.StageWelcome}

	result := svc.Classify(process)

	assert.Equal(t, models.StageStateCurrent, result[0].State)
	for _, c := range result[1:] {
		assert.Equal(t, models.StageStateUpcoming, c.State)
	}
}

func TestClassifyTerminalStage(t *testing.T) {
	svc := NewLifecycleService(nil)
	process := &models.CertificationProcess{
		CurrentStage:  models.StageCompleted,
		WantsPhysical: false,
	}

	result := svc.Classify(process)

	assert.Len(t, result, 7)
	last := result[len(result)-1]
	assert.Equal(t, models.StageCompleted, last.Stage.ID)
	assert.Equal(t, models.StageStateCurrent, last.State)
	for _, c := range result[:len(result)-1] {
		assert.Equal(t, models.StageStateCompleted, c.State)
	}
}

// A process can point at the physical stage while wants_physical is off after
// a manual flip; nothing must read as current then.
func TestClassifyUnreachableCurrentStage(t *testing.T) {
	svc := NewLifecycleService(nil)
	process := &models.CertificationProcess{
		CurrentStage:  models.StagePhysicalCertSent,
		WantsPhysical: false,
	}

	result := svc.Classify(process)

	assert.Len(t, result, 7)
	for _, c := range result {
		assert.NotEqual(t, models.StageStateCurrent, c.State)
		if models.StageIndex(c.Stage.ID) < models.StageIndex(models.StagePhysicalCertSent) {
			assert.Equal(t, models.StageStateCompleted, c.State, c.Stage.ID)
		} else {
			assert.Equal(t, models.StageStateUpcoming, c.State, c.Stage.ID)
		}
	}
}

func TestEvaluateOK(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	svc := NewLifecycleService(clock.Fixed{Instant: now})
	process := &models.CertificationProcess{
		CurrentStage:     models.StageExamInProgress,
		ExamInProgressAt: ts(t, "2024-01-05T12:00:00Z"),
	}

	evaluation := svc.Evaluate(process, models.DefaultSLATable)

	assert.Equal(t, models.SLAStatusOK, evaluation.Status)
	assert.Equal(t, 5, evaluation.DaysElapsed)
	assert.Equal(t, 25, evaluation.DaysRemaining)
	assert.Equal(t, 30, evaluation.DaysLimit)
}

func TestEvaluateWarningBoundaryIsInclusive(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := NewLifecycleService(nil)
	process := &models.CertificationProcess{
		CurrentStage: models.StageDocumentsRequested,
		DocumentsRequestedAt: &start,
	}

	// limit 7, warning 2: at 5 elapsed days remaining == 2 == warning window.
	now := start.Add(5 * 24 * time.Hour)
	evaluation := svc.EvaluateAt(process, models.DefaultSLATable, now)

	assert.Equal(t, models.SLAStatusWarning, evaluation.Status)
	assert.Equal(t, 2, evaluation.DaysRemaining)

	// One day earlier it is still ok.
	evaluation = svc.EvaluateAt(process, models.DefaultSLATable, start.Add(4*24*time.Hour))
	assert.Equal(t, models.SLAStatusOK, evaluation.Status)
}

func TestEvaluateOverdue(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := NewLifecycleService(nil)
	process := &models.CertificationProcess{
		CurrentStage: models.StageWelcome,
		WelcomeAt:    &start,
	}

	// limit 3: at day 3 remaining is 0 (warning), at day 4 it is overdue.
	evaluation := svc.EvaluateAt(process, models.DefaultSLATable, start.Add(3*24*time.Hour))
	assert.Equal(t, models.SLAStatusWarning, evaluation.Status)

	evaluation = svc.EvaluateAt(process, models.DefaultSLATable, start.Add(4*24*time.Hour))
	assert.Equal(t, models.SLAStatusOverdue, evaluation.Status)
	assert.Equal(t, -1, evaluation.DaysRemaining)
}

func TestEvaluatePartialDayDoesNotCount(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := NewLifecycleService(nil)
	process := &models.CertificationProcess{
		CurrentStage: models.StageWelcome,
		WelcomeAt:    &start,
	}

	evaluation := svc.EvaluateAt(process, models.DefaultSLATable, start.Add(23*time.Hour))
	assert.Equal(t, 0, evaluation.DaysElapsed)

	evaluation = svc.EvaluateAt(process, models.DefaultSLATable, start.Add(25*time.Hour))
	assert.Equal(t, 1, evaluation.DaysElapsed)
}

func TestEvaluateTerminalReportsNone(t *testing.T) {
	svc := NewLifecycleService(nil)
	process := &models.CertificationProcess{
		CurrentStage: models.StageCompleted,
		CompletedAt:  ts(t, "2020-01-01T00:00:00Z"),
	}

	evaluation := svc.EvaluateAt(process, models.DefaultSLATable, time.Now().UTC())

	assert.Equal(t, models.SLAStatusNone, evaluation.Status)
}

func TestEvaluateMissingTimestampReportsUnknown(t *testing.T) {
	svc := NewLifecycleService(nil)
	process := &models.CertificationProcess{CurrentStage: models.StageCertifierSubmission}

	evaluation := svc.EvaluateAt(process, models.DefaultSLATable, time.Now().UTC())

	assert.Equal(t, models.SLAStatusUnknown, evaluation.Status)
	assert.Equal(t, 45, evaluation.DaysLimit)
}

func TestEvaluateMissingTableRowFallsBackToDefaults(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := NewLifecycleService(nil)
	process := &models.CertificationProcess{
		CurrentStage: models.StageDigitalCertSent,
		DigitalCertSentAt: &start,
	}

	evaluation := svc.EvaluateAt(process, map[models.StageID]models.SLAConfig{}, start.Add(24*time.Hour))

	assert.Equal(t, 10, evaluation.DaysLimit)
	assert.Equal(t, models.SLAStatusOK, evaluation.Status)
}

func TestEvaluateUsesCustomTable(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := NewLifecycleService(nil)
	process := &models.CertificationProcess{
		CurrentStage: models.StageWelcome,
		WelcomeAt:    &start,
	}
	table := map[models.StageID]models.SLAConfig{
		models.StageWelcome: {StageID: models.StageWelcome, DaysLimit: 10, WarningDays: 1},
	}

	evaluation := svc.EvaluateAt(process, table, start.Add(5*24*time.Hour))

	assert.Equal(t, models.SLAStatusOK, evaluation.Status)
	assert.Equal(t, 5, evaluation.DaysRemaining)
}
