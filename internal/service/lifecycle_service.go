package service

import (
	"math"
	"time"

	"github.com/certpath/certpath-api/internal/models"
	"github.com/certpath/certpath-api/pkg/clock"
)

// StageClassification pairs a stage with its position relative to the
// process.
type StageClassification struct {
	Stage models.Stage
	State models.StageState
}

// LifecycleService derives stage classification and SLA verdicts from a
// process. It holds no mutable state and is safe for concurrent use.
type LifecycleService struct {
	clock clock.Clock
}

// NewLifecycleService constructs the engine.
func NewLifecycleService(clk clock.Clock) *LifecycleService {
	if clk == nil {
		clk = clock.System{}
	}
	return &LifecycleService{clock: clk}
}

// EffectiveSequence returns the ordered stage list for this process. The
// optional physical-certificate stage is removed when the process does not
// want one; every position-based computation must run against this sequence,
// never the raw registry.
func (s *LifecycleService) EffectiveSequence(process *models.CertificationProcess) []models.Stage {
	sequence := make([]models.Stage, 0, len(models.StageRegistry))
	for _, stage := range models.StageRegistry {
		if stage.Optional && !process.WantsPhysical {
			continue
		}
		sequence = append(sequence, stage)
	}
	return sequence
}

// Classify labels every stage of the effective sequence as completed, current
// or upcoming. When current_stage is not reachable in the effective sequence
// (stale data after a wants_physical flip), stages are split around the raw
// registry position and no stage is current.
func (s *LifecycleService) Classify(process *models.CertificationProcess) []StageClassification {
	sequence := s.EffectiveSequence(process)
	position := -1
	for i, stage := range sequence {
		if stage.ID == process.CurrentStage {
			position = i
			break
		}
	}

	result := make([]StageClassification, 0, len(sequence))
	if position >= 0 {
		for i, stage := range sequence {
			state := models.StageStateUpcoming
			switch {
			case i < position:
				state = models.StageStateCompleted
			case i == position:
				state = models.StageStateCurrent
			}
			result = append(result, StageClassification{Stage: stage, State: state})
		}
		return result
	}

	rawPosition := models.StageIndex(process.CurrentStage)
	for _, stage := range sequence {
		state := models.StageStateUpcoming
		if rawPosition >= 0 && models.StageIndex(stage.ID) < rawPosition {
			state = models.StageStateCompleted
		}
		result = append(result, StageClassification{Stage: stage, State: state})
	}
	return result
}

// Evaluate computes the SLA verdict for the process at the injected clock's
// current instant.
func (s *LifecycleService) Evaluate(process *models.CertificationProcess, table map[models.StageID]models.SLAConfig) models.SLAEvaluation {
	return s.EvaluateAt(process, table, s.clock.Now())
}

// EvaluateAt computes the SLA verdict at an explicit instant.
//
// A terminal process always reports none, whatever the table says for the
// terminal stage. A current stage with no recorded entry timestamp reports
// unknown rather than failing: the dashboard must always render a badge.
// Missing table rows fall back to the built-in defaults.
func (s *LifecycleService) EvaluateAt(process *models.CertificationProcess, table map[models.StageID]models.SLAConfig, now time.Time) models.SLAEvaluation {
	current := process.CurrentStage
	evaluation := models.SLAEvaluation{Stage: current}

	if current.Terminal() {
		evaluation.Status = models.SLAStatusNone
		return evaluation
	}
	if !current.Valid() {
		evaluation.Status = models.SLAStatusUnknown
		return evaluation
	}

	cfg, ok := table[current]
	if !ok {
		cfg = models.DefaultSLATable[current]
	}
	evaluation.DaysLimit = cfg.DaysLimit
	evaluation.WarningDays = cfg.WarningDays

	start := process.StageTimestamp(current)
	if start == nil {
		evaluation.Status = models.SLAStatusUnknown
		return evaluation
	}

	daysElapsed := int(math.Floor(now.Sub(*start).Hours() / 24))
	daysRemaining := cfg.DaysLimit - daysElapsed
	evaluation.DaysElapsed = daysElapsed
	evaluation.DaysRemaining = daysRemaining

	switch {
	case daysRemaining < 0:
		evaluation.Status = models.SLAStatusOverdue
	case daysRemaining <= cfg.WarningDays:
		// Inclusive boundary: remaining == warning window is already a warning.
		evaluation.Status = models.SLAStatusWarning
	default:
		evaluation.Status = models.SLAStatusOK
	}
	return evaluation
}
