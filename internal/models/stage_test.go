package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStageRegistryOrder(t *testing.T) {
	expected := []StageID{
		StageWelcome,
		StageExamInProgress,
		StageDocumentsRequested,
		StageDocumentsUnderReview,
		StageCertifierSubmission,
		StageDigitalCertSent,
		StagePhysicalCertSent,
		StageCompleted,
	}

	assert.Len(t, StageRegistry, len(expected))
	for i, id := range expected {
		assert.Equal(t, id, StageRegistry[i].ID)
	}
}

func TestStageIndex(t *testing.T) {
	assert.Equal(t, 0, StageIndex(StageWelcome))
	assert.Equal(t, 7, StageIndex(StageCompleted))
	assert.Equal(t, -1, StageIndex(StageID("bogus")))
}

func TestStageValidity(t *testing.T) {
	assert.True(t, StageDocumentsRequested.Valid())
	assert.False(t, StageID("").Valid())
	assert.False(t, StageID("shipped").Valid())
}

func TestOnlyPhysicalStageIsOptional(t *testing.T) {
	for _, stage := range StageRegistry {
		if stage.ID == StagePhysicalCertSent {
			assert.True(t, stage.Optional)
			continue
		}
		assert.False(t, stage.Optional, "stage %s must not be optional", stage.ID)
	}
}

func TestOnlyCompletedIsTerminal(t *testing.T) {
	for _, stage := range StageRegistry {
		assert.Equal(t, stage.ID == StageCompleted, stage.ID.Terminal())
	}
}

func TestDefaultSLATableCoversRegistry(t *testing.T) {
	for _, stage := range StageRegistry {
		cfg, ok := DefaultSLATable[stage.ID]
		assert.True(t, ok, "missing default for %s", stage.ID)
		assert.Equal(t, stage.ID, cfg.StageID)
	}
}

func TestStageTimestampRoundTrip(t *testing.T) {
	process := &CertificationProcess{}
	for _, stage := range StageRegistry {
		assert.Nil(t, process.StageTimestamp(stage.ID))
	}

	ts := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	for _, stage := range StageRegistry {
		process.SetStageTimestamp(stage.ID, &ts)
		got := process.StageTimestamp(stage.ID)
		assert.NotNil(t, got)
		assert.True(t, got.Equal(ts))

		process.SetStageTimestamp(stage.ID, nil)
		assert.Nil(t, process.StageTimestamp(stage.ID))
	}
}
