package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/model"
)

func TestPredictNextStage(t *testing.T) {
	predictor := NewPredictor(DefaultPredictorParams())

	tests := []struct {
		name     string
		stage    model.PipelineStage
		wantNext model.PipelineStage
		wantConf model.ConfidenceBucket
	}{
		{
			name:     "sourcing advances to screening",
			stage:    model.StageSourcing,
			wantNext: model.StageScreening,
			wantConf: model.ConfidenceLow,
		},
		{
			name:     "due diligence advances to negotiation",
			stage:    model.StageDueDiligence,
			wantNext: model.StageNegotiation,
			wantConf: model.ConfidenceMedium,
		},
		{
			name:     "negotiation forecasts straight to close",
			stage:    model.StageNegotiation,
			wantNext: model.StageClosedWon,
			wantConf: model.ConfidenceHigh,
		},
		{
			name:     "closing forecasts to close",
			stage:    model.StageClosing,
			wantNext: model.StageClosedWon,
			wantConf: model.ConfidenceHigh,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			preds, err := predictor.Predict([]model.Deal{{ID: "d1", Stage: tt.stage}}, nil)
			require.NoError(t, err)
			require.Len(t, preds, 1)

			assert.Equal(t, "d1", preds[0].DealID)
			assert.Equal(t, tt.stage, preds[0].CurrentStage)
			assert.Equal(t, tt.wantNext, preds[0].NextStage)
			assert.Equal(t, tt.wantConf, preds[0].Confidence)
			assert.NotEmpty(t, preds[0].KeyFactors)
		})
	}
}

func TestPredictLateStageOverrideIgnoresBaselineTable(t *testing.T) {
	// Even with a transition table that says otherwise, late-stage deals
	// forecast directly to closed won while the policy is on.
	params := DefaultPredictorParams()
	params.BaselineProbability[model.StageNegotiation] = 0.01

	preds, err := NewPredictor(params).Predict([]model.Deal{{ID: "d1", Stage: model.StageNegotiation}}, nil)
	require.NoError(t, err)
	require.Len(t, preds, 1)
	assert.Equal(t, model.StageClosedWon, preds[0].NextStage)
}

func TestPredictOptimisticCloseDisabled(t *testing.T) {
	params := DefaultPredictorParams()
	params.OptimisticClose = false

	preds, err := NewPredictor(params).Predict([]model.Deal{{ID: "d1", Stage: model.StageNegotiation}}, nil)
	require.NoError(t, err)
	require.Len(t, preds, 1)
	assert.Equal(t, model.StageClosing, preds[0].NextStage)
}

func TestPredictSkipsTerminalDeals(t *testing.T) {
	deals := []model.Deal{
		{ID: "d1", Stage: model.StageClosedWon},
		{ID: "d2", Stage: model.StageClosedLost},
		{ID: "d3", Stage: model.StageScreening},
	}

	preds, err := NewPredictor(DefaultPredictorParams()).Predict(deals, nil)
	require.NoError(t, err)
	require.Len(t, preds, 1)
	assert.Equal(t, "d3", preds[0].DealID)
}

func TestPredictUnknownStage(t *testing.T) {
	_, err := NewPredictor(DefaultPredictorParams()).Predict([]model.Deal{{ID: "d1", Stage: "incubating"}}, nil)
	assert.Error(t, err)
}

func TestPredictUsesVelocityDurations(t *testing.T) {
	velocity := &model.PipelineVelocity{
		StageDays: map[model.PipelineStage]float64{
			model.StageScreening: 9.5,
		},
	}

	preds, err := NewPredictor(DefaultPredictorParams()).Predict([]model.Deal{{ID: "d1", Stage: model.StageScreening}}, velocity)
	require.NoError(t, err)
	require.Len(t, preds, 1)
	assert.Equal(t, 9.5, preds[0].EstimatedDays)

	preds, err = NewPredictor(DefaultPredictorParams()).Predict([]model.Deal{{ID: "d2", Stage: model.StageValuation}}, velocity)
	require.NoError(t, err)
	require.Len(t, preds, 1)
	// no velocity entry, baseline used
	assert.Equal(t, 21.0, preds[0].EstimatedDays)
}
