package pipeline

import (
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/model"
	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/numeric"
)

// PredictorParams configures stage transition prediction.
type PredictorParams struct {
	// OptimisticClose makes deals in the last two active stages predict
	// closed-won directly instead of their literal successor. This is a
	// product policy, not a pipeline law; disable it for neutral forecasts.
	OptimisticClose bool

	// BaselineProbability is the per-stage chance of advancing within the
	// estimated window.
	BaselineProbability map[model.PipelineStage]float64

	// BaselineDays is the per-stage transition duration used when no
	// velocity data covers the stage.
	BaselineDays map[model.PipelineStage]float64
}

// DefaultPredictorParams returns the baseline transition tables with the
// optimistic close policy enabled.
func DefaultPredictorParams() PredictorParams {
	return PredictorParams{
		OptimisticClose: true,
		BaselineProbability: map[model.PipelineStage]float64{
			model.StageSourcing:     0.50,
			model.StageScreening:    0.55,
			model.StageValuation:    0.60,
			model.StageDueDiligence: 0.70,
			model.StageNegotiation:  0.82,
			model.StageClosing:      0.90,
		},
		BaselineDays: map[model.PipelineStage]float64{
			model.StageSourcing:     21,
			model.StageScreening:    14,
			model.StageValuation:    21,
			model.StageDueDiligence: 45,
			model.StageNegotiation:  30,
			model.StageClosing:      21,
		},
	}
}

// Predictor forecasts the next stage transition for active deals. Stateless.
type Predictor struct {
	params PredictorParams
}

// NewPredictor creates a Predictor with the given parameters.
func NewPredictor(params PredictorParams) *Predictor {
	return &Predictor{params: params}
}

// Predict returns one transition prediction per active deal. Deals in a
// terminal stage are skipped; a deal in an unrecognized stage is a
// configuration error.
func (p *Predictor) Predict(deals []model.Deal, velocity *model.PipelineVelocity) ([]model.StageTransitionPrediction, error) {
	var out []model.StageTransitionPrediction
	for _, deal := range deals {
		if deal.Stage.Terminal() {
			continue
		}
		pred, err := p.predictOne(deal, velocity)
		if err != nil {
			return nil, err
		}
		out = append(out, *pred)
	}
	return out, nil
}

func (p *Predictor) predictOne(deal model.Deal, velocity *model.PipelineVelocity) (*model.StageTransitionPrediction, error) {
	next, ok := deal.Stage.Next()
	if !ok {
		return nil, eris.Errorf("pipeline: deal %s has unrecognized stage %q", deal.ID, deal.Stage)
	}

	factors := []string{fmt.Sprintf("baseline conversion %.0f%% from %s",
		p.params.BaselineProbability[deal.Stage]*100, deal.Stage)}

	if p.params.OptimisticClose && deal.Stage.NearTerminal() {
		next = model.StageClosedWon
		factors = append(factors, "late-stage deals forecast directly to close")
	}

	days := p.params.BaselineDays[deal.Stage]
	if velocity != nil {
		if d, ok := velocity.StageDays[deal.Stage]; ok && d > 0 {
			days = d
			factors = append(factors, fmt.Sprintf("historical average %.1f days in %s", d, deal.Stage))
		}
	}

	probability := numeric.Clamp(p.params.BaselineProbability[deal.Stage], 0, 1)

	return &model.StageTransitionPrediction{
		DealID:        deal.ID,
		CurrentStage:  deal.Stage,
		NextStage:     next,
		Probability:   probability,
		EstimatedDays: days,
		Confidence:    confidenceBucket(probability),
		KeyFactors:    factors,
	}, nil
}

// confidenceBucket maps a probability to a qualitative confidence label.
func confidenceBucket(probability float64) model.ConfidenceBucket {
	switch {
	case probability > 0.8:
		return model.ConfidenceHigh
	case probability > 0.6:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}
