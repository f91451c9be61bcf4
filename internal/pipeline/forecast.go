package pipeline

import (
	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/model"
	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/numeric"
)

// ForecastParams configures revenue forecasting over the active pipeline.
type ForecastParams struct {
	// CloseProbability weights each active stage's deal value by its chance
	// of eventually closing.
	CloseProbability map[model.PipelineStage]float64

	// CaseSpread widens the expected value into best and worst cases.
	CaseSpread float64
}

// DefaultForecastParams returns the standard stage probability table with a
// 30% best/worst spread.
func DefaultForecastParams() ForecastParams {
	return ForecastParams{
		CloseProbability: map[model.PipelineStage]float64{
			model.StageSourcing:     0.05,
			model.StageScreening:    0.10,
			model.StageValuation:    0.20,
			model.StageDueDiligence: 0.40,
			model.StageNegotiation:  0.65,
			model.StageClosing:      0.85,
		},
		CaseSpread: 0.30,
	}
}

// Forecaster produces probability-weighted revenue projections. Stateless.
type Forecaster struct {
	params ForecastParams
}

// NewForecaster creates a Forecaster with the given parameters.
func NewForecaster(params ForecastParams) *Forecaster {
	return &Forecaster{params: params}
}

// Forecast weights every active deal's value by its stage close probability
// and spreads the expected total evenly across a twelve month horizon.
// Terminal deals contribute nothing.
func (f *Forecaster) Forecast(deals []model.Deal) *model.RevenueForecast {
	var expected, pipelineValue float64
	var count int
	for _, deal := range deals {
		if deal.Stage.Terminal() {
			continue
		}
		prob, ok := f.params.CloseProbability[deal.Stage]
		if !ok {
			continue
		}
		expected += deal.Value * prob
		pipelineValue += deal.Value
		count++
	}

	best := expected * (1 + f.params.CaseSpread)
	worst := expected * (1 - f.params.CaseSpread)

	monthlyBase := expected / 12
	monthlyBest := best / 12
	monthlyWorst := worst / 12

	monthly := make([]model.MonthProjection, 0, 12)
	for m := 1; m <= 12; m++ {
		monthly = append(monthly, model.MonthProjection{
			Month: m,
			Base:  numeric.Round2(monthlyBase),
			Best:  numeric.Round2(monthlyBest),
			Worst: numeric.Round2(monthlyWorst),
		})
	}

	quarterly := make([]model.QuarterProjection, 0, 4)
	for q := 1; q <= 4; q++ {
		quarterly = append(quarterly, model.QuarterProjection{
			Quarter: q,
			Base:    numeric.Round2(monthlyBase * 3),
			Best:    numeric.Round2(monthlyBest * 3),
			Worst:   numeric.Round2(monthlyWorst * 3),
		})
	}

	return &model.RevenueForecast{
		ExpectedAnnual: numeric.Round2(expected),
		BestCase:       numeric.Round2(best),
		WorstCase:      numeric.Round2(worst),
		Monthly:        monthly,
		Quarterly:      quarterly,
		DealCount:      count,
		PipelineValue:  numeric.Round2(pipelineValue),
	}
}
