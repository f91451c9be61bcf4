// Package pipeline implements stage velocity analysis, transition
// prediction, and revenue forecasting over the active deal collection.
package pipeline

import (
	"go.uber.org/zap"

	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/model"
	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/numeric"
)

// Pipeline trend labels.
const (
	TrendAccelerating = "accelerating"
	TrendSteady       = "steady"
	TrendSlowing      = "slowing"
)

const (
	hoursPerDay = 24.0
	// trendSlopeThreshold is the cycle-time slope (days per day) beyond
	// which the trend is no longer considered steady.
	trendSlopeThreshold = 0.05
)

// AnalyzerParams configures velocity analysis.
type AnalyzerParams struct {
	BaselineDays    map[model.PipelineStage]float64 // fallback when history is missing
	BottleneckRatio float64                         // stage flagged when duration > mean x ratio
}

// DefaultAnalyzerParams returns the standard baseline durations and the
// 1.5x bottleneck threshold.
func DefaultAnalyzerParams() AnalyzerParams {
	return AnalyzerParams{
		BaselineDays: map[model.PipelineStage]float64{
			model.StageSourcing:     21,
			model.StageScreening:    14,
			model.StageValuation:    21,
			model.StageDueDiligence: 45,
			model.StageNegotiation:  30,
			model.StageClosing:      21,
		},
		BottleneckRatio: 1.5,
	}
}

// Analyzer computes pipeline velocity from deal stage histories. Stateless.
type Analyzer struct {
	params AnalyzerParams
}

// NewAnalyzer creates an Analyzer with the given parameters.
func NewAnalyzer(params AnalyzerParams) *Analyzer {
	return &Analyzer{params: params}
}

// Analyze computes per-stage average durations from historical stage
// transitions, falling back to the baseline table for stages without data,
// and derives bottlenecks, an efficiency score, and a cycle-time trend.
// When no historical deals are supplied, completed stages from the active
// deals' own histories are used instead.
func (a *Analyzer) Analyze(active, historical []model.Deal) *model.PipelineVelocity {
	source := historical
	if len(source) == 0 {
		source = active
	}
	observed := stageDurations(source)

	// Bottleneck detection and the total run on the raw durations;
	// rounding a stage that sits exactly at the threshold would otherwise
	// nudge it across the strict-inequality boundary.
	durations := make(map[model.PipelineStage]float64, len(a.params.BaselineDays))
	stageDays := make(map[model.PipelineStage]float64, len(a.params.BaselineDays))
	var total float64
	for _, stage := range model.ActiveStages() {
		days := a.params.BaselineDays[stage]
		if ds, ok := observed[stage]; ok && len(ds) > 0 {
			days = numeric.Mean(ds)
		}
		durations[stage] = days
		stageDays[stage] = numeric.Round2(days)
		total += days
	}

	velocity := &model.PipelineVelocity{
		StageDays:       stageDays,
		TotalDays:       numeric.Round2(total),
		Bottlenecks:     a.bottlenecks(durations),
		EfficiencyScore: numeric.Clamp(150-total/7, 50, 100),
		Trend:           cycleTrend(source),
		HistoricalDeals: len(source),
	}

	zap.L().Info("pipeline: velocity analyzed",
		zap.Float64("total_days", velocity.TotalDays),
		zap.Int("bottlenecks", len(velocity.Bottlenecks)),
		zap.String("trend", velocity.Trend),
	)

	return velocity
}

// bottlenecks returns the stages whose duration strictly exceeds the
// cross-stage mean times the configured ratio.
func (a *Analyzer) bottlenecks(stageDays map[model.PipelineStage]float64) []model.PipelineStage {
	if len(stageDays) == 0 {
		return nil
	}
	var all []float64
	for _, d := range stageDays {
		all = append(all, d)
	}
	threshold := numeric.Mean(all) * a.params.BottleneckRatio

	var out []model.PipelineStage
	for _, stage := range model.ActiveStages() {
		if d, ok := stageDays[stage]; ok && d > threshold {
			out = append(out, stage)
		}
	}
	return out
}

// stageDurations walks each historical deal's stage entries and collects the
// dwell time of every completed stage.
func stageDurations(deals []model.Deal) map[model.PipelineStage][]float64 {
	out := make(map[model.PipelineStage][]float64)
	for _, deal := range deals {
		history := deal.StageHistory
		for i := 0; i+1 < len(history); i++ {
			days := history[i+1].EnteredAt.Sub(history[i].EnteredAt).Hours() / hoursPerDay
			if days < 0 {
				continue
			}
			out[history[i].Stage] = append(out[history[i].Stage], days)
		}
	}
	return out
}

// cycleTrend regresses total cycle time against completion date across
// closed historical deals. A positive slope means deals are taking longer.
func cycleTrend(deals []model.Deal) string {
	var xs, ys []float64
	for _, deal := range deals {
		n := len(deal.StageHistory)
		if n < 2 {
			continue
		}
		last := deal.StageHistory[n-1]
		if !last.Stage.Terminal() {
			continue
		}
		first := deal.StageHistory[0]
		cycle := last.EnteredAt.Sub(first.EnteredAt).Hours() / hoursPerDay
		if cycle <= 0 {
			continue
		}
		xs = append(xs, float64(last.EnteredAt.Unix())/(hoursPerDay*3600))
		ys = append(ys, cycle)
	}
	if len(xs) < 3 {
		return TrendSteady
	}

	slope := numeric.Slope(xs, ys)
	switch {
	case slope > trendSlopeThreshold:
		return TrendSlowing
	case slope < -trendSlopeThreshold:
		return TrendAccelerating
	default:
		return TrendSteady
	}
}
