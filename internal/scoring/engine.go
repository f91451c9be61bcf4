package scoring

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/model"
	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/numeric"
)

// Enricher optionally supplements a rule-based score with narrative
// strengths and concerns. Scoring must function with it absent: any error
// falls back to the rule-based output.
type Enricher interface {
	Enrich(ctx context.Context, deal model.Deal, score *model.DealScore) (strengths, concerns []string, err error)
}

// Engine combines component scores into an overall deal score with a
// recommendation. It is stateless and safe for concurrent use.
type Engine struct {
	weights  Weights
	enricher Enricher
}

// Option configures an Engine.
type Option func(*Engine)

// WithEnricher attaches an optional narrative enricher.
func WithEnricher(e Enricher) Option {
	return func(eng *Engine) { eng.enricher = e }
}

// NewEngine validates the weight configuration and returns a scoring engine.
func NewEngine(weights Weights, opts ...Option) (*Engine, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	eng := &Engine{weights: weights}
	for _, opt := range opts {
		opt(eng)
	}
	return eng, nil
}

// Score evaluates a deal and returns an immutable DealScore. Missing
// attributes never fail scoring; they lower the confidence instead. Invalid
// categorical values are a boundary error.
func (e *Engine) Score(ctx context.Context, deal model.Deal) (*model.DealScore, error) {
	if err := deal.Attributes.Validate(); err != nil {
		return nil, err
	}

	components := ComponentScores(deal.Attributes)
	// The recommendation ladder reads the rounded score, so a deal shown
	// as 80.0 never carries a sub-80 recommendation.
	overall := numeric.Round2(e.overallScore(components))
	riskLevel := riskLevelFor(components["risk"])
	confidence := Confidence(deal.Attributes)

	score := &model.DealScore{
		DealID:          deal.ID,
		DealName:        deal.Name,
		ComponentScores: components,
		OverallScore:    overall,
		RiskLevel:       riskLevel,
		Confidence:      confidence,
		Recommendation:  recommend(overall, riskLevel, confidence),
		KeyStrengths:    keyStrengths(components),
		KeyConcerns:     keyConcerns(components),
		ScoredAt:        time.Now().UTC(),
	}

	if e.enricher != nil {
		strengths, concerns, err := e.enricher.Enrich(ctx, deal, score)
		if err != nil {
			zap.L().Warn("scoring: enrichment unavailable, using rule-based output",
				zap.String("deal_id", deal.ID),
				zap.Error(err),
			)
		} else {
			score.KeyStrengths = append(score.KeyStrengths, strengths...)
			score.KeyConcerns = append(score.KeyConcerns, concerns...)
		}
	}

	zap.L().Info("scoring: deal scored",
		zap.String("deal_id", deal.ID),
		zap.Float64("overall_score", score.OverallScore),
		zap.String("recommendation", string(score.Recommendation)),
		zap.Float64("confidence", score.Confidence),
	)

	return score, nil
}

// overallScore is the weighted sum of component scores with risk inverted.
func (e *Engine) overallScore(components map[string]float64) float64 {
	w := e.weights
	return components["financial"]*w.Financial +
		components["strategic"]*w.Strategic +
		components["market"]*w.Market +
		(100-components["risk"])*w.Risk +
		components["execution"]*w.Execution +
		components["team"]*w.Team
}

// riskLevelFor buckets a raw risk score into a qualitative level.
func riskLevelFor(risk float64) model.RiskLevel {
	switch {
	case risk < 40:
		return model.RiskLow
	case risk < 60:
		return model.RiskMedium
	case risk < 80:
		return model.RiskHigh
	default:
		return model.RiskCritical
	}
}

// recommend applies the recommendation ladder in strict order. Boundary
// scores fall into the higher bracket.
func recommend(score float64, risk model.RiskLevel, confidence float64) model.Recommendation {
	switch {
	case score >= 80 && (risk == model.RiskLow || risk == model.RiskMedium):
		return model.RecommendProceed
	case score >= 65 && risk != model.RiskCritical:
		return model.RecommendCaution
	case score >= 50:
		return model.RecommendInvestigate
	case score < 40 && confidence > 0.7:
		return model.RecommendDecline
	default:
		return model.RecommendNegotiate
	}
}

// expectedFieldCount is the number of attribute fields that feed confidence.
const expectedFieldCount = 17

// Confidence returns the fraction of expected attribute fields present, with
// a 0.1 bonus each for completed due diligence and third-party validation,
// capped at 1.0.
func Confidence(a model.DealAttributes) float64 {
	present := 0

	for _, p := range []*float64{
		a.GrowthRate, a.EBITDAMargin, a.DebtToEquity, a.RevenueQuality,
		a.MarketGrowthRate, a.MarketShare, a.CustomerConcentration,
	} {
		if p != nil {
			present++
		}
	}
	if a.PriorAcquisitions != nil {
		present++
	}
	for _, s := range []string{
		a.MarketPosition, a.SynergyPotential, a.ProductAdjacency,
		a.CompetitiveIntensity, a.IntegrationComplexity, a.RegulatoryExposure,
		a.DealTeamExperience, a.ManagementRetention, a.KeyPersonDependency,
	} {
		if s != "" {
			present++
		}
	}

	confidence := float64(present) / expectedFieldCount
	if a.DueDiligenceComplete {
		confidence += 0.1
	}
	if a.ThirdPartyValidated {
		confidence += 0.1
	}
	if confidence > 1.0 {
		confidence = 1.0
	}
	return numeric.Round2(confidence)
}

// strengthLabels maps component names to strength descriptions.
var strengthLabels = map[string]string{
	"financial": "strong financial profile",
	"strategic": "high strategic fit",
	"market":    "attractive market dynamics",
	"execution": "high execution readiness",
	"team":      "deep management bench",
}

// concernLabels maps component names to concern descriptions.
var concernLabels = map[string]string{
	"financial": "weak financial profile",
	"strategic": "limited strategic fit",
	"market":    "challenging market dynamics",
	"execution": "low execution readiness",
	"team":      "management retention risk",
}

// componentOrder fixes the iteration order for deterministic output.
var componentOrder = []string{"financial", "strategic", "market", "risk", "execution", "team"}

func keyStrengths(components map[string]float64) []string {
	var out []string
	for _, name := range componentOrder {
		if name == "risk" {
			if components[name] < 35 {
				out = append(out, "low overall deal risk")
			}
			continue
		}
		if components[name] >= 75 {
			out = append(out, strengthLabels[name])
		}
	}
	return out
}

func keyConcerns(components map[string]float64) []string {
	var out []string
	for _, name := range componentOrder {
		if name == "risk" {
			if components[name] >= 60 {
				out = append(out, "elevated deal risk")
			}
			continue
		}
		if components[name] <= 40 {
			out = append(out, concernLabels[name])
		}
	}
	return out
}
