package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// Deal represents an acquisition opportunity moving through the pipeline.
type Deal struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Industry     string         `json:"industry,omitempty"`
	Stage        PipelineStage  `json:"stage"`
	Value        float64        `json:"value"` // enterprise value in dollars
	Attributes   DealAttributes `json:"attributes"`
	StageHistory []StageEntry   `json:"stage_history,omitempty"`
	CreatedAt    time.Time      `json:"created_at,omitempty"`
}

// DealAttributes holds the scoring inputs for a deal. All fields are
// optional; missing values fall back to documented defaults and lower the
// scoring confidence instead of raising errors.
type DealAttributes struct {
	// Financial.
	GrowthRate     *float64 `json:"growth_rate,omitempty"`     // revenue growth, percent
	EBITDAMargin   *float64 `json:"ebitda_margin,omitempty"`   // percent
	DebtToEquity   *float64 `json:"debt_to_equity,omitempty"`  // defaults to 1.0
	RevenueQuality *float64 `json:"revenue_quality,omitempty"` // recurring revenue share, percent

	// Strategic.
	MarketPosition   string `json:"market_position,omitempty"`   // leader | strong | average | weak
	SynergyPotential string `json:"synergy_potential,omitempty"` // high | medium | low
	ProductAdjacency string `json:"product_adjacency,omitempty"` // high | medium | low

	// Market.
	MarketGrowthRate     *float64 `json:"market_growth_rate,omitempty"`    // percent
	MarketShare          *float64 `json:"market_share,omitempty"`          // percent
	CompetitiveIntensity string   `json:"competitive_intensity,omitempty"` // low | medium | high

	// Risk.
	IntegrationComplexity string   `json:"integration_complexity,omitempty"` // low | medium | high, defaults to medium
	CustomerConcentration *float64 `json:"customer_concentration,omitempty"` // top-10 revenue share, percent
	RegulatoryExposure    string   `json:"regulatory_exposure,omitempty"`    // low | medium | high
	LitigationPending     bool     `json:"litigation_pending,omitempty"`

	// Execution.
	DealTeamExperience string `json:"deal_team_experience,omitempty"` // high | medium | low
	PriorAcquisitions  *int   `json:"prior_acquisitions,omitempty"`

	// Team.
	ManagementRetention string `json:"management_retention,omitempty"`  // high | medium | low
	KeyPersonDependency string `json:"key_person_dependency,omitempty"` // high | medium | low
	LeadershipDepth     string `json:"leadership_depth,omitempty"`      // strong | adequate | thin

	// Confidence flags.
	DueDiligenceComplete bool `json:"due_diligence_complete,omitempty"`
	ThirdPartyValidated  bool `json:"third_party_validated,omitempty"`
}

// levelValues enumerates the accepted values for each categorical field.
var levelValues = map[string][]string{
	"market_position":        {"leader", "strong", "average", "weak"},
	"synergy_potential":      {"high", "medium", "low"},
	"product_adjacency":      {"high", "medium", "low"},
	"competitive_intensity":  {"low", "medium", "high"},
	"integration_complexity": {"low", "medium", "high"},
	"regulatory_exposure":    {"low", "medium", "high"},
	"deal_team_experience":   {"high", "medium", "low"},
	"management_retention":   {"high", "medium", "low"},
	"key_person_dependency":  {"high", "medium", "low"},
	"leadership_depth":       {"strong", "adequate", "thin"},
}

// Validate checks that every categorical attribute holds an enumerated value.
// Empty strings are allowed (missing data); unrecognized non-empty values are
// a boundary error so misconfiguration cannot silently skew scores.
func (a DealAttributes) Validate() error {
	fields := map[string]string{
		"market_position":        a.MarketPosition,
		"synergy_potential":      a.SynergyPotential,
		"product_adjacency":      a.ProductAdjacency,
		"competitive_intensity":  a.CompetitiveIntensity,
		"integration_complexity": a.IntegrationComplexity,
		"regulatory_exposure":    a.RegulatoryExposure,
		"deal_team_experience":   a.DealTeamExperience,
		"management_retention":   a.ManagementRetention,
		"key_person_dependency":  a.KeyPersonDependency,
		"leadership_depth":       a.LeadershipDepth,
	}
	for name, val := range fields {
		if val == "" {
			continue
		}
		ok := false
		for _, allowed := range levelValues[name] {
			if val == allowed {
				ok = true
				break
			}
		}
		if !ok {
			return eris.Errorf("model: invalid %s %q", name, val)
		}
	}
	return nil
}

// RiskLevel buckets a risk component score into a qualitative label.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Recommendation is the deal-level action derived from a score.
type Recommendation string

const (
	RecommendProceed     Recommendation = "proceed"
	RecommendCaution     Recommendation = "proceed_with_caution"
	RecommendInvestigate Recommendation = "investigate_further"
	RecommendNegotiate   Recommendation = "negotiate_terms"
	RecommendDecline     Recommendation = "decline"
)

// DealScore is the immutable result of a single scoring invocation.
type DealScore struct {
	DealID          string             `json:"deal_id"`
	DealName        string             `json:"deal_name,omitempty"`
	ComponentScores map[string]float64 `json:"component_scores"`
	OverallScore    float64            `json:"overall_score"`
	RiskLevel       RiskLevel          `json:"risk_level"`
	Confidence      float64            `json:"confidence"`
	Recommendation  Recommendation     `json:"recommendation"`
	KeyStrengths    []string           `json:"key_strengths,omitempty"`
	KeyConcerns     []string           `json:"key_concerns,omitempty"`
	ScoredAt        time.Time          `json:"scored_at"`
}

// PipelineVelocity summarizes stage dwell times across the pipeline.
type PipelineVelocity struct {
	StageDays       map[PipelineStage]float64 `json:"stage_days"`
	TotalDays       float64                   `json:"total_days"`
	Bottlenecks     []PipelineStage           `json:"bottlenecks,omitempty"`
	EfficiencyScore float64                   `json:"efficiency_score"`
	Trend           string                    `json:"trend"` // accelerating | steady | slowing
	HistoricalDeals int                       `json:"historical_deals"`
}

// ConfidenceBucket labels the reliability of a transition prediction.
type ConfidenceBucket string

const (
	ConfidenceHigh   ConfidenceBucket = "high"
	ConfidenceMedium ConfidenceBucket = "medium"
	ConfidenceLow    ConfidenceBucket = "low"
)

// StageTransitionPrediction forecasts the next stage move for a single deal.
type StageTransitionPrediction struct {
	DealID        string           `json:"deal_id"`
	CurrentStage  PipelineStage    `json:"current_stage"`
	NextStage     PipelineStage    `json:"next_stage"`
	Probability   float64          `json:"probability"`
	EstimatedDays float64          `json:"estimated_days"`
	Confidence    ConfidenceBucket `json:"confidence"`
	KeyFactors    []string         `json:"key_factors,omitempty"`
}

// MonthProjection is one month of the revenue forecast.
type MonthProjection struct {
	Month int     `json:"month"` // 1-12
	Base  float64 `json:"base"`
	Best  float64 `json:"best"`
	Worst float64 `json:"worst"`
}

// QuarterProjection is one quarter of the revenue forecast.
type QuarterProjection struct {
	Quarter int     `json:"quarter"` // 1-4
	Base    float64 `json:"base"`
	Best    float64 `json:"best"`
	Worst   float64 `json:"worst"`
}

// RevenueForecast holds probability-weighted revenue projections over the
// active pipeline.
type RevenueForecast struct {
	ExpectedAnnual float64             `json:"expected_annual"`
	BestCase       float64             `json:"best_case"`
	WorstCase      float64             `json:"worst_case"`
	Monthly        []MonthProjection   `json:"monthly"`
	Quarterly      []QuarterProjection `json:"quarterly"`
	DealCount      int                 `json:"deal_count"`
	PipelineValue  float64             `json:"pipeline_value"` // unweighted total
}
