// Package scoring implements rule-based multi-component deal scoring.
package scoring

import (
	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/model"
	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/numeric"
)

// Base scores per dimension. Each component starts from its base, applies a
// threshold ladder per relevant attribute, and clamps to [0,100].
const (
	baseFinancial = 50.0
	baseStrategic = 50.0
	baseMarket    = 50.0
	baseRisk      = 30.0
	baseExecution = 60.0
	baseTeam      = 50.0

	// defaultDebtToEquity is used when the attribute is absent.
	defaultDebtToEquity = 1.0
	// defaultComplexity is used when integration complexity is absent.
	defaultComplexity = "medium"
)

// FinancialScore rates growth, margins, and leverage. Missing numeric fields
// contribute nothing except debt-to-equity, which defaults to 1.0.
func FinancialScore(a model.DealAttributes) float64 {
	score := baseFinancial

	if a.GrowthRate != nil {
		switch v := *a.GrowthRate; {
		case v > 20:
			score += 20
		case v > 10:
			score += 10
		case v < 0:
			score -= 15
		}
	}

	if a.EBITDAMargin != nil {
		switch v := *a.EBITDAMargin; {
		case v >= 25:
			score += 20
		case v >= 15:
			score += 15
		case v >= 10:
			score += 10
		case v < 5:
			score -= 10
		}
	}

	de := defaultDebtToEquity
	if a.DebtToEquity != nil {
		de = *a.DebtToEquity
	}
	switch {
	case de < 0.3:
		score += 15
	case de < 0.5:
		score += 10
	case de < 1.0:
		score += 5
	case de > 2.5:
		score -= 20
	case de > 1.5:
		score -= 10
	}

	if a.RevenueQuality != nil {
		switch v := *a.RevenueQuality; {
		case v >= 70:
			score += 10
		case v >= 40:
			score += 5
		}
	}

	return numeric.Clamp(score, 0, 100)
}

// StrategicScore rates market position, synergy potential, and product fit.
func StrategicScore(a model.DealAttributes) float64 {
	score := baseStrategic

	switch a.MarketPosition {
	case "leader":
		score += 20
	case "strong":
		score += 10
	case "weak":
		score -= 10
	}

	switch a.SynergyPotential {
	case "high":
		score += 15
	case "medium":
		score += 5
	}

	switch a.ProductAdjacency {
	case "high":
		score += 10
	case "medium":
		score += 5
	}

	return numeric.Clamp(score, 0, 100)
}

// MarketScore rates the target's market dynamics.
func MarketScore(a model.DealAttributes) float64 {
	score := baseMarket

	if a.MarketGrowthRate != nil {
		switch v := *a.MarketGrowthRate; {
		case v > 15:
			score += 20
		case v > 8:
			score += 10
		case v > 3:
			score += 5
		case v < 0:
			score -= 10
		}
	}

	switch a.CompetitiveIntensity {
	case "low":
		score += 15
	case "high":
		score -= 10
	}

	if a.MarketShare != nil {
		switch v := *a.MarketShare; {
		case v > 25:
			score += 15
		case v > 10:
			score += 8
		case v > 5:
			score += 3
		}
	}

	return numeric.Clamp(score, 0, 100)
}

// RiskScore rates deal risk; higher means riskier. The overall score weights
// in the inverted value (100 - risk).
func RiskScore(a model.DealAttributes) float64 {
	score := baseRisk

	complexity := a.IntegrationComplexity
	if complexity == "" {
		complexity = defaultComplexity
	}
	switch complexity {
	case "high":
		score += 20
	case "medium":
		score += 10
	}

	if a.CustomerConcentration != nil {
		switch v := *a.CustomerConcentration; {
		case v > 50:
			score += 20
		case v > 30:
			score += 15
		case v > 15:
			score += 5
		}
	}

	switch a.RegulatoryExposure {
	case "high":
		score += 15
	case "medium":
		score += 5
	}

	if a.DebtToEquity != nil && *a.DebtToEquity > 2.5 {
		score += 10
	}

	if a.LitigationPending {
		score += 15
	}

	return numeric.Clamp(score, 0, 100)
}

// ExecutionScore rates the acquirer's ability to close and integrate.
func ExecutionScore(a model.DealAttributes) float64 {
	score := baseExecution

	complexity := a.IntegrationComplexity
	if complexity == "" {
		complexity = defaultComplexity
	}
	switch complexity {
	case "low":
		score += 15
	case "high":
		score -= 15
	}

	switch a.DealTeamExperience {
	case "high":
		score += 10
	case "low":
		score -= 10
	}

	if a.PriorAcquisitions != nil {
		switch v := *a.PriorAcquisitions; {
		case v >= 3:
			score += 10
		case v >= 1:
			score += 5
		}
	}

	if a.DueDiligenceComplete {
		score += 5
	}

	return numeric.Clamp(score, 0, 100)
}

// TeamScore rates management quality and retention risk.
func TeamScore(a model.DealAttributes) float64 {
	score := baseTeam

	switch a.ManagementRetention {
	case "high":
		score += 20
	case "medium":
		score += 5
	case "low":
		score -= 15
	}

	switch a.KeyPersonDependency {
	case "high":
		score -= 15
	case "low":
		score += 10
	}

	switch a.LeadershipDepth {
	case "strong":
		score += 15
	case "thin":
		score -= 10
	}

	return numeric.Clamp(score, 0, 100)
}

// ComponentScores computes every dimension score for an attribute set.
func ComponentScores(a model.DealAttributes) map[string]float64 {
	return map[string]float64{
		"financial": FinancialScore(a),
		"strategic": StrategicScore(a),
		"market":    MarketScore(a),
		"risk":      RiskScore(a),
		"execution": ExecutionScore(a),
		"team":      TeamScore(a),
	}
}
