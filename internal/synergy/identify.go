// Package synergy implements synergy identification, valuation, and
// realization tracking for a target/acquirer pairing.
package synergy

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/model"
	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/numeric"
)

// CompanyProfile holds the financial and operational attributes of one side
// of a deal. Zero values mean the data is unavailable; estimators that
// depend on missing inputs produce no opportunity.
type CompanyProfile struct {
	Name             string   `json:"name"`
	Revenue          float64  `json:"revenue"`
	OperatingCosts   float64  `json:"operating_costs"`
	PretaxIncome     float64  `json:"pretax_income"`
	TotalDebt        float64  `json:"total_debt"`
	ProcurementSpend float64  `json:"procurement_spend"`
	Headcount        int      `json:"headcount"`
	FacilityCount    int      `json:"facility_count"`
	CustomerOverlap  float64  `json:"customer_overlap"` // 0-1, shared customer share
	Markets          []string `json:"markets,omitempty"`
}

// IdentifyParams exposes every estimation multiplier as a named, overridable
// parameter. The defaults reproduce the documented heuristics.
type IdentifyParams struct {
	CrossSellRate       float64 // share of combined revenue unlocked by cross-selling
	MarketExpansionRate float64 // share of target revenue per net-new market exposure
	PricingPowerRate    float64 // share of combined revenue from pricing optimization
	ScaleEconomyRate    float64 // share of combined operating cost saved at scale
	HeadcountOverlapPct float64 // fraction of the smaller headcount that is duplicative
	LoadedCostPerHead   float64 // annual fully loaded cost per consolidated role
	FacilitySavings     float64 // annual savings per consolidated facility
	ProcurementRate     float64 // share of combined procurement spend saved
	TaxOptimizationRate float64 // share of combined pretax income recovered
	RefinancingSpread   float64 // rate improvement applied to target debt
	WorkingCapitalRate  float64 // share of combined revenue freed from working capital
	ProcessEfficiency   float64 // share of combined operating cost from process transfer
	ValueScoreCap       float64 // estimated value at which the value sub-score saturates
}

// DefaultIdentifyParams returns the standard estimation multipliers.
func DefaultIdentifyParams() IdentifyParams {
	return IdentifyParams{
		CrossSellRate:       0.10,
		MarketExpansionRate: 0.08,
		PricingPowerRate:    0.02,
		ScaleEconomyRate:    0.05,
		HeadcountOverlapPct: 0.10,
		LoadedCostPerHead:   90_000,
		FacilitySavings:     250_000,
		ProcurementRate:     0.03,
		TaxOptimizationRate: 0.02,
		RefinancingSpread:   0.015,
		WorkingCapitalRate:  0.01,
		ProcessEfficiency:   0.02,
		ValueScoreCap:       10_000_000,
	}
}

// Identifier generates candidate synergy opportunities from paired company
// profiles. It is stateless and safe for concurrent use.
type Identifier struct {
	params IdentifyParams
}

// NewIdentifier creates an Identifier with the given parameters.
func NewIdentifier(params IdentifyParams) *Identifier {
	return &Identifier{params: params}
}

// Identify produces the prioritized list of synergy opportunities for a
// deal. Opportunities with non-positive estimated value are not emitted.
func (id *Identifier) Identify(dealID string, target, acquirer CompanyProfile) []model.SynergyOpportunity {
	var opps []model.SynergyOpportunity
	add := func(o *model.SynergyOpportunity) {
		if o == nil || o.EstimatedValue <= 0 {
			return
		}
		o.ID = uuid.New().String()
		o.DealID = dealID
		o.Status = model.SynergyIdentified
		o.CreatedAt = time.Now().UTC()
		o.PriorityScore = id.priorityScore(*o)
		opps = append(opps, *o)
	}

	add(id.crossSell(target, acquirer))
	add(id.marketExpansion(target, acquirer))
	add(id.pricingOptimization(target, acquirer))
	add(id.economiesOfScale(target, acquirer))
	add(id.headcountConsolidation(target, acquirer))
	add(id.facilityConsolidation(target, acquirer))
	add(id.procurementSavings(target, acquirer))
	add(id.taxOptimization(target, acquirer))
	add(id.debtRefinancing(target))
	add(id.workingCapital(target, acquirer))
	add(id.processEfficiency(target, acquirer))

	// Stable sort keeps the estimator order for equal priorities.
	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].PriorityScore > opps[j].PriorityScore
	})

	zap.L().Info("synergy: opportunities identified",
		zap.String("deal_id", dealID),
		zap.Int("count", len(opps)),
	)

	return opps
}

func (id *Identifier) crossSell(t, a CompanyProfile) *model.SynergyOpportunity {
	value := (t.Revenue + a.Revenue) * id.params.CrossSellRate * (1 - t.CustomerOverlap)
	return &model.SynergyOpportunity{
		Type:            model.SynergyRevenue,
		Category:        "cross_sell",
		Description:     "Cross-sell each portfolio into the other customer base",
		EstimatedValue:  value,
		TimelineMonths:  18,
		ConfidenceLevel: 0.6,
		Risks:           []string{"customer churn during integration", "sales team alignment"},
	}
}

func (id *Identifier) marketExpansion(t, a CompanyProfile) *model.SynergyOpportunity {
	frac := newMarketFraction(t.Markets, a.Markets)
	value := t.Revenue * frac * id.params.MarketExpansionRate
	return &model.SynergyOpportunity{
		Type:            model.SynergyRevenue,
		Category:        "market_expansion",
		Description:     "Sell target offerings into acquirer markets the target does not serve",
		EstimatedValue:  value,
		TimelineMonths:  24,
		ConfidenceLevel: 0.5,
		Risks:           []string{"localization costs", "channel conflict", "regulatory entry barriers"},
	}
}

func (id *Identifier) pricingOptimization(t, a CompanyProfile) *model.SynergyOpportunity {
	value := (t.Revenue + a.Revenue) * id.params.PricingPowerRate
	return &model.SynergyOpportunity{
		Type:            model.SynergyRevenue,
		Category:        "pricing_optimization",
		Description:     "Harmonize pricing across the combined book",
		EstimatedValue:  value,
		TimelineMonths:  12,
		ConfidenceLevel: 0.5,
		Risks:           []string{"customer pushback"},
	}
}

func (id *Identifier) economiesOfScale(t, a CompanyProfile) *model.SynergyOpportunity {
	value := (t.OperatingCosts + a.OperatingCosts) * id.params.ScaleEconomyRate
	return &model.SynergyOpportunity{
		Type:            model.SynergyCost,
		Category:        "economies_of_scale",
		Description:     "Combined purchasing and shared overhead at scale",
		EstimatedValue:  value,
		TimelineMonths:  12,
		ConfidenceLevel: 0.75,
		Risks:           []string{"integration disruption"},
	}
}

func (id *Identifier) headcountConsolidation(t, a CompanyProfile) *model.SynergyOpportunity {
	smaller := t.Headcount
	if a.Headcount < smaller {
		smaller = a.Headcount
	}
	overlapping := float64(smaller) * id.params.HeadcountOverlapPct
	value := overlapping * id.params.LoadedCostPerHead
	return &model.SynergyOpportunity{
		Type:            model.SynergyCost,
		Category:        "headcount_consolidation",
		Description:     "Consolidate duplicative corporate functions",
		EstimatedValue:  value,
		TimelineMonths:  9,
		ConfidenceLevel: 0.7,
		Risks:           []string{"key talent flight", "severance costs"},
	}
}

func (id *Identifier) facilityConsolidation(t, a CompanyProfile) *model.SynergyOpportunity {
	if t.FacilityCount == 0 || a.FacilityCount == 0 {
		return nil
	}
	smaller := t.FacilityCount
	if a.FacilityCount < smaller {
		smaller = a.FacilityCount
	}
	consolidated := smaller / 2
	value := float64(consolidated) * id.params.FacilitySavings
	return &model.SynergyOpportunity{
		Type:            model.SynergyCost,
		Category:        "facility_consolidation",
		Description:     "Close overlapping offices and facilities",
		EstimatedValue:  value,
		TimelineMonths:  15,
		ConfidenceLevel: 0.65,
		Risks:           []string{"lease break costs", "relocation attrition"},
	}
}

func (id *Identifier) procurementSavings(t, a CompanyProfile) *model.SynergyOpportunity {
	value := (t.ProcurementSpend + a.ProcurementSpend) * id.params.ProcurementRate
	return &model.SynergyOpportunity{
		Type:            model.SynergyCost,
		Category:        "procurement",
		Description:     "Renegotiate supplier contracts on combined volume",
		EstimatedValue:  value,
		TimelineMonths:  12,
		ConfidenceLevel: 0.7,
		Risks:           []string{"supplier concentration"},
	}
}

func (id *Identifier) taxOptimization(t, a CompanyProfile) *model.SynergyOpportunity {
	combined := t.PretaxIncome + a.PretaxIncome
	if combined <= 0 {
		return nil
	}
	value := combined * id.params.TaxOptimizationRate
	return &model.SynergyOpportunity{
		Type:            model.SynergyTax,
		Category:        "tax_optimization",
		Description:     "Optimize the combined entity structure",
		EstimatedValue:  value,
		TimelineMonths:  12,
		ConfidenceLevel: 0.6,
		Risks:           []string{"regulatory scrutiny"},
	}
}

func (id *Identifier) debtRefinancing(t CompanyProfile) *model.SynergyOpportunity {
	value := t.TotalDebt * id.params.RefinancingSpread
	return &model.SynergyOpportunity{
		Type:            model.SynergyFinancial,
		Category:        "debt_refinancing",
		Description:     "Refinance target debt at the acquirer's cost of capital",
		EstimatedValue:  value,
		TimelineMonths:  6,
		ConfidenceLevel: 0.8,
		Risks:           []string{"rate environment shift"},
	}
}

func (id *Identifier) workingCapital(t, a CompanyProfile) *model.SynergyOpportunity {
	value := (t.Revenue + a.Revenue) * id.params.WorkingCapitalRate
	return &model.SynergyOpportunity{
		Type:            model.SynergyFinancial,
		Category:        "working_capital",
		Description:     "Release working capital through combined cash management",
		EstimatedValue:  value,
		TimelineMonths:  9,
		ConfidenceLevel: 0.55,
		Risks:           []string{"payment term renegotiation", "inventory rebalancing"},
	}
}

func (id *Identifier) processEfficiency(t, a CompanyProfile) *model.SynergyOpportunity {
	value := (t.OperatingCosts + a.OperatingCosts) * id.params.ProcessEfficiency
	return &model.SynergyOpportunity{
		Type:            model.SynergyOperational,
		Category:        "process_efficiency",
		Description:     "Transfer best practices and consolidate operating processes",
		EstimatedValue:  value,
		TimelineMonths:  18,
		ConfidenceLevel: 0.6,
		Risks:           []string{"change management fatigue", "system migration"},
	}
}

// priorityScore composes value, confidence, timeline, and risk sub-scores
// into a single ranking: value 40%, confidence 30%, timeline 20%, risk 10%.
func (id *Identifier) priorityScore(o model.SynergyOpportunity) float64 {
	valueScore := numeric.Clamp(o.EstimatedValue/id.params.ValueScoreCap, 0, 1) * 100
	confidenceScore := numeric.Clamp(o.ConfidenceLevel, 0, 1) * 100
	timelineScore := numeric.Clamp((36-float64(o.TimelineMonths))/36, 0, 1) * 100
	riskScore := numeric.Clamp(1-float64(len(o.Risks))*0.2, 0, 1) * 100

	return numeric.Round2(valueScore*0.4 + confidenceScore*0.3 + timelineScore*0.2 + riskScore*0.1)
}

// newMarketFraction returns the share of acquirer markets the target is not
// already in. Returns 0 when either market list is empty.
func newMarketFraction(targetMarkets, acquirerMarkets []string) float64 {
	if len(targetMarkets) == 0 || len(acquirerMarkets) == 0 {
		return 0
	}
	existing := make(map[string]struct{}, len(targetMarkets))
	for _, m := range targetMarkets {
		existing[m] = struct{}{}
	}
	novel := 0
	for _, m := range acquirerMarkets {
		if _, ok := existing[m]; !ok {
			novel++
		}
	}
	return float64(novel) / float64(len(acquirerMarkets))
}
