package synergy

import (
	"github.com/rotisserie/eris"

	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/model"
	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/numeric"
)

// MarketData supplies the market context for synergy valuation.
type MarketData struct {
	GrowthRate   float64 `json:"growth_rate"`   // annual market growth, e.g. 0.03
	DiscountRate float64 `json:"discount_rate"` // annual discount rate, e.g. 0.10
}

// ValueDistribution is the quantified value range for one opportunity.
type ValueDistribution struct {
	SynergyID          string  `json:"synergy_id"`
	Conservative       float64 `json:"conservative"`
	MostLikely         float64 `json:"most_likely"`
	Optimistic         float64 `json:"optimistic"`
	NetPresentValue    float64 `json:"net_present_value"`
	RiskAdjustment     float64 `json:"risk_adjustment"`
	TimelineAdjustment float64 `json:"timeline_adjustment"`
	MarketAdjustment   float64 `json:"market_adjustment"`
}

// Adjustment floors keep a long risk list or timeline from zeroing a value.
const (
	riskAdjustmentFloor     = 0.7
	riskPerItem             = 0.05
	timelineAdjustmentFloor = 0.8
	timelineHorizonMonths   = 60.0
	timelineDragRate        = 0.2
	optimisticUplift        = 1.2
)

// Valuer quantifies synergy opportunities. Stateless.
type Valuer struct{}

// NewValuer creates a Valuer.
func NewValuer() *Valuer {
	return &Valuer{}
}

// Quantify computes the conservative/most-likely/optimistic value
// distribution and NPV for an opportunity under the given market data.
func (v *Valuer) Quantify(opp model.SynergyOpportunity, market MarketData) (*ValueDistribution, error) {
	if opp.EstimatedValue < 0 {
		return nil, eris.Errorf("synergy: opportunity %s has negative estimated value", opp.ID)
	}

	riskAdj := 1 - float64(len(opp.Risks))*riskPerItem
	if riskAdj < riskAdjustmentFloor {
		riskAdj = riskAdjustmentFloor
	}

	timelineAdj := 1 - float64(opp.TimelineMonths)/timelineHorizonMonths*timelineDragRate
	if timelineAdj < timelineAdjustmentFloor {
		timelineAdj = timelineAdjustmentFloor
	}

	marketAdj := 1 + market.GrowthRate

	base := opp.EstimatedValue
	mostLikely := base * opp.ConfidenceLevel * riskAdj

	return &ValueDistribution{
		SynergyID:          opp.ID,
		Conservative:       numeric.Round2(mostLikely * timelineAdj),
		MostLikely:         numeric.Round2(mostLikely),
		Optimistic:         numeric.Round2(base * marketAdj * optimisticUplift),
		NetPresentValue:    numeric.Round2(numeric.NPVMonthly(mostLikely, opp.TimelineMonths, market.DiscountRate)),
		RiskAdjustment:     riskAdj,
		TimelineAdjustment: timelineAdj,
		MarketAdjustment:   marketAdj,
	}, nil
}
