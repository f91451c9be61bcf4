package synergy

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/model"
	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/numeric"
)

// RealizationStore is the append-capable history keyed by synergy id that
// the tracker requires. ListRealizations must return records in period order.
type RealizationStore interface {
	AppendRealization(ctx context.Context, rec model.SynergyRealization) error
	ListRealizations(ctx context.Context, synergyID string) ([]model.SynergyRealization, error)
}

// Period is one measurement period of realized-vs-planned value.
type Period struct {
	Start    time.Time `json:"period_start"`
	End      time.Time `json:"period_end"`
	Realized float64   `json:"realized_value"`
	Planned  float64   `json:"planned_value"`
}

// Window bounds a portfolio metrics computation. A zero window includes all
// history.
type Window struct {
	Start time.Time `json:"start,omitempty"`
	End   time.Time `json:"end,omitempty"`
}

// TrackerParams holds the portfolio heuristics, all overridable.
type TrackerParams struct {
	IntegrationCostRate float64 // integration cost as a share of identified value
	MaxPaybackMonths    float64 // payback cap
	DiscountRate        float64 // annual discount rate for the portfolio NPV
}

// DefaultTrackerParams returns the documented heuristics: integration cost
// 15% of identified value, payback capped at 120 months, 10% discount rate.
func DefaultTrackerParams() TrackerParams {
	return TrackerParams{
		IntegrationCostRate: 0.15,
		MaxPaybackMonths:    120,
		DiscountRate:        0.10,
	}
}

// Tracker records period realizations and rolls up portfolio metrics.
// Appends for the same synergy id must be serialized by the caller; the
// cumulative rate assumes a complete, ordered history.
type Tracker struct {
	store  RealizationStore
	params TrackerParams
}

// NewTracker creates a Tracker over the given realization store.
func NewTracker(store RealizationStore, params TrackerParams) *Tracker {
	return &Tracker{store: store, params: params}
}

// Record appends one period of realized-vs-planned value for a synergy and
// recomputes the cumulative realization rate from the full history. Periods
// must arrive in time order; an out-of-order period is rejected.
func (t *Tracker) Record(ctx context.Context, synergyID string, p Period) (*model.SynergyRealization, error) {
	if synergyID == "" {
		return nil, eris.New("synergy: synergy id is required")
	}
	if !p.End.After(p.Start) {
		return nil, eris.Errorf("synergy: period end %s must be after start %s", p.End, p.Start)
	}

	history, err := t.store.ListRealizations(ctx, synergyID)
	if err != nil {
		return nil, eris.Wrapf(err, "synergy: list realizations for %s", synergyID)
	}

	if n := len(history); n > 0 && p.Start.Before(history[n-1].PeriodEnd) {
		return nil, eris.Errorf("synergy: period starting %s overlaps recorded history for %s",
			p.Start.Format(time.DateOnly), synergyID)
	}

	// Cumulative rate over the full history including this period. The rate
	// is recomputed from scratch rather than incrementally averaged.
	realizedSum := p.Realized
	plannedSum := p.Planned
	for _, h := range history {
		realizedSum += h.RealizedValue
		plannedSum += h.PlannedValue
	}
	var rate float64
	if plannedSum > 0 {
		rate = realizedSum / plannedSum
	}

	variance := p.Realized - p.Planned
	var variancePct float64
	if p.Planned != 0 {
		variancePct = variance / p.Planned * 100
	}

	rec := model.SynergyRealization{
		ID:             uuid.New().String(),
		SynergyID:      synergyID,
		PeriodStart:    p.Start,
		PeriodEnd:      p.End,
		RealizedValue:  p.Realized,
		PlannedValue:   p.Planned,
		Variance:       numeric.Round2(variance),
		VariancePct:    numeric.Round2(variancePct),
		CumulativeRate: numeric.Round2(rate),
		RecordedAt:     time.Now().UTC(),
	}

	if err := t.store.AppendRealization(ctx, rec); err != nil {
		return nil, eris.Wrapf(err, "synergy: append realization for %s", synergyID)
	}

	zap.L().Info("synergy: realization recorded",
		zap.String("synergy_id", synergyID),
		zap.Float64("realized", p.Realized),
		zap.Float64("planned", p.Planned),
		zap.Float64("cumulative_rate", rec.CumulativeRate),
	)

	return &rec, nil
}

// PortfolioMetrics rolls up identified and realized value across the given
// opportunities over a measurement window. Cancelled opportunities do not
// count toward identified value.
func (t *Tracker) PortfolioMetrics(ctx context.Context, opps []model.SynergyOpportunity, window Window) (*model.ValueCreationMetrics, error) {
	byType := make(map[model.SynergyType]model.TypeBreakdown)
	var totalIdentified, totalRealized, totalNPV float64

	for _, opp := range opps {
		b := byType[opp.Type]

		if opp.Status != model.SynergyCancelled {
			totalIdentified += opp.EstimatedValue
			totalNPV += numeric.NPVMonthly(opp.EstimatedValue, opp.TimelineMonths, t.params.DiscountRate)
			b.Count++
			b.Identified += opp.EstimatedValue
		}

		history, err := t.store.ListRealizations(ctx, opp.ID)
		if err != nil {
			return nil, eris.Wrapf(err, "synergy: list realizations for %s", opp.ID)
		}
		for _, h := range history {
			if !inWindow(h.PeriodEnd, window) {
				continue
			}
			totalRealized += h.RealizedValue
			b.Realized += h.RealizedValue
		}

		byType[opp.Type] = b
	}

	var rate float64
	if totalIdentified > 0 {
		rate = totalRealized / totalIdentified
	}

	integrationCost := totalIdentified * t.params.IntegrationCostRate

	var roi float64
	if integrationCost > 0 {
		roi = (totalRealized - integrationCost) / integrationCost * 100
	}

	// Payback is unbounded (nil) when no value has been realized.
	var payback *float64
	if totalRealized > 0 && integrationCost > 0 {
		months := integrationCost / (totalRealized / 12)
		if months > t.params.MaxPaybackMonths {
			months = t.params.MaxPaybackMonths
		}
		months = numeric.Round2(months)
		payback = &months
	}

	return &model.ValueCreationMetrics{
		TotalIdentified: numeric.Round2(totalIdentified),
		TotalRealized:   numeric.Round2(totalRealized),
		RealizationRate: numeric.Round2(rate),
		IntegrationCost: numeric.Round2(integrationCost),
		ROIPct:          numeric.Round2(roi),
		NetPresentValue: numeric.Round2(totalNPV),
		PaybackMonths:   payback,
		ByType:          byType,
		WindowStart:     window.Start,
		WindowEnd:       window.End,
	}, nil
}

func inWindow(ts time.Time, w Window) bool {
	if !w.Start.IsZero() && ts.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && ts.After(w.End) {
		return false
	}
	return true
}
