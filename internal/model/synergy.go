package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// SynergyType classifies the nature of a synergy opportunity.
type SynergyType string

const (
	SynergyRevenue     SynergyType = "revenue"
	SynergyCost        SynergyType = "cost"
	SynergyTax         SynergyType = "tax"
	SynergyFinancial   SynergyType = "financial"
	SynergyOperational SynergyType = "operational"
)

// synergyTypes lists all valid types in a stable order.
var synergyTypes = []SynergyType{
	SynergyRevenue, SynergyCost, SynergyTax, SynergyFinancial, SynergyOperational,
}

// SynergyTypes returns all valid synergy types in a stable order.
func SynergyTypes() []SynergyType {
	return synergyTypes
}

// ParseSynergyType converts a string into a SynergyType, failing fast on
// unrecognized values.
func ParseSynergyType(s string) (SynergyType, error) {
	for _, t := range synergyTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", eris.Errorf("model: unknown synergy type %q", s)
}

// SynergyStatus tracks a synergy opportunity through realization.
type SynergyStatus string

const (
	SynergyIdentified SynergyStatus = "identified"
	SynergyPlanned    SynergyStatus = "planned"
	SynergyInProgress SynergyStatus = "in_progress"
	SynergyRealized   SynergyStatus = "realized"
	SynergyAtRisk     SynergyStatus = "at_risk"
	SynergyDelayed    SynergyStatus = "delayed"
	SynergyCancelled  SynergyStatus = "cancelled"
)

// statusTransitions defines the allowed state machine. AT_RISK and DELAYED
// are recoverable; REALIZED and CANCELLED are terminal.
var statusTransitions = map[SynergyStatus][]SynergyStatus{
	SynergyIdentified: {SynergyPlanned, SynergyCancelled},
	SynergyPlanned:    {SynergyInProgress, SynergyCancelled},
	SynergyInProgress: {SynergyRealized, SynergyAtRisk, SynergyCancelled},
	SynergyAtRisk:     {SynergyDelayed, SynergyInProgress, SynergyCancelled},
	SynergyDelayed:    {SynergyInProgress, SynergyAtRisk, SynergyCancelled},
	SynergyRealized:   nil,
	SynergyCancelled:  nil,
}

// ParseSynergyStatus converts a string into a SynergyStatus.
func ParseSynergyStatus(s string) (SynergyStatus, error) {
	if _, ok := statusTransitions[SynergyStatus(s)]; !ok {
		return "", eris.Errorf("model: unknown synergy status %q", s)
	}
	return SynergyStatus(s), nil
}

// Terminal reports whether the status admits no further transitions.
func (s SynergyStatus) Terminal() bool {
	return s == SynergyRealized || s == SynergyCancelled
}

// CanTransition reports whether moving from s to next is allowed.
func (s SynergyStatus) CanTransition(next SynergyStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// SynergyOpportunity is a quantifiable benefit expected from combining two
// companies. Opportunities are never deleted, only cancelled.
type SynergyOpportunity struct {
	ID              string        `json:"id"`
	DealID          string        `json:"deal_id,omitempty"`
	Type            SynergyType   `json:"type"`
	Category        string        `json:"category"`
	Description     string        `json:"description,omitempty"`
	EstimatedValue  float64       `json:"estimated_value"` // annual, dollars
	TimelineMonths  int           `json:"realization_timeline_months"`
	ConfidenceLevel float64       `json:"confidence_level"` // 0-1
	Status          SynergyStatus `json:"status"`
	Owner           string        `json:"owner,omitempty"`
	Dependencies    []string      `json:"dependencies,omitempty"`
	Risks           []string      `json:"risks,omitempty"`
	PriorityScore   float64       `json:"priority_score"`
	CreatedAt       time.Time     `json:"created_at"`
}

// Transition moves the opportunity to the given status, enforcing the state
// machine.
func (o *SynergyOpportunity) Transition(next SynergyStatus) error {
	if !o.Status.CanTransition(next) {
		return eris.Errorf("model: synergy %s cannot transition %s -> %s", o.ID, o.Status, next)
	}
	o.Status = next
	return nil
}

// SynergyRealization is one period record of realized-vs-planned value.
// Records are append-only per synergy id; the cumulative rate is recomputed
// from the full history on every append.
type SynergyRealization struct {
	ID             string    `json:"id"`
	SynergyID      string    `json:"synergy_id"`
	PeriodStart    time.Time `json:"period_start"`
	PeriodEnd      time.Time `json:"period_end"`
	RealizedValue  float64   `json:"realized_value"`
	PlannedValue   float64   `json:"planned_value"`
	Variance       float64   `json:"variance"`
	VariancePct    float64   `json:"variance_percentage"`
	CumulativeRate float64   `json:"realization_rate"`
	RecordedAt     time.Time `json:"recorded_at"`
}

// TypeBreakdown aggregates identified and realized value for one synergy type.
type TypeBreakdown struct {
	Count      int     `json:"count"`
	Identified float64 `json:"identified"`
	Realized   float64 `json:"realized"`
}

// ValueCreationMetrics is the portfolio roll-up over a measurement window.
// PaybackMonths is nil when realized value is non-positive (unbounded payback).
type ValueCreationMetrics struct {
	TotalIdentified float64                       `json:"total_identified"`
	TotalRealized   float64                       `json:"total_realized"`
	RealizationRate float64                       `json:"realization_rate"`
	IntegrationCost float64                       `json:"integration_cost"`
	ROIPct          float64                       `json:"roi_percentage"`
	NetPresentValue float64                       `json:"net_present_value"`
	PaybackMonths   *float64                      `json:"payback_period_months,omitempty"`
	ByType          map[SynergyType]TypeBreakdown `json:"by_type"`
	WindowStart     time.Time                     `json:"window_start,omitempty"`
	WindowEnd       time.Time                     `json:"window_end,omitempty"`
}
