package synergy

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/model"
)

func fullProfiles() (CompanyProfile, CompanyProfile) {
	target := CompanyProfile{
		Name:             "Target Co",
		Revenue:          40_000_000,
		OperatingCosts:   30_000_000,
		PretaxIncome:     6_000_000,
		TotalDebt:        10_000_000,
		ProcurementSpend: 8_000_000,
		Headcount:        200,
		FacilityCount:    4,
		CustomerOverlap:  0.25,
		Markets:          []string{"us", "uk"},
	}
	acquirer := CompanyProfile{
		Name:             "Acquirer Inc",
		Revenue:          160_000_000,
		OperatingCosts:   110_000_000,
		PretaxIncome:     25_000_000,
		TotalDebt:        40_000_000,
		ProcurementSpend: 30_000_000,
		Headcount:        900,
		FacilityCount:    10,
		Markets:          []string{"us", "de", "fr", "jp"},
	}
	return target, acquirer
}

func TestIdentifyFullProfiles(t *testing.T) {
	id := NewIdentifier(DefaultIdentifyParams())
	target, acquirer := fullProfiles()

	opps := id.Identify("deal-1", target, acquirer)
	require.NotEmpty(t, opps)

	categories := make(map[string]model.SynergyOpportunity, len(opps))
	for _, o := range opps {
		categories[o.Category] = o
	}

	t.Run("documented multipliers", func(t *testing.T) {
		// cross-sell: (40M+160M) x 0.10 x (1-0.25) = 15M
		cs, ok := categories["cross_sell"]
		require.True(t, ok)
		assert.InDelta(t, 15_000_000, cs.EstimatedValue, 1)
		assert.Equal(t, model.SynergyRevenue, cs.Type)

		// economies of scale: (30M+110M) x 0.05 = 7M
		es, ok := categories["economies_of_scale"]
		require.True(t, ok)
		assert.InDelta(t, 7_000_000, es.EstimatedValue, 1)
		assert.Equal(t, model.SynergyCost, es.Type)

		// tax: (6M+25M) x 0.02 = 620K
		tax, ok := categories["tax_optimization"]
		require.True(t, ok)
		assert.InDelta(t, 620_000, tax.EstimatedValue, 1)
		assert.Equal(t, model.SynergyTax, tax.Type)

		// refinancing: 10M x 0.015 = 150K
		ref, ok := categories["debt_refinancing"]
		require.True(t, ok)
		assert.InDelta(t, 150_000, ref.EstimatedValue, 1)
		assert.Equal(t, model.SynergyFinancial, ref.Type)
	})

	t.Run("every opportunity initialized", func(t *testing.T) {
		for _, o := range opps {
			assert.NotEmpty(t, o.ID)
			assert.Equal(t, "deal-1", o.DealID)
			assert.Equal(t, model.SynergyIdentified, o.Status)
			assert.Greater(t, o.EstimatedValue, 0.0)
			assert.Greater(t, o.TimelineMonths, 0)
			assert.False(t, o.CreatedAt.IsZero())
		}
	})

	t.Run("sorted by priority descending", func(t *testing.T) {
		assert.True(t, sort.SliceIsSorted(opps, func(i, j int) bool {
			return opps[i].PriorityScore > opps[j].PriorityScore
		}))
	})
}

func TestIdentifyOmitsNonPositiveValues(t *testing.T) {
	id := NewIdentifier(DefaultIdentifyParams())

	// Empty profiles produce nothing: every estimator evaluates to zero.
	opps := id.Identify("deal-2", CompanyProfile{}, CompanyProfile{})
	assert.Empty(t, opps)

	// Negative combined pretax income suppresses the tax opportunity.
	opps = id.Identify("deal-3",
		CompanyProfile{PretaxIncome: -10_000_000, Revenue: 1_000_000},
		CompanyProfile{PretaxIncome: 2_000_000},
	)
	for _, o := range opps {
		assert.NotEqual(t, "tax_optimization", o.Category)
		assert.Greater(t, o.EstimatedValue, 0.0)
	}
}

func TestIdentifyFullCustomerOverlapKillsCrossSell(t *testing.T) {
	id := NewIdentifier(DefaultIdentifyParams())
	opps := id.Identify("deal-4",
		CompanyProfile{Revenue: 10_000_000, CustomerOverlap: 1.0},
		CompanyProfile{Revenue: 10_000_000},
	)
	for _, o := range opps {
		assert.NotEqual(t, "cross_sell", o.Category)
	}
}

func TestIdentifyParamsOverride(t *testing.T) {
	params := DefaultIdentifyParams()
	params.CrossSellRate = 0.20
	id := NewIdentifier(params)

	opps := id.Identify("deal-5",
		CompanyProfile{Revenue: 50_000_000},
		CompanyProfile{Revenue: 50_000_000},
	)
	var found bool
	for _, o := range opps {
		if o.Category == "cross_sell" {
			found = true
			assert.InDelta(t, 20_000_000, o.EstimatedValue, 1)
		}
	}
	assert.True(t, found)
}

func TestNewMarketFraction(t *testing.T) {
	tests := []struct {
		name     string
		target   []string
		acquirer []string
		want     float64
	}{
		{"no data", nil, nil, 0},
		{"identical markets", []string{"us"}, []string{"us"}, 0},
		{"fully disjoint", []string{"us"}, []string{"de", "fr"}, 1.0},
		{"partial overlap", []string{"us", "uk"}, []string{"us", "de", "fr", "jp"}, 0.75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, newMarketFraction(tt.target, tt.acquirer), 1e-9)
		})
	}
}

func TestPriorityScoreOrdering(t *testing.T) {
	id := NewIdentifier(DefaultIdentifyParams())

	bigSure := model.SynergyOpportunity{EstimatedValue: 10_000_000, ConfidenceLevel: 0.9, TimelineMonths: 6}
	smallRisky := model.SynergyOpportunity{
		EstimatedValue: 200_000, ConfidenceLevel: 0.3, TimelineMonths: 36,
		Risks: []string{"a", "b", "c", "d", "e"},
	}

	assert.Greater(t, id.priorityScore(bigSure), id.priorityScore(smallRisky))
	assert.LessOrEqual(t, id.priorityScore(bigSure), 100.0)
	assert.GreaterOrEqual(t, id.priorityScore(smallRisky), 0.0)
}
