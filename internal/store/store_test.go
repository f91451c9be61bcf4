package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/model"
)

func newTestSQLite(t *testing.T) Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testOpportunity(dealID string) model.SynergyOpportunity {
	return model.SynergyOpportunity{
		ID:              uuid.New().String(),
		DealID:          dealID,
		Type:            model.SynergyCost,
		Category:        "headcount_consolidation",
		EstimatedValue:  900_000,
		TimelineMonths:  12,
		ConfidenceLevel: 0.8,
		Status:          model.SynergyIdentified,
		PriorityScore:   0.72,
		CreatedAt:       time.Now().UTC(),
	}
}

func storeTestSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("SaveAndListDealScores", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		first := model.DealScore{
			DealID:          "deal-1",
			OverallScore:    82.5,
			RiskLevel:       model.RiskLow,
			Recommendation:  model.RecommendProceed,
			Confidence:      0.9,
			ComponentScores: map[string]float64{"financial": 90, "risk": 20},
			ScoredAt:        time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		}
		second := first
		second.OverallScore = 78.0
		second.ScoredAt = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

		require.NoError(t, s.SaveDealScore(ctx, first))
		require.NoError(t, s.SaveDealScore(ctx, second))

		scores, err := s.ListDealScores(ctx, "deal-1")
		require.NoError(t, err)
		require.Len(t, scores, 2)
		// newest first
		assert.Equal(t, 78.0, scores[0].OverallScore)
		assert.Equal(t, 82.5, scores[1].OverallScore)
		assert.Equal(t, 90.0, scores[1].ComponentScores["financial"])

		latest, err := s.LatestDealScore(ctx, "deal-1")
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, 78.0, latest.OverallScore)
	})

	t.Run("LatestDealScoreMissing", func(t *testing.T) {
		s := newStore(t)

		latest, err := s.LatestDealScore(context.Background(), "never-scored")
		require.NoError(t, err)
		assert.Nil(t, latest)
	})

	t.Run("SaveAndGetOpportunity", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		opp := testOpportunity("deal-1")
		require.NoError(t, s.SaveOpportunity(ctx, opp))

		got, err := s.GetOpportunity(ctx, opp.ID)
		require.NoError(t, err)
		assert.Equal(t, opp.ID, got.ID)
		assert.Equal(t, model.SynergyCost, got.Type)
		assert.Equal(t, model.SynergyIdentified, got.Status)
		assert.Equal(t, 900_000.0, got.EstimatedValue)
	})

	t.Run("GetOpportunityNotFound", func(t *testing.T) {
		s := newStore(t)

		_, err := s.GetOpportunity(context.Background(), "nonexistent")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("SaveOpportunityUpsert", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		opp := testOpportunity("deal-1")
		require.NoError(t, s.SaveOpportunity(ctx, opp))

		opp.EstimatedValue = 1_100_000
		require.NoError(t, s.SaveOpportunity(ctx, opp))

		got, err := s.GetOpportunity(ctx, opp.ID)
		require.NoError(t, err)
		assert.Equal(t, 1_100_000.0, got.EstimatedValue)

		opps, err := s.ListOpportunities(ctx, OpportunityFilter{DealID: "deal-1"})
		require.NoError(t, err)
		assert.Len(t, opps, 1)
	})

	t.Run("UpdateOpportunityStatus", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		opp := testOpportunity("deal-1")
		require.NoError(t, s.SaveOpportunity(ctx, opp))

		require.NoError(t, s.UpdateOpportunityStatus(ctx, opp.ID, model.SynergyPlanned))
		require.NoError(t, s.UpdateOpportunityStatus(ctx, opp.ID, model.SynergyInProgress))

		got, err := s.GetOpportunity(ctx, opp.ID)
		require.NoError(t, err)
		assert.Equal(t, model.SynergyInProgress, got.Status)
	})

	t.Run("UpdateOpportunityStatusRejectsIllegalTransition", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		opp := testOpportunity("deal-1")
		require.NoError(t, s.SaveOpportunity(ctx, opp))

		// identified cannot jump straight to realized
		err := s.UpdateOpportunityStatus(ctx, opp.ID, model.SynergyRealized)
		require.Error(t, err)

		got, err := s.GetOpportunity(ctx, opp.ID)
		require.NoError(t, err)
		assert.Equal(t, model.SynergyIdentified, got.Status)
	})

	t.Run("ListOpportunitiesFilters", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		cost := testOpportunity("deal-1")
		revenue := testOpportunity("deal-1")
		revenue.Type = model.SynergyRevenue
		other := testOpportunity("deal-2")

		for _, opp := range []model.SynergyOpportunity{cost, revenue, other} {
			require.NoError(t, s.SaveOpportunity(ctx, opp))
		}

		byDeal, err := s.ListOpportunities(ctx, OpportunityFilter{DealID: "deal-1"})
		require.NoError(t, err)
		assert.Len(t, byDeal, 2)

		byType, err := s.ListOpportunities(ctx, OpportunityFilter{DealID: "deal-1", Type: model.SynergyRevenue})
		require.NoError(t, err)
		require.Len(t, byType, 1)
		assert.Equal(t, revenue.ID, byType[0].ID)

		byStatus, err := s.ListOpportunities(ctx, OpportunityFilter{Status: model.SynergyIdentified})
		require.NoError(t, err)
		assert.Len(t, byStatus, 3)
	})

	t.Run("ListOpportunitiesOrdersByPriority", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		low := testOpportunity("deal-1")
		low.PriorityScore = 0.3
		high := testOpportunity("deal-1")
		high.PriorityScore = 0.9

		require.NoError(t, s.SaveOpportunity(ctx, low))
		require.NoError(t, s.SaveOpportunity(ctx, high))

		opps, err := s.ListOpportunities(ctx, OpportunityFilter{DealID: "deal-1"})
		require.NoError(t, err)
		require.Len(t, opps, 2)
		assert.Equal(t, high.ID, opps[0].ID)
	})

	t.Run("RealizationsOrderedByPeriod", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		opp := testOpportunity("deal-1")
		require.NoError(t, s.SaveOpportunity(ctx, opp))

		jan := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		feb := jan.AddDate(0, 1, 0)

		// append out of period order on purpose
		for _, start := range []time.Time{feb, jan} {
			require.NoError(t, s.AppendRealization(ctx, model.SynergyRealization{
				SynergyID:     opp.ID,
				PeriodStart:   start,
				PeriodEnd:     start.AddDate(0, 1, 0),
				RealizedValue: 50_000,
				PlannedValue:  75_000,
			}))
		}

		recs, err := s.ListRealizations(ctx, opp.ID)
		require.NoError(t, err)
		require.Len(t, recs, 2)
		assert.Equal(t, jan.Unix(), recs[0].PeriodStart.Unix())
		assert.Equal(t, feb.Unix(), recs[1].PeriodStart.Unix())
	})

	t.Run("ListRealizationsEmpty", func(t *testing.T) {
		s := newStore(t)

		recs, err := s.ListRealizations(context.Background(), "no-such-synergy")
		require.NoError(t, err)
		assert.Empty(t, recs)
	})
}
