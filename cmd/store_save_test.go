package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/model"
	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/store"
)

// batchStore records bulk writes so tests can assert the batch path was
// taken. The embedded Store is never touched on that path.
type batchStore struct {
	store.Store
	scoreBatches int
	oppBatches   int
}

func (s *batchStore) SaveDealScores(_ context.Context, scores []model.DealScore) (int64, error) {
	s.scoreBatches++
	return int64(len(scores)), nil
}

func (s *batchStore) SaveOpportunities(_ context.Context, opps []model.SynergyOpportunity) (int64, error) {
	s.oppBatches++
	return int64(len(opps)), nil
}

func TestSaveScoresUsesBatchPath(t *testing.T) {
	st := &batchStore{}

	err := saveScores(context.Background(), st, []model.DealScore{
		{DealID: "d1", OverallScore: 72},
		{DealID: "d2", OverallScore: 58},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, st.scoreBatches)
}

func TestSaveOpportunitiesUsesBatchPath(t *testing.T) {
	st := &batchStore{}

	err := saveOpportunities(context.Background(), st, []model.SynergyOpportunity{
		{ID: "syn-1", DealID: "d1", Type: model.SynergyCost, Status: model.SynergyIdentified},
		{ID: "syn-2", DealID: "d1", Type: model.SynergyRevenue, Status: model.SynergyIdentified},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, st.oppBatches)
}

func TestSaveScoresFallsBackToRowSaves(t *testing.T) {
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "save_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	err = saveScores(context.Background(), st, []model.DealScore{
		{DealID: "d1", OverallScore: 72, Recommendation: model.RecommendCaution},
		{DealID: "d1", OverallScore: 75, Recommendation: model.RecommendCaution},
	})
	require.NoError(t, err)

	scores, err := st.ListDealScores(context.Background(), "d1")
	require.NoError(t, err)
	assert.Len(t, scores, 2)
}

func TestSaveOpportunitiesFallsBackToRowSaves(t *testing.T) {
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "save_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	err = saveOpportunities(context.Background(), st, []model.SynergyOpportunity{
		{ID: "syn-1", DealID: "d1", Type: model.SynergyCost, Status: model.SynergyIdentified},
	})
	require.NoError(t, err)

	opps, err := st.ListOpportunities(context.Background(), store.OpportunityFilter{DealID: "d1"})
	require.NoError(t, err)
	assert.Len(t, opps, 1)
}
