package synergy

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/model"
)

// memStore is an in-memory RealizationStore for tracker tests.
type memStore struct {
	records map[string][]model.SynergyRealization
	failOn  string
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string][]model.SynergyRealization)}
}

func (m *memStore) AppendRealization(_ context.Context, rec model.SynergyRealization) error {
	if m.failOn == "append" {
		return eris.New("store unavailable")
	}
	m.records[rec.SynergyID] = append(m.records[rec.SynergyID], rec)
	return nil
}

func (m *memStore) ListRealizations(_ context.Context, synergyID string) ([]model.SynergyRealization, error) {
	if m.failOn == "list" {
		return nil, eris.New("store unavailable")
	}
	recs := append([]model.SynergyRealization(nil), m.records[synergyID]...)
	sort.Slice(recs, func(i, j int) bool { return recs[i].PeriodStart.Before(recs[j].PeriodStart) })
	return recs, nil
}

func month(n int) (time.Time, time.Time) {
	start := time.Date(2025, time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

func TestRecordCumulativeRate(t *testing.T) {
	store := newMemStore()
	tracker := NewTracker(store, DefaultTrackerParams())
	ctx := context.Background()

	// Period 1: 80k realized against 100k planned.
	s1, e1 := month(1)
	rec, err := tracker.Record(ctx, "syn-1", Period{Start: s1, End: e1, Realized: 80_000, Planned: 100_000})
	require.NoError(t, err)
	assert.InDelta(t, -20_000, rec.Variance, 0.01)
	assert.InDelta(t, -20, rec.VariancePct, 0.01)
	assert.InDelta(t, 0.8, rec.CumulativeRate, 1e-9)

	// Period 2: 120k against 100k brings the cumulative rate to exactly 1.0.
	s2, e2 := month(2)
	rec, err = tracker.Record(ctx, "syn-1", Period{Start: s2, End: e2, Realized: 120_000, Planned: 100_000})
	require.NoError(t, err)
	assert.InDelta(t, 20, rec.VariancePct, 0.01)
	assert.InDelta(t, 1.0, rec.CumulativeRate, 1e-9)
}

func TestRecordRejectsOutOfOrderPeriods(t *testing.T) {
	store := newMemStore()
	tracker := NewTracker(store, DefaultTrackerParams())
	ctx := context.Background()

	s2, e2 := month(2)
	_, err := tracker.Record(ctx, "syn-1", Period{Start: s2, End: e2, Realized: 1, Planned: 1})
	require.NoError(t, err)

	s1, e1 := month(1)
	_, err = tracker.Record(ctx, "syn-1", Period{Start: s1, End: e1, Realized: 1, Planned: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overlaps recorded history")
}

func TestRecordValidation(t *testing.T) {
	tracker := NewTracker(newMemStore(), DefaultTrackerParams())
	ctx := context.Background()

	s, e := month(1)

	_, err := tracker.Record(ctx, "", Period{Start: s, End: e})
	require.Error(t, err)

	_, err = tracker.Record(ctx, "syn-1", Period{Start: e, End: s})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be after start")
}

func TestRecordZeroPlannedValue(t *testing.T) {
	tracker := NewTracker(newMemStore(), DefaultTrackerParams())
	s, e := month(1)

	rec, err := tracker.Record(context.Background(), "syn-1", Period{Start: s, End: e, Realized: 50_000, Planned: 0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, rec.VariancePct)
	assert.Equal(t, 0.0, rec.CumulativeRate)
}

func TestRecordStoreErrors(t *testing.T) {
	s, e := month(1)
	p := Period{Start: s, End: e, Realized: 1, Planned: 1}

	store := newMemStore()
	store.failOn = "list"
	_, err := NewTracker(store, DefaultTrackerParams()).Record(context.Background(), "syn-1", p)
	require.Error(t, err)

	store = newMemStore()
	store.failOn = "append"
	_, err = NewTracker(store, DefaultTrackerParams()).Record(context.Background(), "syn-1", p)
	require.Error(t, err)
}

func portfolioFixture(t *testing.T, store *memStore) []model.SynergyOpportunity {
	t.Helper()
	tracker := NewTracker(store, DefaultTrackerParams())
	ctx := context.Background()

	opps := []model.SynergyOpportunity{
		{ID: "syn-rev", Type: model.SynergyRevenue, EstimatedValue: 2_000_000, TimelineMonths: 12, Status: model.SynergyInProgress},
		{ID: "syn-cost", Type: model.SynergyCost, EstimatedValue: 1_000_000, TimelineMonths: 6, Status: model.SynergyInProgress},
		{ID: "syn-dead", Type: model.SynergyTax, EstimatedValue: 500_000, TimelineMonths: 12, Status: model.SynergyCancelled},
	}

	s1, e1 := month(1)
	s2, e2 := month(2)
	_, err := tracker.Record(ctx, "syn-rev", Period{Start: s1, End: e1, Realized: 150_000, Planned: 160_000})
	require.NoError(t, err)
	_, err = tracker.Record(ctx, "syn-rev", Period{Start: s2, End: e2, Realized: 170_000, Planned: 160_000})
	require.NoError(t, err)
	_, err = tracker.Record(ctx, "syn-cost", Period{Start: s1, End: e1, Realized: 80_000, Planned: 85_000})
	require.NoError(t, err)

	return opps
}

func TestPortfolioMetrics(t *testing.T) {
	store := newMemStore()
	opps := portfolioFixture(t, store)
	tracker := NewTracker(store, DefaultTrackerParams())

	metrics, err := tracker.PortfolioMetrics(context.Background(), opps, Window{})
	require.NoError(t, err)

	// Cancelled opportunity excluded from identified value.
	assert.InDelta(t, 3_000_000, metrics.TotalIdentified, 0.01)
	assert.InDelta(t, 400_000, metrics.TotalRealized, 0.01)

	// integration cost = 15% of identified = 450k
	assert.InDelta(t, 450_000, metrics.IntegrationCost, 0.01)
	// roi = (400k - 450k) / 450k x 100
	assert.InDelta(t, -11.11, metrics.ROIPct, 0.01)

	require.NotNil(t, metrics.PaybackMonths)
	// payback = 450k / (400k/12) = 13.5 months
	assert.InDelta(t, 13.5, *metrics.PaybackMonths, 0.01)

	assert.Greater(t, metrics.NetPresentValue, 0.0)
	assert.Less(t, metrics.NetPresentValue, 3_000_000.0)

	assert.Equal(t, 1, metrics.ByType[model.SynergyRevenue].Count)
	assert.InDelta(t, 320_000, metrics.ByType[model.SynergyRevenue].Realized, 0.01)
	assert.Equal(t, 0, metrics.ByType[model.SynergyTax].Count)
}

func TestPortfolioMetricsWindow(t *testing.T) {
	store := newMemStore()
	opps := portfolioFixture(t, store)
	tracker := NewTracker(store, DefaultTrackerParams())

	// Window covering only January periods.
	s1, e1 := month(1)
	metrics, err := tracker.PortfolioMetrics(context.Background(), opps, Window{Start: s1, End: e1})
	require.NoError(t, err)

	assert.InDelta(t, 230_000, metrics.TotalRealized, 0.01)
}

func TestPortfolioMetricsEmpty(t *testing.T) {
	tracker := NewTracker(newMemStore(), DefaultTrackerParams())

	metrics, err := tracker.PortfolioMetrics(context.Background(), nil, Window{})
	require.NoError(t, err)

	assert.Equal(t, 0.0, metrics.TotalIdentified)
	assert.Equal(t, 0.0, metrics.RealizationRate)
	assert.Equal(t, 0.0, metrics.ROIPct)
	assert.Nil(t, metrics.PaybackMonths, "payback must be unbounded, not zero")
}

func TestSynergyStatusStateMachine(t *testing.T) {
	opp := model.SynergyOpportunity{ID: "syn-1", Status: model.SynergyIdentified}

	require.NoError(t, opp.Transition(model.SynergyPlanned))
	require.NoError(t, opp.Transition(model.SynergyInProgress))
	require.NoError(t, opp.Transition(model.SynergyAtRisk))
	require.NoError(t, opp.Transition(model.SynergyDelayed))

	// Delayed synergies are recoverable.
	require.NoError(t, opp.Transition(model.SynergyInProgress))
	require.NoError(t, opp.Transition(model.SynergyRealized))

	// Realized is terminal.
	err := opp.Transition(model.SynergyInProgress)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot transition")

	// Identified cannot jump straight to realized.
	fresh := model.SynergyOpportunity{ID: "syn-2", Status: model.SynergyIdentified}
	require.Error(t, fresh.Transition(model.SynergyRealized))
}
