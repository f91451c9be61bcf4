package report

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/model"
)

func sheetNames(t *testing.T, path string) []string {
	t.Helper()
	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	names := make([]string, 0, len(f.Sheets))
	for _, sheet := range f.Sheets {
		names = append(names, sheet.Name)
	}
	return names
}

func TestWriteWorkbookAllSections(t *testing.T) {
	payback := 14.5
	data := WorkbookData{
		Scores: []model.DealScore{{
			DealID:          "deal-1",
			DealName:        "Project Atlas",
			OverallScore:    82.5,
			RiskLevel:       model.RiskLow,
			Confidence:      0.85,
			Recommendation:  model.RecommendProceed,
			ComponentScores: map[string]float64{"financial": 95, "risk": 20},
		}},
		Opportunities: []model.SynergyOpportunity{{
			Category:        "cross_selling",
			Type:            model.SynergyRevenue,
			Status:          model.SynergyIdentified,
			EstimatedValue:  1_500_000,
			TimelineMonths:  18,
			ConfidenceLevel: 0.6,
			PriorityScore:   0.7,
			Risks:           []string{"sales team integration"},
		}},
		Metrics: &model.ValueCreationMetrics{
			TotalIdentified: 3_000_000,
			TotalRealized:   400_000,
			RealizationRate: 0.13,
			PaybackMonths:   &payback,
			ByType: map[model.SynergyType]model.TypeBreakdown{
				model.SynergyRevenue: {Count: 1, Identified: 1_500_000},
			},
		},
		Velocity: &model.PipelineVelocity{
			StageDays:   map[model.PipelineStage]float64{model.StageSourcing: 21},
			TotalDays:   152,
			Bottlenecks: []model.PipelineStage{model.StageDueDiligence},
			Trend:       "steady",
		},
		Forecast: &model.RevenueForecast{
			ExpectedAnnual: 2_100_000,
			Monthly:        []model.MonthProjection{{Month: 1, Base: 175_000}},
			Quarterly:      []model.QuarterProjection{{Quarter: 1, Base: 525_000}},
		},
	}

	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, WriteWorkbook(path, data))

	names := sheetNames(t, path)
	assert.Equal(t, []string{"Deal Scores", "Synergies", "Realization", "Pipeline", "Forecast"}, names)

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)

	scores := f.Sheet["Deal Scores"]
	require.NotNil(t, scores)
	require.GreaterOrEqual(t, len(scores.Rows), 2)
	assert.Equal(t, "Project Atlas", scores.Rows[1].Cells[0].String())
	assert.Equal(t, "proceed", scores.Rows[1].Cells[10].String())

	synergies := f.Sheet["Synergies"]
	require.NotNil(t, synergies)
	assert.Equal(t, "cross_selling", synergies.Rows[1].Cells[0].String())
}

func TestWriteWorkbookScoresOnly(t *testing.T) {
	data := WorkbookData{
		Scores: []model.DealScore{{DealID: "deal-1", OverallScore: 55}},
	}

	path := filepath.Join(t.TempDir(), "scores.xlsx")
	require.NoError(t, WriteWorkbook(path, data))

	names := sheetNames(t, path)
	assert.Equal(t, []string{"Deal Scores"}, names)
}

func TestWriteWorkbookUnboundedPayback(t *testing.T) {
	data := WorkbookData{
		Metrics: &model.ValueCreationMetrics{TotalIdentified: 1_000_000},
	}

	path := filepath.Join(t.TempDir(), "metrics.xlsx")
	require.NoError(t, WriteWorkbook(path, data))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	sheet := f.Sheet["Realization"]
	require.NotNil(t, sheet)

	var found bool
	for _, row := range sheet.Rows {
		if len(row.Cells) >= 2 && row.Cells[0].String() == "Payback (months)" {
			assert.Equal(t, "unbounded", row.Cells[1].String())
			found = true
		}
	}
	assert.True(t, found)
}

func TestWriteWorkbookEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	err := WriteWorkbook(path, WorkbookData{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to export")
}
