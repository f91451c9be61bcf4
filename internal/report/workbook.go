// Package report renders analysis results into Excel workbooks for
// distribution to deal teams.
package report

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/model"
)

// WorkbookData holds the sections to render. Nil or empty sections are
// skipped; at least one must be present.
type WorkbookData struct {
	Scores        []model.DealScore
	Opportunities []model.SynergyOpportunity
	Metrics       *model.ValueCreationMetrics
	Velocity      *model.PipelineVelocity
	Forecast      *model.RevenueForecast
}

func (d WorkbookData) empty() bool {
	return len(d.Scores) == 0 && len(d.Opportunities) == 0 &&
		d.Metrics == nil && d.Velocity == nil && d.Forecast == nil
}

// WriteWorkbook renders the data into an xlsx file at path.
func WriteWorkbook(path string, data WorkbookData) error {
	if data.empty() {
		return eris.New("report: nothing to export")
	}

	f := xlsx.NewFile()

	if len(data.Scores) > 0 {
		if err := addScoreSheet(f, data.Scores); err != nil {
			return err
		}
	}
	if len(data.Opportunities) > 0 {
		if err := addSynergySheet(f, data.Opportunities); err != nil {
			return err
		}
	}
	if data.Metrics != nil {
		if err := addRealizationSheet(f, data.Metrics); err != nil {
			return err
		}
	}
	if data.Velocity != nil {
		if err := addVelocitySheet(f, data.Velocity); err != nil {
			return err
		}
	}
	if data.Forecast != nil {
		if err := addForecastSheet(f, data.Forecast); err != nil {
			return err
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save workbook %s", path)
	}
	zap.L().Info("report: workbook written", zap.String("path", path))
	return nil
}

func addScoreSheet(f *xlsx.File, scores []model.DealScore) error {
	sheet, err := f.AddSheet("Deal Scores")
	if err != nil {
		return eris.Wrap(err, "report: add score sheet")
	}

	addHeader(sheet, "Deal", "Overall", "Financial", "Strategic", "Market",
		"Risk", "Execution", "Team", "Risk Level", "Confidence", "Recommendation")
	for _, score := range scores {
		row := sheet.AddRow()
		name := score.DealName
		if name == "" {
			name = score.DealID
		}
		row.AddCell().SetString(name)
		row.AddCell().SetFloat(score.OverallScore)
		for _, component := range []string{"financial", "strategic", "market", "risk", "execution", "team"} {
			row.AddCell().SetFloat(score.ComponentScores[component])
		}
		row.AddCell().SetString(string(score.RiskLevel))
		row.AddCell().SetFloat(score.Confidence)
		row.AddCell().SetString(string(score.Recommendation))
	}
	return nil
}

func addSynergySheet(f *xlsx.File, opps []model.SynergyOpportunity) error {
	sheet, err := f.AddSheet("Synergies")
	if err != nil {
		return eris.Wrap(err, "report: add synergy sheet")
	}

	addHeader(sheet, "Category", "Type", "Status", "Annual Value",
		"Timeline (months)", "Confidence", "Priority", "Risks")
	for _, opp := range opps {
		row := sheet.AddRow()
		row.AddCell().SetString(opp.Category)
		row.AddCell().SetString(string(opp.Type))
		row.AddCell().SetString(string(opp.Status))
		row.AddCell().SetFloat(opp.EstimatedValue)
		row.AddCell().SetInt(opp.TimelineMonths)
		row.AddCell().SetFloat(opp.ConfidenceLevel)
		row.AddCell().SetFloat(opp.PriorityScore)
		row.AddCell().SetString(strings.Join(opp.Risks, "; "))
	}
	return nil
}

func addRealizationSheet(f *xlsx.File, metrics *model.ValueCreationMetrics) error {
	sheet, err := f.AddSheet("Realization")
	if err != nil {
		return eris.Wrap(err, "report: add realization sheet")
	}

	addHeader(sheet, "Metric", "Value")
	addMetricRow(sheet, "Total identified", metrics.TotalIdentified)
	addMetricRow(sheet, "Total realized", metrics.TotalRealized)
	addMetricRow(sheet, "Realization rate", metrics.RealizationRate)
	addMetricRow(sheet, "Integration cost", metrics.IntegrationCost)
	addMetricRow(sheet, "ROI %", metrics.ROIPct)
	addMetricRow(sheet, "Net present value", metrics.NetPresentValue)

	row := sheet.AddRow()
	row.AddCell().SetString("Payback (months)")
	if metrics.PaybackMonths != nil {
		row.AddCell().SetFloat(*metrics.PaybackMonths)
	} else {
		row.AddCell().SetString("unbounded")
	}

	if len(metrics.ByType) > 0 {
		sheet.AddRow()
		addHeader(sheet, "Type", "Count", "Identified", "Realized")
		for _, typ := range model.SynergyTypes() {
			breakdown, ok := metrics.ByType[typ]
			if !ok {
				continue
			}
			row := sheet.AddRow()
			row.AddCell().SetString(string(typ))
			row.AddCell().SetInt(breakdown.Count)
			row.AddCell().SetFloat(breakdown.Identified)
			row.AddCell().SetFloat(breakdown.Realized)
		}
	}
	return nil
}

func addVelocitySheet(f *xlsx.File, velocity *model.PipelineVelocity) error {
	sheet, err := f.AddSheet("Pipeline")
	if err != nil {
		return eris.Wrap(err, "report: add pipeline sheet")
	}

	addHeader(sheet, "Stage", "Avg Days", "Bottleneck")
	bottlenecks := make(map[model.PipelineStage]bool, len(velocity.Bottlenecks))
	for _, stage := range velocity.Bottlenecks {
		bottlenecks[stage] = true
	}
	for _, stage := range model.ActiveStages() {
		row := sheet.AddRow()
		row.AddCell().SetString(string(stage))
		row.AddCell().SetFloat(velocity.StageDays[stage])
		if bottlenecks[stage] {
			row.AddCell().SetString("yes")
		} else {
			row.AddCell().SetString("")
		}
	}

	sheet.AddRow()
	addMetricRow(sheet, "Total cycle days", velocity.TotalDays)
	addMetricRow(sheet, "Efficiency score", velocity.EfficiencyScore)
	row := sheet.AddRow()
	row.AddCell().SetString("Trend")
	row.AddCell().SetString(velocity.Trend)
	return nil
}

func addForecastSheet(f *xlsx.File, forecast *model.RevenueForecast) error {
	sheet, err := f.AddSheet("Forecast")
	if err != nil {
		return eris.Wrap(err, "report: add forecast sheet")
	}

	addHeader(sheet, "Period", "Base", "Best", "Worst")
	for _, month := range forecast.Monthly {
		row := sheet.AddRow()
		row.AddCell().SetString(fmt.Sprintf("Month %d", month.Month))
		row.AddCell().SetFloat(month.Base)
		row.AddCell().SetFloat(month.Best)
		row.AddCell().SetFloat(month.Worst)
	}
	for _, quarter := range forecast.Quarterly {
		row := sheet.AddRow()
		row.AddCell().SetString(fmt.Sprintf("Q%d", quarter.Quarter))
		row.AddCell().SetFloat(quarter.Base)
		row.AddCell().SetFloat(quarter.Best)
		row.AddCell().SetFloat(quarter.Worst)
	}

	sheet.AddRow()
	addMetricRow(sheet, "Expected annual", forecast.ExpectedAnnual)
	addMetricRow(sheet, "Pipeline value", forecast.PipelineValue)
	return nil
}

func addHeader(sheet *xlsx.Sheet, titles ...string) {
	row := sheet.AddRow()
	for _, title := range titles {
		row.AddCell().SetString(title)
	}
}

func addMetricRow(sheet *xlsx.Sheet, name string, value float64) {
	row := sheet.AddRow()
	row.AddCell().SetString(name)
	row.AddCell().SetFloat(value)
}
