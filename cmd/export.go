package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/model"
	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/pipeline"
	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/report"
	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/synergy"
)

// exportInput is the input file shape for workbook export. Every section is
// optional; sheets are only added for sections with data.
type exportInput struct {
	Deals      []model.Deal  `json:"deals,omitempty"`
	Historical []model.Deal  `json:"historical,omitempty"`
	Pairings   []dealPairing `json:"pairings,omitempty"`
}

var (
	exportFile    string
	exportOut     string
	exportMetrics bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export scores, synergies, and pipeline analytics to an Excel workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var input exportInput
		if err := decodeFile(exportFile, &input); err != nil {
			return err
		}

		var data report.WorkbookData

		if len(input.Deals) > 0 {
			engine, err := initEngine()
			if err != nil {
				return err
			}
			data.Scores, err = scoreBatch(ctx, engine, input.Deals, cfg.Batch.MaxConcurrentDeals)
			if err != nil {
				return err
			}

			data.Velocity = newAnalyzer().Analyze(input.Deals, input.Historical)

			params := pipeline.DefaultForecastParams()
			if cfg.Pipeline.CaseSpread > 0 {
				params.CaseSpread = cfg.Pipeline.CaseSpread
			}
			data.Forecast = pipeline.NewForecaster(params).Forecast(input.Deals)
		}

		if len(input.Pairings) > 0 {
			identifier := synergy.NewIdentifier(synergy.DefaultIdentifyParams())
			for _, pairing := range input.Pairings {
				if pairing.DealID == "" {
					return eris.Errorf("pairing without deal_id in %s", exportFile)
				}
				opps := identifier.Identify(pairing.DealID, pairing.Target, pairing.Acquirer)
				data.Opportunities = append(data.Opportunities, opps...)
			}
		}

		// Realization metrics come from the store's tracked history.
		if exportMetrics && len(data.Opportunities) > 0 {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "migrate store")
			}
			data.Metrics, err = newTracker(st).PortfolioMetrics(ctx, data.Opportunities, synergy.Window{})
			if err != nil {
				return err
			}
		}

		if err := report.WriteWorkbook(exportOut, data); err != nil {
			return err
		}

		zap.L().Info("workbook exported",
			zap.String("path", exportOut),
			zap.Int("scores", len(data.Scores)),
			zap.Int("opportunities", len(data.Opportunities)),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFile, "file", "", "YAML/JSON file with deals, historical deals, and pairings (required)")
	exportCmd.Flags().StringVar(&exportOut, "out", "dealintel.xlsx", "output workbook path")
	exportCmd.Flags().BoolVar(&exportMetrics, "metrics", false, "include realization metrics from the store")
	_ = exportCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(exportCmd)
}
