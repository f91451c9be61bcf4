package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/model"
	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/pipeline"
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Analyze pipeline velocity and forecast revenue",
}

// pipelineInput is the input file shape for pipeline commands. Historical
// deals are closed deals whose stage history calibrates the velocity model.
type pipelineInput struct {
	Active     []model.Deal `json:"active"`
	Historical []model.Deal `json:"historical,omitempty"`
}

var (
	pipelineFile string
)

func loadPipelineInput() (*pipelineInput, error) {
	var input pipelineInput
	if err := decodeFile(pipelineFile, &input); err != nil {
		return nil, err
	}
	if len(input.Active) == 0 && len(input.Historical) == 0 {
		return nil, eris.Errorf("no deals in %s", pipelineFile)
	}
	return &input, nil
}

func newAnalyzer() *pipeline.Analyzer {
	params := pipeline.DefaultAnalyzerParams()
	if cfg.Pipeline.BottleneckRatio > 0 {
		params.BottleneckRatio = cfg.Pipeline.BottleneckRatio
	}
	return pipeline.NewAnalyzer(params)
}

var pipelineAnalyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compute stage velocity, bottlenecks, and cycle trend",
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := loadPipelineInput()
		if err != nil {
			return err
		}

		velocity := newAnalyzer().Analyze(input.Active, input.Historical)
		return printJSON(velocity)
	},
}

var pipelinePredictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict the next stage transition for each active deal",
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := loadPipelineInput()
		if err != nil {
			return err
		}

		velocity := newAnalyzer().Analyze(input.Active, input.Historical)

		params := pipeline.DefaultPredictorParams()
		params.OptimisticClose = cfg.Pipeline.OptimisticClose
		predictions, err := pipeline.NewPredictor(params).Predict(input.Active, velocity)
		if err != nil {
			return err
		}

		return printJSON(predictions)
	},
}

var pipelineForecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Produce a probability-weighted revenue forecast",
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := loadPipelineInput()
		if err != nil {
			return err
		}

		params := pipeline.DefaultForecastParams()
		if cfg.Pipeline.CaseSpread > 0 {
			params.CaseSpread = cfg.Pipeline.CaseSpread
		}
		forecast := pipeline.NewForecaster(params).Forecast(input.Active)
		return printJSON(forecast)
	},
}

func init() {
	pipelineCmd.PersistentFlags().StringVar(&pipelineFile, "file", "", "YAML/JSON file with active and historical deals (required)")
	_ = pipelineCmd.MarkPersistentFlagRequired("file")

	pipelineCmd.AddCommand(pipelineAnalyzeCmd, pipelinePredictCmd, pipelineForecastCmd)
	rootCmd.AddCommand(pipelineCmd)
}
