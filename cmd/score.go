package main

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/insight"
	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/model"
	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/scoring"
	anthropicpkg "github.com/dudleypeacockqa/ma-saas-platform-sub002/pkg/anthropic"
)

var (
	scoreFile    string
	scoreProfile string
	scoreInsight bool
	scoreSave    bool
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score deals from an input file",
	Long:  "Scores one or more deals from a YAML/JSON file and prints the results as JSON. With --save, scores are also persisted to the configured store.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var deals []model.Deal
		if err := decodeFile(scoreFile, &deals); err != nil {
			return err
		}
		if len(deals) == 0 {
			return eris.Errorf("no deals in %s", scoreFile)
		}

		engine, err := initEngine()
		if err != nil {
			return err
		}

		results, err := scoreBatch(ctx, engine, deals, cfg.Batch.MaxConcurrentDeals)
		if err != nil {
			return err
		}

		if scoreSave {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "migrate store")
			}
			if err := saveScores(ctx, st, results); err != nil {
				return err
			}
		}

		return printJSON(results)
	},
}

func init() {
	scoreCmd.Flags().StringVar(&scoreFile, "file", "", "YAML/JSON file with a list of deals (required)")
	scoreCmd.Flags().StringVar(&scoreProfile, "profile", "", "weight profile: balanced or screening (default from config)")
	scoreCmd.Flags().BoolVar(&scoreInsight, "insight", false, "enrich scores with Claude strengths/concerns")
	scoreCmd.Flags().BoolVar(&scoreSave, "save", false, "persist scores to the configured store")
	_ = scoreCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(scoreCmd)
}

// initEngine builds the scoring engine from config and flags, attaching the
// Claude enricher when insight is requested.
func initEngine() (*scoring.Engine, error) {
	var weights scoring.Weights
	var err error

	if cfg.Scoring.WeightsFile != "" {
		weights, err = scoring.LoadWeights(cfg.Scoring.WeightsFile)
	} else {
		profile := scoreProfile
		if profile == "" {
			profile = cfg.Scoring.Profile
		}
		weights, err = scoring.ProfileWeights(profile)
	}
	if err != nil {
		return nil, err
	}

	var opts []scoring.Option
	if scoreInsight {
		if err := cfg.Validate("insight"); err != nil {
			return nil, err
		}
		enricher := insight.NewEnricher(anthropicpkg.NewClient(cfg.Anthropic.Key), insight.Params{
			Model:             cfg.Anthropic.Model,
			MaxTokens:         cfg.Anthropic.MaxTokens,
			Temperature:       cfg.Anthropic.Temperature,
			RequestsPerMinute: cfg.Anthropic.RequestsPerMinute,
		})
		opts = append(opts, scoring.WithEnricher(enricher))
	}

	return scoring.NewEngine(weights, opts...)
}

// scoreBatch scores deals concurrently with a bounded worker count. A deal
// that fails validation is logged and skipped; it does not abort the batch.
func scoreBatch(ctx context.Context, engine *scoring.Engine, deals []model.Deal, concurrency int) ([]model.DealScore, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	zap.L().Info("scoring batch",
		zap.Int("deals", len(deals)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var mu sync.Mutex
	results := make([]model.DealScore, 0, len(deals))
	var failed atomic.Int64

	for _, deal := range deals {
		g.Go(func() error {
			score, err := engine.Score(gctx, deal)
			if err != nil {
				failed.Add(1)
				zap.L().Error("scoring failed",
					zap.String("deal", deal.ID),
					zap.Error(err),
				)
				return nil // don't abort batch on individual failure
			}
			mu.Lock()
			results = append(results, *score)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "score batch")
	}

	zap.L().Info("batch complete",
		zap.Int("scored", len(results)),
		zap.Int64("failed", failed.Load()),
	)
	return results, nil
}
