package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/model"
	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/store"
	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/synergy"
)

var synergyCmd = &cobra.Command{
	Use:   "synergy",
	Short: "Identify, value, and track synergies",
}

// dealPairing is the input file shape for synergy identification.
type dealPairing struct {
	DealID   string                 `json:"deal_id"`
	Target   synergy.CompanyProfile `json:"target"`
	Acquirer synergy.CompanyProfile `json:"acquirer"`
}

var (
	identifyFile string
	identifySave bool
)

var synergyIdentifyCmd = &cobra.Command{
	Use:   "identify",
	Short: "Identify synergy opportunities for a target/acquirer pairing",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var pairing dealPairing
		if err := decodeFile(identifyFile, &pairing); err != nil {
			return err
		}
		if pairing.DealID == "" {
			return eris.Errorf("deal_id is required in %s", identifyFile)
		}

		identifier := synergy.NewIdentifier(synergy.DefaultIdentifyParams())
		opps := identifier.Identify(pairing.DealID, pairing.Target, pairing.Acquirer)

		if identifySave {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "migrate store")
			}
			if err := saveOpportunities(ctx, st, opps); err != nil {
				return err
			}
		}

		return printJSON(opps)
	},
}

var quantifyFile string

var synergyQuantifyCmd = &cobra.Command{
	Use:   "quantify",
	Short: "Quantify the value distribution for identified opportunities",
	RunE: func(cmd *cobra.Command, args []string) error {
		var opps []model.SynergyOpportunity
		if err := decodeFile(quantifyFile, &opps); err != nil {
			return err
		}

		valuer := synergy.NewValuer()
		market := synergy.MarketData{
			GrowthRate:   cfg.Synergy.MarketGrowthRate,
			DiscountRate: cfg.Synergy.DiscountRate,
		}

		distributions := make([]synergy.ValueDistribution, 0, len(opps))
		for _, opp := range opps {
			dist, err := valuer.Quantify(opp, market)
			if err != nil {
				return eris.Wrapf(err, "quantify %s", opp.ID)
			}
			distributions = append(distributions, *dist)
		}

		return printJSON(distributions)
	},
}

var (
	trackID       string
	trackStart    string
	trackEnd      string
	trackRealized float64
	trackPlanned  float64
)

var synergyTrackCmd = &cobra.Command{
	Use:   "track",
	Short: "Record one period of realized-vs-planned value for a synergy",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		start, err := time.Parse("2006-01-02", trackStart)
		if err != nil {
			return eris.Wrapf(err, "parse --start %q", trackStart)
		}
		end, err := time.Parse("2006-01-02", trackEnd)
		if err != nil {
			return eris.Wrapf(err, "parse --end %q", trackEnd)
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		tracker := newTracker(st)
		rec, err := tracker.Record(ctx, trackID, synergy.Period{
			Start:    start,
			End:      end,
			Realized: trackRealized,
			Planned:  trackPlanned,
		})
		if err != nil {
			return err
		}

		return printJSON(rec)
	},
}

var (
	metricsDeal  string
	metricsStart string
	metricsEnd   string
)

var synergyMetricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Roll up value creation metrics across tracked synergies",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		opps, err := st.ListOpportunities(ctx, store.OpportunityFilter{DealID: metricsDeal})
		if err != nil {
			return eris.Wrap(err, "list opportunities")
		}

		window, err := parseWindow(metricsStart, metricsEnd)
		if err != nil {
			return err
		}

		tracker := newTracker(st)
		metrics, err := tracker.PortfolioMetrics(ctx, opps, window)
		if err != nil {
			return err
		}

		return printJSON(metrics)
	},
}

var (
	statusID    string
	statusValue string
)

var synergyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Transition a synergy to a new lifecycle status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		if err := st.UpdateOpportunityStatus(ctx, statusID, model.SynergyStatus(statusValue)); err != nil {
			return err
		}

		opp, err := st.GetOpportunity(ctx, statusID)
		if err != nil {
			return err
		}
		return printJSON(opp)
	},
}

func newTracker(st store.Store) *synergy.Tracker {
	return synergy.NewTracker(st, synergy.TrackerParams{
		IntegrationCostRate: cfg.Synergy.IntegrationCostRate,
		MaxPaybackMonths:    synergy.DefaultTrackerParams().MaxPaybackMonths,
		DiscountRate:        cfg.Synergy.DiscountRate,
	})
}

func parseWindow(start, end string) (synergy.Window, error) {
	var w synergy.Window
	if start != "" {
		t, err := time.Parse("2006-01-02", start)
		if err != nil {
			return w, eris.Wrapf(err, "parse --start %q", start)
		}
		w.Start = t
	}
	if end != "" {
		t, err := time.Parse("2006-01-02", end)
		if err != nil {
			return w, eris.Wrapf(err, "parse --end %q", end)
		}
		w.End = t
	}
	return w, nil
}

func init() {
	synergyIdentifyCmd.Flags().StringVar(&identifyFile, "file", "", "YAML/JSON file with deal_id, target, and acquirer profiles (required)")
	synergyIdentifyCmd.Flags().BoolVar(&identifySave, "save", false, "persist opportunities to the configured store")
	_ = synergyIdentifyCmd.MarkFlagRequired("file")

	synergyQuantifyCmd.Flags().StringVar(&quantifyFile, "file", "", "YAML/JSON file with a list of opportunities (required)")
	_ = synergyQuantifyCmd.MarkFlagRequired("file")

	synergyTrackCmd.Flags().StringVar(&trackID, "id", "", "synergy id (required)")
	synergyTrackCmd.Flags().StringVar(&trackStart, "start", "", "period start, YYYY-MM-DD (required)")
	synergyTrackCmd.Flags().StringVar(&trackEnd, "end", "", "period end, YYYY-MM-DD (required)")
	synergyTrackCmd.Flags().Float64Var(&trackRealized, "realized", 0, "realized value for the period")
	synergyTrackCmd.Flags().Float64Var(&trackPlanned, "planned", 0, "planned value for the period")
	_ = synergyTrackCmd.MarkFlagRequired("id")
	_ = synergyTrackCmd.MarkFlagRequired("start")
	_ = synergyTrackCmd.MarkFlagRequired("end")

	synergyMetricsCmd.Flags().StringVar(&metricsDeal, "deal", "", "restrict to one deal id")
	synergyMetricsCmd.Flags().StringVar(&metricsStart, "start", "", "window start, YYYY-MM-DD")
	synergyMetricsCmd.Flags().StringVar(&metricsEnd, "end", "", "window end, YYYY-MM-DD")

	synergyStatusCmd.Flags().StringVar(&statusID, "id", "", "synergy id (required)")
	synergyStatusCmd.Flags().StringVar(&statusValue, "to", "", "target status (required)")
	_ = synergyStatusCmd.MarkFlagRequired("id")
	_ = synergyStatusCmd.MarkFlagRequired("to")

	synergyCmd.AddCommand(synergyIdentifyCmd, synergyQuantifyCmd, synergyTrackCmd, synergyMetricsCmd, synergyStatusCmd)
	rootCmd.AddCommand(synergyCmd)
}
