package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/model"
	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "dealintel.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// saveScores persists a batch of scores, using the store's bulk path when
// it has one. Postgres takes the COPY path; sqlite saves row by row.
func saveScores(ctx context.Context, st store.Store, scores []model.DealScore) error {
	if bw, ok := st.(store.BatchWriter); ok {
		n, err := bw.SaveDealScores(ctx, scores)
		if err != nil {
			return eris.Wrap(err, "save scores")
		}
		zap.L().Info("scores saved", zap.Int64("rows", n))
		return nil
	}
	for _, score := range scores {
		if err := st.SaveDealScore(ctx, score); err != nil {
			return eris.Wrapf(err, "save score for %s", score.DealID)
		}
	}
	return nil
}

// saveOpportunities persists identified opportunities, bulk-upserting when
// the store supports it.
func saveOpportunities(ctx context.Context, st store.Store, opps []model.SynergyOpportunity) error {
	if bw, ok := st.(store.BatchWriter); ok {
		n, err := bw.SaveOpportunities(ctx, opps)
		if err != nil {
			return eris.Wrap(err, "save opportunities")
		}
		zap.L().Info("opportunities saved", zap.Int64("rows", n))
		return nil
	}
	for _, opp := range opps {
		if err := st.SaveOpportunity(ctx, opp); err != nil {
			return eris.Wrapf(err, "save opportunity %s", opp.ID)
		}
	}
	return nil
}

// decodeFile reads a YAML or JSON input file into target. YAML documents are
// round-tripped through JSON so the model types' json tags stay authoritative.
func decodeFile(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "read input file %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return eris.Wrapf(err, "parse yaml %s", path)
		}
		data, err = json.Marshal(raw)
		if err != nil {
			return eris.Wrapf(err, "convert yaml %s", path)
		}
	}

	if err := json.Unmarshal(data, target); err != nil {
		return eris.Wrapf(err, "parse input file %s", path)
	}
	return nil
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
