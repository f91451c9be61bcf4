package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/db"
	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_score":       `INSERT INTO deal_scores (id, deal_id, score, overall, recommendation, scored_at) VALUES ($1, $2, $3, $4, $5, $6)`,
	"latest_score":       `SELECT score FROM deal_scores WHERE deal_id = $1 ORDER BY scored_at DESC LIMIT 1`,
	"get_synergy":        `SELECT payload FROM synergies WHERE id = $1`,
	"update_synergy":     `UPDATE synergies SET status = $1, payload = $2 WHERE id = $3`,
	"append_realization": `INSERT INTO synergy_realizations (id, synergy_id, period_start, period_end, payload, recorded_at) VALUES ($1, $2, $3, $4, $5, $6)`,
	"list_realizations":  `SELECT payload FROM synergy_realizations WHERE synergy_id = $1 ORDER BY period_start ASC`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for use by subsystems that need
// direct query access (e.g., bulk archival).
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS deal_scores (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	deal_id        TEXT NOT NULL,
	score          JSONB NOT NULL,
	overall        DOUBLE PRECISION NOT NULL,
	recommendation TEXT NOT NULL,
	scored_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS synergies (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	deal_id    TEXT,
	type       TEXT NOT NULL,
	status     TEXT NOT NULL,
	payload    JSONB NOT NULL,
	priority   DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS synergy_realizations (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	synergy_id   TEXT NOT NULL REFERENCES synergies(id),
	period_start TIMESTAMPTZ NOT NULL,
	period_end   TIMESTAMPTZ NOT NULL,
	payload      JSONB NOT NULL,
	recorded_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_deal_scores_deal_id ON deal_scores(deal_id);
CREATE INDEX IF NOT EXISTS idx_deal_scores_scored_at ON deal_scores(scored_at DESC);
CREATE INDEX IF NOT EXISTS idx_synergies_deal_id ON synergies(deal_id);
CREATE INDEX IF NOT EXISTS idx_synergies_status ON synergies(status);
CREATE INDEX IF NOT EXISTS idx_synergies_priority ON synergies(priority DESC);
CREATE INDEX IF NOT EXISTS idx_realizations_synergy_id ON synergy_realizations(synergy_id);
CREATE INDEX IF NOT EXISTS idx_realizations_period ON synergy_realizations(synergy_id, period_start);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveDealScore(ctx context.Context, score model.DealScore) error {
	if score.ScoredAt.IsZero() {
		score.ScoredAt = time.Now().UTC()
	}

	scoreJSON, err := json.Marshal(score)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal score")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO deal_scores (id, deal_id, score, overall, recommendation, scored_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New().String(), score.DealID, scoreJSON, score.OverallScore, string(score.Recommendation), score.ScoredAt,
	)
	return eris.Wrapf(err, "postgres: insert score for deal %s", score.DealID)
}

// SaveDealScores archives a batch of scores via the COPY protocol. Used by
// batch scoring, where a portfolio file produces hundreds of rows at once.
func (s *PostgresStore) SaveDealScores(ctx context.Context, scores []model.DealScore) (int64, error) {
	rows := make([][]any, 0, len(scores))
	for _, score := range scores {
		if score.ScoredAt.IsZero() {
			score.ScoredAt = time.Now().UTC()
		}
		scoreJSON, err := json.Marshal(score)
		if err != nil {
			return 0, eris.Wrap(err, "postgres: marshal score")
		}
		rows = append(rows, []any{
			uuid.New().String(), score.DealID, scoreJSON,
			score.OverallScore, string(score.Recommendation), score.ScoredAt,
		})
	}
	return db.CopyFrom(ctx, s.pool, "deal_scores",
		[]string{"id", "deal_id", "score", "overall", "recommendation", "scored_at"}, rows)
}

func (s *PostgresStore) ListDealScores(ctx context.Context, dealID string) ([]model.DealScore, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT score FROM deal_scores WHERE deal_id = $1 ORDER BY scored_at DESC`,
		dealID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list scores for deal %s", dealID)
	}
	defer rows.Close()

	var scores []model.DealScore
	for rows.Next() {
		var scoreJSON []byte
		if err := rows.Scan(&scoreJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan score")
		}
		var score model.DealScore
		if err := json.Unmarshal(scoreJSON, &score); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal score")
		}
		scores = append(scores, score)
	}
	return scores, eris.Wrap(rows.Err(), "postgres: list scores iterate")
}

func (s *PostgresStore) LatestDealScore(ctx context.Context, dealID string) (*model.DealScore, error) {
	var scoreJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT score FROM deal_scores WHERE deal_id = $1 ORDER BY scored_at DESC LIMIT 1`,
		dealID,
	).Scan(&scoreJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: latest score for deal %s", dealID)
	}

	var score model.DealScore
	if err := json.Unmarshal(scoreJSON, &score); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal score")
	}
	return &score, nil
}

func (s *PostgresStore) SaveOpportunity(ctx context.Context, opp model.SynergyOpportunity) error {
	if opp.ID == "" {
		opp.ID = uuid.New().String()
	}
	if opp.CreatedAt.IsZero() {
		opp.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(opp)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal opportunity")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO synergies (id, deal_id, type, status, payload, priority, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET deal_id = $2, type = $3, status = $4, payload = $5, priority = $6`,
		opp.ID, opp.DealID, string(opp.Type), string(opp.Status), payload, opp.PriorityScore, opp.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: save opportunity %s", opp.ID)
}

// SaveOpportunities bulk-upserts a batch of identified opportunities,
// typically the full output of one identification run.
func (s *PostgresStore) SaveOpportunities(ctx context.Context, opps []model.SynergyOpportunity) (int64, error) {
	rows := make([][]any, 0, len(opps))
	for _, opp := range opps {
		if opp.ID == "" {
			opp.ID = uuid.New().String()
		}
		if opp.CreatedAt.IsZero() {
			opp.CreatedAt = time.Now().UTC()
		}
		payload, err := json.Marshal(opp)
		if err != nil {
			return 0, eris.Wrap(err, "postgres: marshal opportunity")
		}
		rows = append(rows, []any{
			opp.ID, opp.DealID, string(opp.Type), string(opp.Status),
			payload, opp.PriorityScore, opp.CreatedAt,
		})
	}
	return db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "synergies",
		Columns:      []string{"id", "deal_id", "type", "status", "payload", "priority", "created_at"},
		ConflictKeys: []string{"id"},
		UpdateCols:   []string{"deal_id", "type", "status", "payload", "priority"},
	}, rows)
}

func (s *PostgresStore) GetOpportunity(ctx context.Context, id string) (*model.SynergyOpportunity, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM synergies WHERE id = $1`,
		id,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Errorf("synergy not found: %s", id)
		}
		return nil, eris.Wrapf(err, "postgres: get opportunity %s", id)
	}

	var opp model.SynergyOpportunity
	if err := json.Unmarshal(payload, &opp); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal opportunity")
	}
	return &opp, nil
}

// UpdateOpportunityStatus moves an opportunity through its lifecycle,
// rejecting transitions the state machine forbids.
func (s *PostgresStore) UpdateOpportunityStatus(ctx context.Context, id string, status model.SynergyStatus) error {
	opp, err := s.GetOpportunity(ctx, id)
	if err != nil {
		return err
	}
	if err := opp.Transition(status); err != nil {
		return err
	}

	payload, err := json.Marshal(opp)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal opportunity")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE synergies SET status = $1, payload = $2 WHERE id = $3`,
		string(status), payload, id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update opportunity status %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("synergy not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) ListOpportunities(ctx context.Context, filter OpportunityFilter) ([]model.SynergyOpportunity, error) {
	query := `SELECT payload FROM synergies WHERE true`
	args := []any{}
	argIdx := 1

	if filter.DealID != "" {
		query += fmt.Sprintf(` AND deal_id = $%d`, argIdx)
		args = append(args, filter.DealID)
		argIdx++
	}
	if filter.Type != "" {
		query += fmt.Sprintf(` AND type = $%d`, argIdx)
		args = append(args, string(filter.Type))
		argIdx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += ` ORDER BY priority DESC, created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
		argIdx++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list opportunities")
	}
	defer rows.Close()

	var opps []model.SynergyOpportunity
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "postgres: scan opportunity")
		}
		var opp model.SynergyOpportunity
		if err := json.Unmarshal(payload, &opp); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal opportunity")
		}
		opps = append(opps, opp)
	}
	return opps, eris.Wrap(rows.Err(), "postgres: list opportunities iterate")
}

func (s *PostgresStore) AppendRealization(ctx context.Context, rec model.SynergyRealization) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal realization")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO synergy_realizations (id, synergy_id, period_start, period_end, payload, recorded_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.SynergyID, rec.PeriodStart, rec.PeriodEnd, payload, rec.RecordedAt,
	)
	return eris.Wrapf(err, "postgres: append realization for synergy %s", rec.SynergyID)
}

func (s *PostgresStore) ListRealizations(ctx context.Context, synergyID string) ([]model.SynergyRealization, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT payload FROM synergy_realizations WHERE synergy_id = $1 ORDER BY period_start ASC`,
		synergyID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list realizations for synergy %s", synergyID)
	}
	defer rows.Close()

	var recs []model.SynergyRealization
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "postgres: scan realization")
		}
		var rec model.SynergyRealization
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal realization")
		}
		recs = append(recs, rec)
	}
	return recs, eris.Wrap(rows.Err(), "postgres: list realizations iterate")
}
