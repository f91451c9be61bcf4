package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS deal_scores (
	id             TEXT PRIMARY KEY,
	deal_id        TEXT NOT NULL,
	score          TEXT NOT NULL,
	overall        REAL NOT NULL,
	recommendation TEXT NOT NULL,
	scored_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS synergies (
	id         TEXT PRIMARY KEY,
	deal_id    TEXT,
	type       TEXT NOT NULL,
	status     TEXT NOT NULL,
	payload    TEXT NOT NULL,
	priority   REAL NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS synergy_realizations (
	id           TEXT PRIMARY KEY,
	synergy_id   TEXT NOT NULL REFERENCES synergies(id),
	period_start DATETIME NOT NULL,
	period_end   DATETIME NOT NULL,
	payload      TEXT NOT NULL,
	recorded_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_deal_scores_deal_id ON deal_scores(deal_id);
CREATE INDEX IF NOT EXISTS idx_deal_scores_scored_at ON deal_scores(scored_at);
CREATE INDEX IF NOT EXISTS idx_synergies_deal_id ON synergies(deal_id);
CREATE INDEX IF NOT EXISTS idx_synergies_status ON synergies(status);
CREATE INDEX IF NOT EXISTS idx_realizations_synergy_id ON synergy_realizations(synergy_id);
CREATE INDEX IF NOT EXISTS idx_realizations_period_start ON synergy_realizations(period_start);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveDealScore(ctx context.Context, score model.DealScore) error {
	if score.ScoredAt.IsZero() {
		score.ScoredAt = time.Now().UTC()
	}

	scoreJSON, err := json.Marshal(score)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal score")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO deal_scores (id, deal_id, score, overall, recommendation, scored_at) VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), score.DealID, string(scoreJSON), score.OverallScore, string(score.Recommendation), score.ScoredAt,
	)
	return eris.Wrapf(err, "sqlite: insert score for deal %s", score.DealID)
}

func (s *SQLiteStore) ListDealScores(ctx context.Context, dealID string) ([]model.DealScore, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT score FROM deal_scores WHERE deal_id = ? ORDER BY scored_at DESC`,
		dealID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list scores for deal %s", dealID)
	}
	defer rows.Close()

	var scores []model.DealScore
	for rows.Next() {
		var scoreJSON string
		if err := rows.Scan(&scoreJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan score")
		}
		var score model.DealScore
		if err := json.Unmarshal([]byte(scoreJSON), &score); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal score")
		}
		scores = append(scores, score)
	}
	return scores, eris.Wrap(rows.Err(), "sqlite: list scores iterate")
}

func (s *SQLiteStore) LatestDealScore(ctx context.Context, dealID string) (*model.DealScore, error) {
	var scoreJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT score FROM deal_scores WHERE deal_id = ? ORDER BY scored_at DESC LIMIT 1`,
		dealID,
	).Scan(&scoreJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: latest score for deal %s", dealID)
	}

	var score model.DealScore
	if err := json.Unmarshal([]byte(scoreJSON), &score); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal score")
	}
	return &score, nil
}

func (s *SQLiteStore) SaveOpportunity(ctx context.Context, opp model.SynergyOpportunity) error {
	if opp.ID == "" {
		opp.ID = uuid.New().String()
	}
	if opp.CreatedAt.IsZero() {
		opp.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(opp)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal opportunity")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO synergies (id, deal_id, type, status, payload, priority, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET deal_id = ?, type = ?, status = ?, payload = ?, priority = ?`,
		opp.ID, opp.DealID, string(opp.Type), string(opp.Status), string(payload), opp.PriorityScore, opp.CreatedAt,
		opp.DealID, string(opp.Type), string(opp.Status), string(payload), opp.PriorityScore,
	)
	return eris.Wrapf(err, "sqlite: save opportunity %s", opp.ID)
}

func (s *SQLiteStore) GetOpportunity(ctx context.Context, id string) (*model.SynergyOpportunity, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM synergies WHERE id = ?`,
		id,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("synergy not found: %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get opportunity %s", id)
	}

	var opp model.SynergyOpportunity
	if err := json.Unmarshal([]byte(payload), &opp); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal opportunity")
	}
	return &opp, nil
}

// UpdateOpportunityStatus moves an opportunity through its lifecycle,
// rejecting transitions the state machine forbids.
func (s *SQLiteStore) UpdateOpportunityStatus(ctx context.Context, id string, status model.SynergyStatus) error {
	opp, err := s.GetOpportunity(ctx, id)
	if err != nil {
		return err
	}
	if err := opp.Transition(status); err != nil {
		return err
	}

	payload, err := json.Marshal(opp)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal opportunity")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE synergies SET status = ?, payload = ? WHERE id = ?`,
		string(status), string(payload), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update opportunity status %s", id)
	}
	return checkRowsAffected(res, "synergy", id)
}

func (s *SQLiteStore) ListOpportunities(ctx context.Context, filter OpportunityFilter) ([]model.SynergyOpportunity, error) {
	query := `SELECT payload FROM synergies WHERE 1=1`
	var args []any

	if filter.DealID != "" {
		query += ` AND deal_id = ?`
		args = append(args, filter.DealID)
	}
	if filter.Type != "" {
		query += ` AND type = ?`
		args = append(args, string(filter.Type))
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY priority DESC, created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list opportunities")
	}
	defer rows.Close()

	var opps []model.SynergyOpportunity
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan opportunity")
		}
		var opp model.SynergyOpportunity
		if err := json.Unmarshal([]byte(payload), &opp); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal opportunity")
		}
		opps = append(opps, opp)
	}
	return opps, eris.Wrap(rows.Err(), "sqlite: list opportunities iterate")
}

func (s *SQLiteStore) AppendRealization(ctx context.Context, rec model.SynergyRealization) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal realization")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO synergy_realizations (id, synergy_id, period_start, period_end, payload, recorded_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SynergyID, rec.PeriodStart, rec.PeriodEnd, string(payload), rec.RecordedAt,
	)
	return eris.Wrapf(err, "sqlite: append realization for synergy %s", rec.SynergyID)
}

func (s *SQLiteStore) ListRealizations(ctx context.Context, synergyID string) ([]model.SynergyRealization, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM synergy_realizations WHERE synergy_id = ? ORDER BY period_start ASC`,
		synergyID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list realizations for synergy %s", synergyID)
	}
	defer rows.Close()

	var recs []model.SynergyRealization
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan realization")
		}
		var rec model.SynergyRealization
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal realization")
		}
		recs = append(recs, rec)
	}
	return recs, eris.Wrap(rows.Err(), "sqlite: list realizations iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
