package store

import (
	"context"

	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/model"
)

// OpportunityFilter specifies criteria for listing synergy opportunities.
type OpportunityFilter struct {
	DealID string              `json:"deal_id,omitempty"`
	Type   model.SynergyType   `json:"type,omitempty"`
	Status model.SynergyStatus `json:"status,omitempty"`
	Limit  int                 `json:"limit,omitempty"`
	Offset int                 `json:"offset,omitempty"`
}

// BatchWriter is implemented by stores that can persist a whole run in one
// round trip. Callers fall back to row-by-row saves when the configured
// store does not support it.
type BatchWriter interface {
	SaveDealScores(ctx context.Context, scores []model.DealScore) (int64, error)
	SaveOpportunities(ctx context.Context, opps []model.SynergyOpportunity) (int64, error)
}

// Store defines the persistence interface for scores, synergy opportunities,
// and realization history.
type Store interface {
	// Deal scores
	SaveDealScore(ctx context.Context, score model.DealScore) error
	ListDealScores(ctx context.Context, dealID string) ([]model.DealScore, error)
	LatestDealScore(ctx context.Context, dealID string) (*model.DealScore, error)

	// Synergy opportunities
	SaveOpportunity(ctx context.Context, opp model.SynergyOpportunity) error
	GetOpportunity(ctx context.Context, id string) (*model.SynergyOpportunity, error)
	UpdateOpportunityStatus(ctx context.Context, id string, status model.SynergyStatus) error
	ListOpportunities(ctx context.Context, filter OpportunityFilter) ([]model.SynergyOpportunity, error)

	// Realization history
	AppendRealization(ctx context.Context, rec model.SynergyRealization) error
	ListRealizations(ctx context.Context, synergyID string) ([]model.SynergyRealization, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
