// Package model defines the core domain types for deal scoring, synergy
// tracking, and pipeline analytics.
package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// PipelineStage represents a stage in the acquisition pipeline.
type PipelineStage string

const (
	StageSourcing     PipelineStage = "sourcing"
	StageScreening    PipelineStage = "screening"
	StageValuation    PipelineStage = "valuation"
	StageDueDiligence PipelineStage = "due_diligence"
	StageNegotiation  PipelineStage = "negotiation"
	StageClosing      PipelineStage = "closing"
	StageClosedWon    PipelineStage = "closed_won"
	StageClosedLost   PipelineStage = "closed_lost"
)

// stageOrder is the fixed total order of pipeline stages. The last two
// entries are terminal absorbing states.
var stageOrder = []PipelineStage{
	StageSourcing,
	StageScreening,
	StageValuation,
	StageDueDiligence,
	StageNegotiation,
	StageClosing,
	StageClosedWon,
	StageClosedLost,
}

// ActiveStages returns the non-terminal stages in pipeline order.
func ActiveStages() []PipelineStage {
	return stageOrder[:len(stageOrder)-2]
}

// ParseStage converts a string into a PipelineStage. Unknown values are a
// configuration error, not a silently skipped branch.
func ParseStage(s string) (PipelineStage, error) {
	for _, stage := range stageOrder {
		if string(stage) == s {
			return stage, nil
		}
	}
	return "", eris.Errorf("model: unknown pipeline stage %q", s)
}

// Index returns the position of the stage in the pipeline order, or -1 for
// unrecognized values.
func (s PipelineStage) Index() int {
	for i, stage := range stageOrder {
		if stage == s {
			return i
		}
	}
	return -1
}

// Terminal reports whether the stage is an absorbing state.
func (s PipelineStage) Terminal() bool {
	return s == StageClosedWon || s == StageClosedLost
}

// Next returns the immediate successor in the stage order. The second return
// is false for terminal or unrecognized stages.
func (s PipelineStage) Next() (PipelineStage, bool) {
	i := s.Index()
	if i < 0 || s.Terminal() {
		return "", false
	}
	return stageOrder[i+1], true
}

// NearTerminal reports whether the stage is within the last two active
// stages before the terminal states.
func (s PipelineStage) NearTerminal() bool {
	return s == StageNegotiation || s == StageClosing
}

// StageEntry records when a deal entered a pipeline stage.
type StageEntry struct {
	Stage     PipelineStage `json:"stage"`
	EnteredAt time.Time     `json:"entered_at"`
}
