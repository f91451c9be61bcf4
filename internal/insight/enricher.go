// Package insight supplements rule-based deal scores with narrative
// strengths and concerns produced by Claude.
package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/model"
	"github.com/dudleypeacockqa/ma-saas-platform-sub002/pkg/anthropic"
)

const systemPrompt = `You are an M&A analyst reviewing acquisition targets.
Given a deal summary and its component scores, respond with a JSON object:
{"strengths": ["..."], "concerns": ["..."]}
Each entry is one short sentence grounded in the numbers provided.
List at most three strengths and three concerns. Respond with JSON only.`

// Params configures the Claude-backed enricher.
type Params struct {
	Model       string  `yaml:"model" mapstructure:"model"`
	MaxTokens   int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	// RequestsPerMinute bounds the call rate across concurrent scoring.
	RequestsPerMinute int `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// DefaultParams returns sensible enrichment defaults.
func DefaultParams() Params {
	return Params{
		Model:             "claude-sonnet-4-5-20250929",
		MaxTokens:         1024,
		Temperature:       0.2,
		RequestsPerMinute: 50,
	}
}

// Enricher asks Claude for qualitative strengths and concerns. It is safe
// for concurrent use; a shared limiter paces requests.
type Enricher struct {
	client  anthropic.Client
	params  Params
	limiter *rate.Limiter
}

// NewEnricher creates an Enricher with the given client and parameters.
func NewEnricher(client anthropic.Client, params Params) *Enricher {
	rpm := params.RequestsPerMinute
	if rpm <= 0 {
		rpm = DefaultParams().RequestsPerMinute
	}
	return &Enricher{
		client:  client,
		params:  params,
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1),
	}
}

type enrichmentResult struct {
	Strengths []string `json:"strengths"`
	Concerns  []string `json:"concerns"`
}

// Enrich returns narrative strengths and concerns for a scored deal.
func (e *Enricher) Enrich(ctx context.Context, deal model.Deal, score *model.DealScore) ([]string, []string, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, nil, eris.Wrap(err, "insight: rate limit wait")
	}

	temp := e.params.Temperature
	resp, err := e.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       e.params.Model,
		MaxTokens:   e.params.MaxTokens,
		System:      anthropic.BuildCachedSystemBlocks(systemPrompt),
		Messages:    []anthropic.Message{{Role: "user", Content: buildPrompt(deal, score)}},
		Temperature: &temp,
	})
	if err != nil {
		return nil, nil, eris.Wrapf(err, "insight: enrich deal %s", deal.ID)
	}
	resp.Usage.LogCost(e.params.Model, "insight")

	result, err := parseEnrichment(resp.Text())
	if err != nil {
		return nil, nil, eris.Wrapf(err, "insight: parse response for deal %s", deal.ID)
	}

	zap.L().Debug("insight: deal enriched",
		zap.String("deal_id", deal.ID),
		zap.Int("strengths", len(result.Strengths)),
		zap.Int("concerns", len(result.Concerns)),
	)
	return result.Strengths, result.Concerns, nil
}

// buildPrompt summarizes the deal and its component scores for the model.
func buildPrompt(deal model.Deal, score *model.DealScore) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Deal: %s\n", deal.Name)
	if deal.Industry != "" {
		fmt.Fprintf(&sb, "Industry: %s\n", deal.Industry)
	}
	fmt.Fprintf(&sb, "Stage: %s\n", deal.Stage)
	fmt.Fprintf(&sb, "Value: %.0f\n", deal.Value)
	fmt.Fprintf(&sb, "Overall score: %.1f (risk %s, recommendation %s)\n",
		score.OverallScore, score.RiskLevel, score.Recommendation)
	sb.WriteString("Component scores:\n")
	for name, value := range score.ComponentScores {
		fmt.Fprintf(&sb, "  %s: %.1f\n", name, value)
	}
	return sb.String()
}

// parseEnrichment extracts the JSON object from a model response, tolerating
// surrounding prose or code fences.
func parseEnrichment(text string) (*enrichmentResult, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, eris.New("no JSON object in response")
	}

	var result enrichmentResult
	if err := json.Unmarshal([]byte(text[start:end+1]), &result); err != nil {
		return nil, eris.Wrap(err, "unmarshal enrichment")
	}
	return &result, nil
}
