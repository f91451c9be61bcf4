package insight

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/model"
	"github.com/dudleypeacockqa/ma-saas-platform-sub002/pkg/anthropic"
)

// fakeClient returns a canned response or error.
type fakeClient struct {
	resp *anthropic.MessageResponse
	err  error
	last anthropic.MessageRequest
}

func (f *fakeClient) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
	}
}

func testScore() *model.DealScore {
	return &model.DealScore{
		DealID:          "deal-1",
		OverallScore:    81.0,
		RiskLevel:       model.RiskLow,
		Recommendation:  model.RecommendProceed,
		ComponentScores: map[string]float64{"financial": 95, "risk": 20},
	}
}

func TestEnrich(t *testing.T) {
	client := &fakeClient{resp: textResponse(
		`{"strengths": ["strong margin expansion"], "concerns": ["single large customer"]}`,
	)}
	e := NewEnricher(client, DefaultParams())

	deal := model.Deal{ID: "deal-1", Name: "Project Atlas", Industry: "software", Stage: model.StageValuation, Value: 12_000_000}
	strengths, concerns, err := e.Enrich(context.Background(), deal, testScore())
	require.NoError(t, err)
	assert.Equal(t, []string{"strong margin expansion"}, strengths)
	assert.Equal(t, []string{"single large customer"}, concerns)

	// prompt carries the numbers the model should ground on
	prompt := client.last.Messages[0].Content
	assert.Contains(t, prompt, "Project Atlas")
	assert.Contains(t, prompt, "81.0")
	assert.Contains(t, prompt, "financial")
	require.Len(t, client.last.System, 1)
	require.NotNil(t, client.last.System[0].CacheControl)
}

func TestEnrichToleratesCodeFences(t *testing.T) {
	client := &fakeClient{resp: textResponse(
		"Here is the analysis:\n```json\n{\"strengths\": [\"low leverage\"], \"concerns\": []}\n```\n",
	)}
	e := NewEnricher(client, DefaultParams())

	strengths, concerns, err := e.Enrich(context.Background(), model.Deal{ID: "d"}, testScore())
	require.NoError(t, err)
	assert.Equal(t, []string{"low leverage"}, strengths)
	assert.Empty(t, concerns)
}

func TestEnrichClientError(t *testing.T) {
	client := &fakeClient{err: eris.New("api unavailable")}
	e := NewEnricher(client, DefaultParams())

	_, _, err := e.Enrich(context.Background(), model.Deal{ID: "deal-1"}, testScore())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deal-1")
}

func TestEnrichMalformedResponse(t *testing.T) {
	client := &fakeClient{resp: textResponse("I cannot produce JSON today.")}
	e := NewEnricher(client, DefaultParams())

	_, _, err := e.Enrich(context.Background(), model.Deal{ID: "deal-1"}, testScore())
	require.Error(t, err)
}

func TestParseEnrichment(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{"plain object", `{"strengths":[],"concerns":[]}`, false},
		{"surrounded by prose", `Sure. {"strengths":["x"],"concerns":["y"]} Done.`, false},
		{"no json", "nothing here", true},
		{"broken json", `{"strengths": [`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseEnrichment(tt.text)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
