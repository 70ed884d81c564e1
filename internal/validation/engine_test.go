package validation

import (
	"context"
	"sync"
	"testing"
	"time"

	"briefcraft/internal/brief"
	"briefcraft/internal/generation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBackend struct {
	mu      sync.Mutex
	text    string
	lastReq generation.Request
}

func (b *recordingBackend) Generate(ctx context.Context, req generation.Request) (*generation.Response, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastReq = req
	return &generation.Response{Text: b.text}, nil
}

func (b *recordingBackend) GenerateStream(ctx context.Context, req generation.Request) (<-chan string, <-chan error) {
	content := make(chan string, 1)
	errs := make(chan error, 1)
	resp, _ := b.Generate(ctx, req)
	content <- resp.Text
	close(content)
	close(errs)
	return content, errs
}

func newTestEngine(reply string) (*Engine, *recordingBackend) {
	backend := &recordingBackend{text: reply}
	client := generation.NewClient(backend, generation.DefaultSettings(),
		generation.WithPolicy(generation.Policy{MaxAttempts: 1, Delay: time.Millisecond}))
	return NewEngine(client, nil), backend
}

const validationReply = `{
	"scores": {"alignment": 80, "structure": 60, "keywords": 90, "paragraphs": 70, "word_count": 50},
	"summary": "Solid draft with gaps.",
	"proposed_changes": [
		{"type": "rewrite", "severity": "suggestion", "description": "soften tone",
		 "currentText": "a", "proposedText": "b"},
		{"type": "rewrite", "severity": "critical", "description": "missing keyword",
		 "currentText": "c", "proposedText": "d"},
		{"type": "rewrite", "severity": "warning", "description": "long paragraph",
		 "currentText": "e", "proposedText": "f"}
	]
}`

func TestValidateInitialPass(t *testing.T) {
	engine, backend := newTestEngine(validationReply)

	result, err := engine.Validate(context.Background(), Request{
		Brief:   &brief.Brief{ID: "b1", Keyword: "seo tools"},
		Article: "# Title\n\nBody.",
	})
	require.NoError(t, err)

	// Overall score is recomputed locally from the category weights.
	assert.InDelta(t, 80*0.30+60*0.25+90*0.20+70*0.15+50*0.10, result.OverallScore, 1e-9)
	assert.Equal(t, "Solid draft with gaps.", result.Summary)

	// Changes sort critical first and all receive ids.
	require.Len(t, result.Changes, 3)
	assert.Equal(t, brief.SeverityCritical, result.Changes[0].Severity)
	assert.Equal(t, brief.SeverityWarning, result.Changes[1].Severity)
	assert.Equal(t, brief.SeveritySuggestion, result.Changes[2].Severity)
	for _, c := range result.Changes {
		assert.NotEmpty(t, c.ID)
	}

	assert.Contains(t, backend.lastReq.SystemPrompt, "Score the article against its brief")
}

func TestValidateFollowUpMergesPriorChanges(t *testing.T) {
	reply := `{
		"scores": {"alignment": 85, "structure": 85, "keywords": 85, "paragraphs": 85, "word_count": 85},
		"summary": "Improved.",
		"proposed_changes": [
			{"id": "kept", "type": "rewrite", "severity": "warning", "description": "updated version",
			 "currentText": "x2", "proposedText": "y2"}
		]
	}`
	engine, backend := newTestEngine(reply)

	prior := &brief.ValidationResult{
		Changes: []brief.ProposedChange{
			{ID: "kept", Severity: brief.SeverityWarning, Description: "old version"},
			{ID: "dropped-unaddressed", Severity: brief.SeverityCritical, Description: "still open"},
		},
	}

	result, err := engine.Validate(context.Background(), Request{
		Brief:        &brief.Brief{ID: "b1", Keyword: "seo tools"},
		Article:      "# Title\n\nBody.",
		Instructions: "tighten the intro",
		Prior:        prior,
	})
	require.NoError(t, err)

	require.Len(t, result.Changes, 2)
	// The unaddressed prior change survives; the collided id takes the
	// new version; critical still sorts first.
	assert.Equal(t, "dropped-unaddressed", result.Changes[0].ID)
	assert.Equal(t, "kept", result.Changes[1].ID)
	assert.Equal(t, "updated version", result.Changes[1].Description)

	assert.Contains(t, backend.lastReq.SystemPrompt, "follow-up review")
	assert.Contains(t, backend.lastReq.UserPrompt, "Prior validation result")
	assert.Contains(t, backend.lastReq.UserPrompt, "tighten the intro")
}

func TestValidateRejectsEmptyInput(t *testing.T) {
	engine, _ := newTestEngine(validationReply)

	_, err := engine.Validate(context.Background(), Request{Article: "text"})
	require.Error(t, err)

	_, err = engine.Validate(context.Background(), Request{Brief: &brief.Brief{ID: "b"}, Article: "   "})
	require.Error(t, err)
}

func TestValidateStripsBriefReasoningFromPrompt(t *testing.T) {
	engine, backend := newTestEngine(validationReply)

	b := &brief.Brief{
		ID: "b1", Keyword: "seo tools",
		SearchIntent: &brief.SearchIntent{
			PrimaryIntent: brief.ReasoningItem[string]{Value: "commercial", Reasoning: "buying modifiers everywhere"},
		},
	}
	_, err := engine.Validate(context.Background(), Request{Brief: b, Article: "# T\n\nBody."})
	require.NoError(t, err)

	assert.Contains(t, backend.lastReq.UserPrompt, "commercial")
	assert.NotContains(t, backend.lastReq.UserPrompt, "buying modifiers everywhere")
}
