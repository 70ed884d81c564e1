package generation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedBackend returns queued responses in order; the last entry
// repeats once the queue is exhausted.
type scriptedBackend struct {
	mu      sync.Mutex
	calls   int
	replies []scriptedReply
	lastReq Request
}

type scriptedReply struct {
	text string
	err  error
}

func (b *scriptedBackend) Generate(ctx context.Context, req Request) (*Response, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	b.lastReq = req

	idx := b.calls - 1
	if idx >= len(b.replies) {
		idx = len(b.replies) - 1
	}
	r := b.replies[idx]
	if r.err != nil {
		return nil, r.err
	}
	return &Response{Text: r.text}, nil
}

func (b *scriptedBackend) GenerateStream(ctx context.Context, req Request) (<-chan string, <-chan error) {
	content := make(chan string, 4)
	errs := make(chan error, 1)
	go func() {
		defer close(content)
		defer close(errs)
		resp, err := b.Generate(ctx, req)
		if err != nil {
			errs <- err
			return
		}
		// Emit in two chunks to exercise aggregation.
		half := len(resp.Text) / 2
		content <- resp.Text[:half]
		content <- resp.Text[half:]
	}()
	return content, errs
}

func fastPolicy(attempts int) Policy {
	return Policy{MaxAttempts: attempts, Delay: time.Millisecond}
}

func TestGenerateRetriesUntilSuccess(t *testing.T) {
	backend := &scriptedBackend{replies: []scriptedReply{
		{err: errors.New("rate limited")},
		{err: errors.New("rate limited")},
		{text: "final answer"},
	}}
	client := NewClient(backend, DefaultSettings(), WithPolicy(fastPolicy(3)))

	text, err := client.Generate(context.Background(), GenRequest{Op: "test"})
	require.NoError(t, err)
	assert.Equal(t, "final answer", text)
	assert.Equal(t, 3, backend.calls)
}

func TestGenerateExhaustsAttempts(t *testing.T) {
	backend := &scriptedBackend{replies: []scriptedReply{
		{err: errors.New("persistent failure")},
	}}
	client := NewClient(backend, DefaultSettings(), WithPolicy(fastPolicy(3)))

	_, err := client.Generate(context.Background(), GenRequest{Op: "test"})
	require.Error(t, err)
	assert.Equal(t, 3, backend.calls)

	var genErr *Error
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, "test", genErr.Op)
	assert.Equal(t, 3, genErr.Attempts)
}

func TestGenerateEmptyCompletionRetried(t *testing.T) {
	backend := &scriptedBackend{replies: []scriptedReply{
		{text: "   "},
		{text: "recovered"},
	}}
	client := NewClient(backend, DefaultSettings(), WithPolicy(fastPolicy(3)))

	text, err := client.Generate(context.Background(), GenRequest{Op: "test"})
	require.NoError(t, err)
	assert.Equal(t, "recovered", text)
	assert.Equal(t, 2, backend.calls)
}

func TestGenerateEmptyCompletionExhausted(t *testing.T) {
	backend := &scriptedBackend{replies: []scriptedReply{{text: ""}}}
	client := NewClient(backend, DefaultSettings(), WithPolicy(fastPolicy(2)))

	_, err := client.Generate(context.Background(), GenRequest{Op: "test"})
	require.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestGenerateSchemaExtractsFencedJSON(t *testing.T) {
	backend := &scriptedBackend{replies: []scriptedReply{
		{text: "Here you go:\n```json\n{\"goal\": \"rank\"}\n```"},
	}}
	client := NewClient(backend, DefaultSettings(), WithPolicy(fastPolicy(1)))

	text, err := client.Generate(context.Background(), GenRequest{
		Op:     "test",
		Schema: map[string]any{"type": "object"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"goal": "rank"}`, text)
}

func TestGenerateSchemaViolationConsumesAttempts(t *testing.T) {
	backend := &scriptedBackend{replies: []scriptedReply{
		{text: "no json here at all"},
		{text: `{"ok": true}`},
	}}
	client := NewClient(backend, DefaultSettings(), WithPolicy(fastPolicy(3)))

	text, err := client.Generate(context.Background(), GenRequest{
		Op:     "test",
		Schema: map[string]any{"type": "object"},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"ok": true}`, text)
	assert.Equal(t, 2, backend.calls)
}

func TestGenerateJSONUnmarshalFailureRetried(t *testing.T) {
	backend := &scriptedBackend{replies: []scriptedReply{
		{text: `{"count": "not a number"}`},
		{text: `{"count": 7}`},
	}}
	client := NewClient(backend, DefaultSettings(), WithPolicy(fastPolicy(3)))

	var out struct {
		Count int `json:"count"`
	}
	err := client.GenerateJSON(context.Background(), GenRequest{Op: "test"}, &out)
	require.NoError(t, err)
	assert.Equal(t, 7, out.Count)
	assert.Equal(t, 2, backend.calls)
}

func TestGenerateJSONExhaustedReportsSchemaViolation(t *testing.T) {
	backend := &scriptedBackend{replies: []scriptedReply{{text: "still not json"}}}
	client := NewClient(backend, DefaultSettings(), WithPolicy(fastPolicy(2)))

	var out map[string]any
	err := client.GenerateJSON(context.Background(), GenRequest{Op: "test"}, &out)
	require.ErrorIs(t, err, ErrSchemaViolation)

	var genErr *Error
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, 2, genErr.Attempts)
}

func TestGenerateThinkingBudgetResolution(t *testing.T) {
	tests := []struct {
		name   string
		tier   Tier
		effort Effort
		want   int
	}{
		{"high on main", TierMain, EffortHigh, 24576},
		{"medium on main", TierMain, EffortMedium, 8192},
		{"low on fast", TierFast, EffortLow, 2048},
		{"minimal on fast", TierFast, EffortMinimal, 1024},
		{"minimal upgraded on main", TierMain, EffortMinimal, 2048},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &scriptedBackend{replies: []scriptedReply{{text: "ok"}}}
			client := NewClient(backend, DefaultSettings(), WithPolicy(fastPolicy(1)))

			_, err := client.Generate(context.Background(), GenRequest{
				Op:     "test",
				Tier:   tt.tier,
				Effort: tt.effort,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, backend.lastReq.ThinkingBudget)
		})
	}
}

func TestGenerateNoThinkingForUnsupportedModel(t *testing.T) {
	backend := &scriptedBackend{replies: []scriptedReply{{text: "ok"}}}
	settings := DefaultSettings()
	settings.MainModel = "gemini-1.5-pro"
	client := NewClient(backend, settings, WithPolicy(fastPolicy(1)))

	_, err := client.Generate(context.Background(), GenRequest{
		Op:     "test",
		Tier:   TierMain,
		Effort: EffortHigh,
	})
	require.NoError(t, err)
	assert.Zero(t, backend.lastReq.ThinkingBudget)
}

func TestGenerateTierSelectsModel(t *testing.T) {
	backend := &scriptedBackend{replies: []scriptedReply{{text: "ok"}}}
	client := NewClient(backend, DefaultSettings(), WithPolicy(fastPolicy(1)))

	_, err := client.Generate(context.Background(), GenRequest{Op: "test", Tier: TierFast})
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash", backend.lastReq.Model)
}

func TestGenerateStreamAggregatesChunks(t *testing.T) {
	backend := &scriptedBackend{replies: []scriptedReply{{text: "streamed body text"}}}
	client := NewClient(backend, DefaultSettings(), WithPolicy(fastPolicy(1)))

	content, errs := client.GenerateStream(context.Background(), GenRequest{Op: "test"})
	var got string
	for chunk := range content {
		got += chunk
	}
	require.NoError(t, <-errs)
	assert.Equal(t, "streamed body text", got)
}

func TestWithRetryPolicyDoesNotMutateOriginal(t *testing.T) {
	backend := &scriptedBackend{replies: []scriptedReply{{err: errors.New("down")}}}
	client := NewClient(backend, DefaultSettings(), WithPolicy(fastPolicy(3)))

	short := client.WithRetryPolicy(fastPolicy(1))
	_, err := short.Generate(context.Background(), GenRequest{Op: "test"})
	require.Error(t, err)
	assert.Equal(t, 1, backend.calls)

	backend.calls = 0
	_, err = client.Generate(context.Background(), GenRequest{Op: "test"})
	require.Error(t, err)
	assert.Equal(t, 3, backend.calls)
}
