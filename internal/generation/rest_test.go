package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newTestBackend(t *testing.T, handler http.HandlerFunc) *RESTBackend {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	b, err := NewRESTBackend(RESTConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
	}, nil)
	require.NoError(t, err)
	return b
}

func candidateJSON(text string) string {
	resp := map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]string{{"text": text}}}},
		},
		"usageMetadata": map[string]int{
			"promptTokenCount":     10,
			"candidatesTokenCount": 5,
		},
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

func TestRESTBackendGenerate(t *testing.T) {
	var gotBody geminiRequest
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "models/gemini-2.5-pro:generateContent")
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		fmt.Fprint(w, candidateJSON("hello from gemini"))
	})

	resp, err := backend.Generate(context.Background(), Request{
		Model:           "gemini-2.5-pro",
		SystemPrompt:    "You are a strategist.",
		UserPrompt:      "Analyze this keyword.",
		ThinkingBudget:  8192,
		Temperature:     1.0,
		MaxOutputTokens: 1024,
		ResponseSchema:  map[string]any{"type": "object"},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello from gemini", resp.Text)
	assert.Equal(t, 10, resp.PromptTokens)
	assert.Equal(t, 5, resp.CompletionTokens)

	require.NotNil(t, gotBody.SystemInstruction)
	assert.Equal(t, "You are a strategist.", gotBody.SystemInstruction.Parts[0].Text)
	require.NotNil(t, gotBody.GenerationConfig.ThinkingConfig)
	assert.Equal(t, 8192, gotBody.GenerationConfig.ThinkingConfig.ThinkingBudget)
	assert.Equal(t, "application/json", gotBody.GenerationConfig.ResponseMimeType)
	assert.NotNil(t, gotBody.GenerationConfig.ResponseSchema)
}

func TestRESTBackendGenerateHTTPError(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "quota exceeded"}}`, http.StatusTooManyRequests)
	})

	_, err := backend.Generate(context.Background(), Request{Model: "gemini-2.5-pro"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestRESTBackendGenerateEmptyCandidates(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates": []}`)
	})

	_, err := backend.Generate(context.Background(), Request{Model: "gemini-2.5-pro"})
	require.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestRESTBackendGenerateStream(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, ":streamGenerateContent")
		assert.Equal(t, "sse", r.URL.Query().Get("alt"))
		w.Header().Set("Content-Type", "text/event-stream")

		for _, chunk := range []string{"The first ", "and the second ", "and the last."} {
			fmt.Fprintf(w, "data: %s\n\n", candidateJSON(chunk))
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	content, errs := backend.GenerateStream(context.Background(), Request{Model: "gemini-2.5-flash"})
	var sb strings.Builder
	for chunk := range content {
		sb.WriteString(chunk)
	}
	require.NoError(t, <-errs)
	assert.Equal(t, "The first and the second and the last.", sb.String())
}

func TestRESTBackendStreamAggregateMatchesGenerate(t *testing.T) {
	// Chunks with surrounding whitespace: the streamed concatenation and
	// the non-streaming text must agree byte for byte.
	chunks := []string{"\n  The first ", "and the second ", "and the last.  \n"}

	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("alt") == "sse" {
			w.Header().Set("Content-Type", "text/event-stream")
			for _, chunk := range chunks {
				fmt.Fprintf(w, "data: %s\n\n", candidateJSON(chunk))
			}
			fmt.Fprint(w, "data: [DONE]\n\n")
			return
		}
		fmt.Fprint(w, candidateJSON(strings.Join(chunks, "")))
	})

	req := Request{Model: "gemini-2.5-flash"}
	resp, err := backend.Generate(context.Background(), req)
	require.NoError(t, err)

	content, errs := backend.GenerateStream(context.Background(), req)
	var sb strings.Builder
	for chunk := range content {
		sb.WriteString(chunk)
	}
	require.NoError(t, <-errs)
	assert.Equal(t, resp.Text, sb.String())
}

func TestRESTBackendGenerateStreamMidStreamError(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprintf(w, "data: %s\n\n", candidateJSON("partial "))
		fmt.Fprint(w, `data: {"error": {"code": 500, "message": "internal failure"}}`+"\n\n")
	})

	content, errs := backend.GenerateStream(context.Background(), Request{Model: "gemini-2.5-flash"})
	var got string
	for chunk := range content {
		got += chunk
	}
	err := <-errs
	require.Error(t, err)
	assert.Contains(t, err.Error(), "internal failure")
	assert.Equal(t, "partial ", got)
}

func TestRESTBackendGenerateStreamCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprintf(w, "data: %s\n\n", candidateJSON("first chunk"))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))

	backend, err := NewRESTBackend(RESTConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	content, errs := backend.GenerateStream(ctx, Request{Model: "gemini-2.5-flash"})

	<-content
	cancel()

	for range content {
	}
	if streamErr := <-errs; streamErr != nil {
		assert.ErrorIs(t, streamErr, context.Canceled)
	}

	close(release)
	srv.Close()
	goleak.VerifyNone(t, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

func TestNewRESTBackendRequiresKey(t *testing.T) {
	_, err := NewRESTBackend(RESTConfig{}, nil)
	require.Error(t, err)
}
