package generation

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GenAIBackend implements Backend on the official google.golang.org/genai
// SDK. It is interchangeable with RESTBackend; which one runs is a config
// choice.
type GenAIBackend struct {
	client *genai.Client
	logger *zap.Logger
}

// NewGenAIBackend creates an SDK-backed backend.
func NewGenAIBackend(ctx context.Context, apiKey string, logger *zap.Logger) (*GenAIBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key not configured")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GenAIBackend{client: client, logger: logger}, nil
}

func (b *GenAIBackend) buildConfig(req Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if req.Temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxOutputTokens)
	}
	if req.ThinkingBudget > 0 {
		cfg.ThinkingConfig = &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr(int32(req.ThinkingBudget)),
		}
	}
	if req.ResponseSchema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseJsonSchema = req.ResponseSchema
	}
	return cfg
}

// Generate makes a single non-streaming call.
func (b *GenAIBackend) Generate(ctx context.Context, req Request) (*Response, error) {
	resp, err := b.client.Models.GenerateContent(ctx, req.Model, genai.Text(req.UserPrompt), b.buildConfig(req))
	if err != nil {
		return nil, fmt.Errorf("genai generate: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyCompletion
	}

	out := &Response{Text: text}
	if resp.UsageMetadata != nil {
		out.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		out.ThoughtTokens = int(resp.UsageMetadata.ThoughtsTokenCount)
	}
	return out, nil
}

// GenerateStream adapts the SDK's streaming iterator to the channel
// contract shared with RESTBackend.
func (b *GenAIBackend) GenerateStream(ctx context.Context, req Request) (<-chan string, <-chan error) {
	contentChan := make(chan string, 16)
	errorChan := make(chan error, 1)

	go func() {
		defer close(contentChan)
		defer close(errorChan)

		for resp, err := range b.client.Models.GenerateContentStream(ctx, req.Model, genai.Text(req.UserPrompt), b.buildConfig(req)) {
			if err != nil {
				errorChan <- fmt.Errorf("genai stream: %w", err)
				return
			}
			text := resp.Text()
			if text == "" {
				continue
			}
			select {
			case contentChan <- text:
			case <-ctx.Done():
				errorChan <- ctx.Err()
				return
			}
		}
	}()

	return contentChan, errorChan
}
