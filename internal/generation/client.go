package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// GenRequest is a schema-constrained generation request at the client
// level. Op names the stage or operation for error reporting.
type GenRequest struct {
	Op           string
	Tier         Tier
	SystemPrompt string
	UserPrompt   string

	// Schema, when non-nil, requests structured output. The returned text
	// is the extracted JSON payload.
	Schema map[string]any

	Effort Effort
}

// Client is the schema-generation client: one backend, one retry policy,
// explicit per-session settings.
type Client struct {
	backend  Backend
	settings Settings
	policy   Policy
	logger   *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithPolicy overrides the retry policy.
func WithPolicy(p Policy) ClientOption {
	return func(c *Client) { c.policy = p }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a client over the given backend and session settings.
func NewClient(backend Backend, settings Settings, opts ...ClientOption) *Client {
	c := &Client{
		backend:  backend,
		settings: settings,
		policy:   DefaultPolicy(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Settings returns the session settings the client was built with.
func (c *Client) Settings() Settings { return c.settings }

// WithRetryPolicy returns a copy of the client using a different retry
// policy. Used by the outline resource-analysis pass for its shorter
// budget.
func (c *Client) WithRetryPolicy(p Policy) *Client {
	cp := *c
	cp.policy = p
	return &cp
}

func (c *Client) buildBackendRequest(req GenRequest) Request {
	model := c.settings.ModelFor(req.Tier)
	out := Request{
		Model:           model,
		SystemPrompt:    req.SystemPrompt,
		UserPrompt:      req.UserPrompt,
		ResponseSchema:  req.Schema,
		Temperature:     c.settings.Temperature,
		MaxOutputTokens: c.settings.MaxOutputTokens,
	}
	if req.Effort != "" && SupportsThinking(model) {
		out.ThinkingBudget = req.Effort.Budget(req.Tier)
	}
	return out
}

// Generate runs one retried generation call. For schema requests the
// returned string is the extracted, parse-checked JSON document; an empty
// or unparseable result counts as a failed attempt.
func (c *Client) Generate(ctx context.Context, req GenRequest) (string, error) {
	backendReq := c.buildBackendRequest(req)

	var text string
	attempts, err := c.policy.Do(ctx, c.logger, req.Op, func() error {
		resp, err := c.backend.Generate(ctx, backendReq)
		if err != nil {
			return err
		}
		out := strings.TrimSpace(resp.Text)
		if out == "" {
			return ErrEmptyCompletion
		}
		if req.Schema != nil {
			extracted := ExtractJSON(out)
			if extracted == "" {
				extracted = ExtractJSONArray(out)
			}
			if extracted == "" || !json.Valid([]byte(extracted)) {
				return fmt.Errorf("%w: no parseable JSON in response", ErrSchemaViolation)
			}
			out = extracted
		}
		text = out
		return nil
	})
	if err != nil {
		return "", &Error{Op: req.Op, Model: backendReq.Model, Attempts: attempts, Err: err}
	}
	return text, nil
}

// GenerateJSON runs Generate and unmarshals the result into out. An
// unmarshal failure consumes an attempt like any other schema violation.
func (c *Client) GenerateJSON(ctx context.Context, req GenRequest, out any) error {
	backendReq := c.buildBackendRequest(req)

	attempts, err := c.policy.Do(ctx, c.logger, req.Op, func() error {
		resp, err := c.backend.Generate(ctx, backendReq)
		if err != nil {
			return err
		}
		text := strings.TrimSpace(resp.Text)
		if text == "" {
			return ErrEmptyCompletion
		}
		extracted := ExtractJSON(text)
		if extracted == "" {
			extracted = ExtractJSONArray(text)
		}
		if extracted == "" {
			return fmt.Errorf("%w: no parseable JSON in response", ErrSchemaViolation)
		}
		if err := json.Unmarshal([]byte(extracted), out); err != nil {
			return fmt.Errorf("%w: %v", ErrSchemaViolation, err)
		}
		return nil
	})
	if err != nil {
		return &Error{Op: req.Op, Model: backendReq.Model, Attempts: attempts, Err: err}
	}
	return nil
}

// GenerateStream starts a single streaming call. Retry does not apply
// mid-stream; callers that need retry semantics fall back to Generate.
func (c *Client) GenerateStream(ctx context.Context, req GenRequest) (<-chan string, <-chan error) {
	return c.backend.GenerateStream(ctx, c.buildBackendRequest(req))
}
