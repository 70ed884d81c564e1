package generation

import "context"

// Request is a single backend generation call.
type Request struct {
	Model        string
	SystemPrompt string
	UserPrompt   string

	// ResponseSchema, when non-nil, instructs the backend to emit only
	// machine-parseable JSON conforming to it.
	ResponseSchema map[string]any

	// ThinkingBudget in tokens. Zero disables the thinking config.
	ThinkingBudget int

	Temperature     float64
	MaxOutputTokens int
}

// Response is the backend result for a non-streaming call.
type Response struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	ThoughtTokens    int
}

// Backend is the generation-backend contract. Implementations make exactly
// one attempt per call; retry lives in the client's Policy.
//
// GenerateStream yields incremental text chunks on the content channel and
// terminates with at most one error on the error channel. Cancelling the
// context stops chunk delivery and releases the connection. The
// concatenation of all chunks for a given input equals what Generate would
// have returned.
type Backend interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	GenerateStream(ctx context.Context, req Request) (<-chan string, <-chan error)
}
