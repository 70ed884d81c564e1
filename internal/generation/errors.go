// Package generation wraps the Gemini-shaped text-generation backend with
// schema-constrained calls, a single injected retry policy, thinking-effort
// budgeting, and a cancellable streaming variant.
package generation

import (
	"errors"
	"fmt"
)

// ErrEmptyCompletion reports a structurally successful call that returned
// no usable text. It is treated as a failure, never as a success with an
// empty payload.
var ErrEmptyCompletion = errors.New("empty completion")

// ErrSchemaViolation reports backend output that fails to parse against the
// requested response schema. For retry purposes it is treated like a
// transient error, since occasional structured-output drift is expected.
var ErrSchemaViolation = errors.New("response violates schema")

// Error is the typed terminal failure surfaced once the retry budget is
// exhausted. It identifies the operation and how many attempts were made.
type Error struct {
	Op       string
	Model    string
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("generation %s (model=%s) failed after %d attempts: %v", e.Op, e.Model, e.Attempts, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
