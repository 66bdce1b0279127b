// Package providers implements the Backend Adapter (C2): one uniform
// streaming-turn and completion API over five incompatible LLM wire
// protocols.
package providers

import (
	"context"
	"strconv"

	"github.com/utenadev/familiar-ai/pkg/models"
)

// System is the two-part system prompt a StreamTurn request carries.
// Stable is the portion that should be cache-tagged by backends that
// support prompt caching (Anthropic); Variable changes every turn
// (interoception, plan, impulse) and is never cached.
type System struct {
	Stable   string
	Variable string
}

// StreamTurnRequest is the normalized request every Backend accepts.
type StreamTurnRequest struct {
	System    System
	Messages  []models.Message
	Tools     []models.ToolDef
	MaxTokens int
}

// Backend is the uniform interface the Turn Engine drives. Implementors
// must invoke onText for every non-thinking text fragment as it arrives
// and return only once the final message is fully assembled.
type Backend interface {
	// Name identifies the backend for logging and error wrapping.
	Name() string

	// StreamTurn runs one streaming turn. The RawAssistant field of the
	// returned TurnResult is stored on the assistant Message and must be
	// suitable for this same backend to unmarshal and reinject verbatim
	// when it rebuilds messages for the following turn.
	StreamTurn(ctx context.Context, req StreamTurnRequest, onText func(string)) (*models.TurnResult, error)

	// Complete is a single non-streaming utility call used for emotion
	// classification, summaries, self-model insight, plan generation and
	// adaptive replanning. On any failure it returns "" — callers must
	// treat empty as "skip this step".
	Complete(ctx context.Context, prompt string, maxTokens int) string
}

// Error wraps a backend-specific failure with the backend and model name
// for log messages, without changing the underlying error's identity.
type Error struct {
	Backend string
	Model   string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return e.Backend + "[" + e.Model + "] status " + strconv.Itoa(e.Status) + ": " + e.Err.Error()
	}
	return e.Backend + "[" + e.Model + "]: " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// WithStatus attaches an HTTP-like status code to the error.
func (e *Error) WithStatus(status int) *Error {
	e.Status = status
	return e
}

// NewError constructs a backend Error.
func NewError(backend, model string, err error) *Error {
	return &Error{Backend: backend, Model: model, Err: err}
}
