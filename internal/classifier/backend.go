// Package classifier classifies responses by delegating to an external
// reasoning model. Backends return structured JSON that is validated against
// a JSON schema before it is decoded.
package classifier

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnexpectedOutput is returned when a backend's output does not match the
// requested schema.
var ErrUnexpectedOutput = errors.New("unexpected classifier output")

// Engine names accepted by New.
const (
	EnginePattern = "pattern"
	EngineClaude  = "claude"
	EngineCopilot = "copilot"
)

// DefaultModel is the classifier model used when none is configured.
const DefaultModel = "claude-sonnet-4-5-20250929"

// Request is one structured-output call.
type Request struct {
	// Instructions is the system prompt.
	Instructions string
	// Input is the text being classified.
	Input string
	// Schema is the JSON schema the output must satisfy.
	Schema string
}

// Backend runs one structured-output call and returns raw output text.
type Backend interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

// Options configures a backend.
type Options struct {
	Engine string
	Model  string
}

// NewBackend returns the backend for an LLM engine.
func NewBackend(opts Options) (Backend, error) {
	switch opts.Engine {
	case EngineClaude:
		return NewClaudeCLI(opts.Model), nil
	case EngineCopilot:
		return NewCopilot(opts.Model, nil), nil
	}
	return nil, fmt.Errorf("engine %q has no LLM backend", opts.Engine)
}
