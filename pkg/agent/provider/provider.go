package provider

import (
	"context"

	"github.com/flowsmith/flowsmith/pkg/agent/types"
)

// LanguageModel is the interface every LLM provider implements.
type LanguageModel interface {
	// Generate produces a complete response (blocking).
	Generate(ctx context.Context, req GenerateRequest) (*types.GenerateResponse, error)

	// Stream produces a streaming response via channel. The returned
	// stream is closed once the generation finishes or fails.
	Stream(ctx context.Context, req GenerateRequest) (*Stream, error)

	// ID returns the unique identifier for this model.
	ID() string
}

// GenerateRequest carries all parameters for one generation.
type GenerateRequest struct {
	Messages    []types.Message `json:"messages"`
	System      string          `json:"system,omitempty"`
	Tools       []types.Tool    `json:"tools,omitempty"`
	Temperature float32         `json:"temperature,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

// Stream is a channel of events plus a terminal error.
type Stream struct {
	Events <-chan types.StreamEvent

	errFn func() error
}

func NewStream(events <-chan types.StreamEvent, errFn func() error) *Stream {
	return &Stream{Events: events, errFn: errFn}
}

// Err reports the terminal error, valid once Events is drained.
func (s *Stream) Err() error {
	if s.errFn == nil {
		return nil
	}
	return s.errFn()
}
