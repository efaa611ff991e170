// Package llm defines the streaming language-model client used by chat.
package llm

import (
	"context"
	"errors"

	"github.com/castlemilk/wealthportal/backend/internal/model"
)

// Message is one role-tagged entry of the conversation sent to the model.
type Message struct {
	Role    model.MessageRole
	Content string
}

// Options tune a single generation. Zero values mean "use the default".
type Options struct {
	Temperature *float32
	MaxTokens   int32
}

// Usage reports token accounting for a completed generation.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// Streamer produces a response incrementally. onText is called for every
// partial text as it arrives; returning an error from it aborts the stream.
// Cancelling ctx stops generation and Stream returns ctx's error.
type Streamer interface {
	Stream(ctx context.Context, messages []Message, opts Options, onText func(string) error) (*Usage, error)
}

// ErrNotConfigured is returned by Unconfigured.
var ErrNotConfigured = errors.New("language model is not configured")

// Unconfigured is the Streamer used when no model credentials are set.
// Every turn fails, so only intent-routed questions get answers.
type Unconfigured struct{}

func (Unconfigured) Stream(context.Context, []Message, Options, func(string) error) (*Usage, error) {
	return nil, ErrNotConfigured
}
