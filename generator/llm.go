package generator

import (
	"context"
	"time"
)

// LLMClient abstracts the completion backend so it can be swapped or mocked.
// Implementations return the raw completion text; an empty string with a nil
// error is a legal "no content" answer.
type LLMClient interface {
	Complete(ctx context.Context, prompt Prompt, params Params) (string, error)
}

// LLMSettings is the base configuration handed to each backend.
type LLMSettings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
}

// withTimeout bounds a single completion request. A zero timeout leaves ctx as is.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
