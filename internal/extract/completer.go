// Package extract turns token-budgeted batches into cited legal extractions
// by calling an external reasoning model, and validates what comes back.
package extract

import (
	"context"
	"fmt"
)

// Request is a single model call.
type Request struct {
	System    string
	Prompt    string
	JSON      bool // ask the provider for a JSON object response when it supports it
	MaxTokens int
}

// Completion is the text returned by a model plus token usage.
type Completion struct {
	Text         string
	InputTokens  int64
	OutputTokens int64
}

// Completer is the narrow interface to a reasoning model provider.
type Completer interface {
	Complete(ctx context.Context, req Request) (Completion, error)
	Model() string
}

const defaultMaxTokens = 4096

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// retryableStatus reports provider statuses worth retrying: rate limits,
// server errors and Anthropic's 529 overloaded.
func retryableStatus(code int) bool {
	return code == 408 || code == 409 || code == 429 || code >= 500
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
