// Package llmclient abstracts chat-completion calls behind a single
// provider-agnostic interface, so the LLM sub-pipeline never imports a
// vendor SDK directly.
package llmclient

import (
	"context"
	"time"
)

// RequestTimeout is the wall-clock timeout applied to every call (spec §5).
const RequestTimeout = 180 * time.Second

// Request carries one chat-completion call.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
	TopP         float64
	// SchemaName identifies the structured-output contract the caller
	// expects back (e.g. "extract", "merge", "assign"). The adapters in
	// this package do not read it; the expected JSON shape is stated in
	// the prompt text itself.
	SchemaName string
}

// Response is the raw text returned by the model, prior to structured
// validation.
type Response struct {
	Content string
}

// Client is the provider-agnostic chat-completion interface every LLM
// stage depends on.
type Client interface {
	// Complete sends req and returns the model's raw text response.
	// Implementations must respect ctx cancellation and RequestTimeout.
	Complete(ctx context.Context, req Request) (Response, error)
	// Close releases any pooled connections held by the client.
	Close() error
}

// WithTimeout wraps ctx with RequestTimeout unless ctx already carries an
// earlier deadline.
func WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if dl, ok := ctx.Deadline(); ok && time.Until(dl) < RequestTimeout {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, RequestTimeout)
}
