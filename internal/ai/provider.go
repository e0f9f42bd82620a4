package ai

import "context"

// LLMProvider sends a prompt to a text-generation endpoint and returns the
// raw completion. The verifier only relies on "prompt in, text out".
type LLMProvider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
