package ai

import "context"

// Provider turns a prompt into generated text. Implementations wrap external
// LLM APIs and must honor ctx cancellation.
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
