package ai

import "context"

// Request is one text-completion call: a system prompt, one user prompt,
// and an output budget. The model is fixed per provider instance.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
}

type Provider interface {
	Complete(ctx context.Context, req Request) (string, error)
}
