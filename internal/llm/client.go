package llm

import (
	"context"
)

// Client generates a completion for one prompt.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
