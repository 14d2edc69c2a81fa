package llm

import "context"

// Generator produces text from a prompt. Implementations wrap an external
// generative model. A generator must treat "information not found in context"
// style answers as valid output, not as an error.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GenerateFunc adapts a plain function to the Generator interface
type GenerateFunc func(ctx context.Context, prompt string) (string, error)

func (f GenerateFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
