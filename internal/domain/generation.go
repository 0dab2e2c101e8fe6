package domain

import "context"

// Generator is the reasoning/generation contract. It serves three call sites:
// structured planning output, grounded per-act answers, and synthesis.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (GenerationResult, error)
}

// GenerationRequest carries one prompt through the provider adapter.
type GenerationRequest struct {
	System string
	Prompt string
	// JSONOutput asks the provider for a JSON-only response (planning).
	JSONOutput bool
}

// GenerationResult carries the generated text and token usage.
type GenerationResult struct {
	Text         string
	PromptTokens int
	TotalTokens  int
}
