package domain

import "context"

// Tool is a named callable exposed to a higher-level agent loop. The
// answering pipeline is published as a single tool under this contract.
type Tool struct {
	Name        string
	Description string
	Run         func(ctx context.Context, input string) (FinalAnswer, error)
}
