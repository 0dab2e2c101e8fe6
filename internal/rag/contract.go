// Package rag implements the multi-act query routing pipeline: sub-question
// planning, per-act grounded execution, and answer synthesis.
package rag

import (
	"github.com/techvocates/nyaya/internal/domain"
)

// Searcher answers nearest-neighbour queries over one act's chunks.
type Searcher interface {
	Search(query []float32, k int) ([]domain.ScoredChunk, error)
}

// Catalog exposes the act registry to the pipeline.
type Catalog interface {
	// List returns the routable acts in registration order.
	List() []domain.Act
	// Searcher returns the document store for an act id.
	Searcher(id string) (Searcher, error)
}
