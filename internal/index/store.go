// Package index implements the per-act document store: a read-only flat
// vector index built offline and loaded at service start.
package index

import (
	"fmt"
	"math"
	"sort"

	"github.com/techvocates/nyaya/internal/domain"
)

// Store holds the embedded chunks of one act and answers nearest-neighbour
// queries over them. It is immutable after construction and safe for
// unlimited concurrent readers.
type Store struct {
	actID  string
	dim    int
	chunks []domain.Chunk
}

// New builds a store from ingested chunks. All chunks must share one
// embedding dimensionality; similarity over mixed dimensions is meaningless.
func New(actID string, chunks []domain.Chunk) (*Store, error) {
	dim := 0
	for i, c := range chunks {
		if len(c.Embedding) == 0 {
			return nil, fmt.Errorf("chunk %d of act %s has no embedding", i, actID)
		}
		if dim == 0 {
			dim = len(c.Embedding)
		} else if len(c.Embedding) != dim {
			return nil, fmt.Errorf("chunk %d of act %s has dimension %d, want %d: %w",
				i, actID, len(c.Embedding), dim, domain.ErrVectorDimMismatch)
		}
		chunks[i].ActID = actID
	}
	return &Store{actID: actID, dim: dim, chunks: chunks}, nil
}

// ActID returns the act this store belongs to.
func (s *Store) ActID() string { return s.actID }

// Len returns the number of chunks.
func (s *Store) Len() int { return len(s.chunks) }

// Dimensions returns the embedding dimensionality, 0 for an empty store.
func (s *Store) Dimensions() int { return s.dim }

// Search returns the k chunks closest to the query embedding by cosine
// similarity, best first. Ties are broken by ingestion order. k larger than
// the chunk count is clamped; an empty store yields an empty result.
func (s *Store) Search(query []float32, k int) ([]domain.ScoredChunk, error) {
	if len(s.chunks) == 0 {
		return nil, nil
	}
	if len(query) != s.dim {
		return nil, fmt.Errorf("query has dimension %d, store %s expects %d: %w",
			len(query), s.actID, s.dim, domain.ErrVectorDimMismatch)
	}
	if k <= 0 {
		return nil, nil
	}
	if k > len(s.chunks) {
		k = len(s.chunks)
	}

	scored := make([]domain.ScoredChunk, len(s.chunks))
	for i, c := range s.chunks {
		scored[i] = domain.ScoredChunk{Chunk: c, Score: cosine(query, c.Embedding)}
	}

	// Stable sort keeps ingestion order for equal scores.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	return scored[:k], nil
}

// cosine computes cosine similarity between two equal-length vectors.
// A zero vector yields similarity 0.
func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
