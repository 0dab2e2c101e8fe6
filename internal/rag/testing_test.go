package rag

import (
	"context"
	"sync"
	"time"

	"github.com/techvocates/nyaya/internal/domain"
)

// --- Shared fakes ---

type fakeGenerator struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	delay     time.Duration
	calls     []domain.GenerationRequest
}

func (g *fakeGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error) {
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return domain.GenerationResult{}, ctx.Err()
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, req)
	n := len(g.calls) - 1

	if n < len(g.errs) && g.errs[n] != nil {
		return domain.GenerationResult{}, g.errs[n]
	}
	text := "grounded answer [1]"
	if n < len(g.responses) {
		text = g.responses[n]
	} else if len(g.responses) > 0 {
		text = g.responses[len(g.responses)-1]
	}
	return domain.GenerationResult{Text: text, TotalTokens: 10}, nil
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

type fakeEmbedder struct {
	mu    sync.Mutex
	vec   []float32
	errs  []error
	calls int
}

func (e *fakeEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := e.calls
	e.calls++
	if n < len(e.errs) && e.errs[n] != nil {
		return domain.EmbeddingResult{}, e.errs[n]
	}
	vec := e.vec
	if vec == nil {
		vec = []float32{1, 0, 0}
	}
	return domain.EmbeddingResult{Embedding: vec, TotalTokens: 5}, nil
}

type fakeSearcher struct {
	chunks []domain.ScoredChunk
	err    error
}

func (s *fakeSearcher) Search(_ []float32, k int) ([]domain.ScoredChunk, error) {
	if s.err != nil {
		return nil, s.err
	}
	if k > len(s.chunks) {
		k = len(s.chunks)
	}
	return s.chunks[:k], nil
}

type fakeCatalog struct {
	acts      []domain.Act
	searchers map[string]Searcher
}

func (c *fakeCatalog) List() []domain.Act { return c.acts }

func (c *fakeCatalog) Searcher(id string) (Searcher, error) {
	s, ok := c.searchers[id]
	if !ok {
		return nil, domain.ErrActNotFound
	}
	return s, nil
}

// statuteCatalog mirrors the production act catalog shape in miniature.
func statuteCatalog() *fakeCatalog {
	mvaChunks := []domain.ScoredChunk{
		{
			Chunk: domain.Chunk{
				Text:   "No person shall drive an unregistered motor vehicle; contravention is punishable with a fine.",
				Source: "mva.pdf#p192",
				ActID:  "mva",
			},
			Score: 0.92,
		},
		{
			Chunk: domain.Chunk{
				Text:   "Every motor vehicle must be registered with the registering authority.",
				Source: "mva.pdf#p41",
				ActID:  "mva",
			},
			Score: 0.88,
		},
	}
	cpaChunks := []domain.ScoredChunk{
		{
			Chunk: domain.Chunk{
				Text:   "A consumer may file a complaint before the District Forum.",
				Source: "cpa.pdf#p12",
				ActID:  "cpa",
			},
			Score: 0.81,
		},
	}
	return &fakeCatalog{
		acts: []domain.Act{
			{ID: "insurance", Name: "The Insurance Act, 1938", Description: "insurance business regulation"},
			{ID: "cpa", Name: "The Consumer Protection Act, 1986", Description: "consumer dispute resolution"},
			{ID: "irda", Name: "The IRDA Act, 1999", Description: "insurance regulator"},
			{ID: "mva", Name: "The Motor Vehicles Act, 1988", Description: "road transport, registration, penalties"},
		},
		searchers: map[string]Searcher{
			"insurance": &fakeSearcher{},
			"cpa":       &fakeSearcher{chunks: cpaChunks},
			"irda":      &fakeSearcher{},
			"mva":       &fakeSearcher{chunks: mvaChunks},
		},
	}
}
