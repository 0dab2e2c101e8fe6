package rag

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"

	"github.com/techvocates/nyaya/internal/domain"
	"github.com/techvocates/nyaya/internal/metrics"
)

// DefaultTopK is the number of chunks retrieved per sub-question.
const DefaultTopK = 3

// DefaultMaxRetries bounds provider retries per executor call.
const DefaultMaxRetries = 2

// Executor answers one sub-question against one act: embed the question,
// retrieve the top-K chunks, and generate an answer constrained to them.
type Executor struct {
	embed      domain.Embedder
	gen        domain.Generator
	catalog    Catalog
	topK       int
	maxRetries uint
	logger     *zap.Logger
}

// NewExecutor creates an executor with default top-K and retry bounds.
func NewExecutor(embed domain.Embedder, gen domain.Generator, catalog Catalog, logger *zap.Logger) *Executor {
	return &Executor{
		embed:      embed,
		gen:        gen,
		catalog:    catalog,
		topK:       DefaultTopK,
		maxRetries: DefaultMaxRetries,
		logger:     logger,
	}
}

// WithTopK configures the retrieval depth.
func (e *Executor) WithTopK(k int) *Executor {
	if k > 0 {
		e.topK = k
	}
	return e
}

// WithMaxRetries configures the provider retry bound.
func (e *Executor) WithMaxRetries(n int) *Executor {
	if n >= 0 {
		e.maxRetries = uint(n)
	}
	return e
}

// Execute runs one sub-question. It fails with ErrEmptyRetrieval when the
// act's index has no chunks for the question, and with ErrGenerationFailed
// or ErrEmbeddingProviderError after exhausting retries. The caller decides
// whether a failure aborts the request or becomes a gap.
func (e *Executor) Execute(ctx context.Context, sq domain.SubQuestion) (domain.PartialAnswer, error) {
	searcher, err := e.catalog.Searcher(sq.ActID)
	if err != nil {
		return domain.PartialAnswer{}, fmt.Errorf("resolve act %s: %w", sq.ActID, err)
	}

	emb, err := withRetry(ctx, e.maxRetries, func() (domain.EmbeddingResult, error) {
		return e.embed.Embed(ctx, sq.Question)
	})
	if err != nil {
		return domain.PartialAnswer{}, fmt.Errorf("embed sub-question: %w", err)
	}

	chunks, err := searcher.Search(emb.Embedding, e.topK)
	if err != nil {
		return domain.PartialAnswer{}, fmt.Errorf("search act %s: %w", sq.ActID, err)
	}
	metrics.RetrievedChunks.WithLabelValues(sq.ActID).Observe(float64(len(chunks)))
	if len(chunks) == 0 {
		return domain.PartialAnswer{}, fmt.Errorf("act %s: %w", sq.ActID, domain.ErrEmptyRetrieval)
	}

	res, err := withRetry(ctx, e.maxRetries, func() (domain.GenerationResult, error) {
		return e.gen.Generate(ctx, domain.GenerationRequest{
			System: executorSystem,
			Prompt: groundedPrompt(sq.Question, chunks),
		})
	})
	if err != nil {
		return domain.PartialAnswer{}, fmt.Errorf("grounded generation for act %s: %w: %w",
			sq.ActID, err, domain.ErrGenerationFailed)
	}

	supporting := citedChunks(res.Text, chunks)

	e.logger.Debug("sub-question answered",
		zap.String("act", sq.ActID),
		zap.Int("retrieved", len(chunks)),
		zap.Int("supporting", len(supporting)),
	)

	return domain.PartialAnswer{
		SubQuestion: sq,
		Answer:      res.Text,
		Supporting:  supporting,
	}, nil
}

// withRetry retries transient provider failures with backoff. Context
// cancellation is terminal.
func withRetry[T any](ctx context.Context, maxRetries uint, fn func() (T, error)) (T, error) {
	return retry.DoWithData(
		fn,
		retry.Context(ctx),
		retry.Attempts(maxRetries+1),
		retry.Delay(200*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}),
	)
}

var citationRe = regexp.MustCompile(`\[(\d+)\]`)

// citedChunks resolves bracket citations in the generated text back to the
// retrieved chunks, preserving retrieval order. When the text carries no
// parsable citations, every retrieved chunk is kept: losing attribution is
// worse than over-attributing.
func citedChunks(text string, chunks []domain.ScoredChunk) []domain.ScoredChunk {
	cited := make(map[int]bool)
	for _, m := range citationRe.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err == nil && n >= 1 && n <= len(chunks) {
			cited[n-1] = true
		}
	}
	if len(cited) == 0 {
		return chunks
	}
	out := make([]domain.ScoredChunk, 0, len(cited))
	for i, c := range chunks {
		if cited[i] {
			out = append(out, c)
		}
	}
	return out
}
