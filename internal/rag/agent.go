package rag

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/techvocates/nyaya/internal/domain"
	"github.com/techvocates/nyaya/internal/metrics"
)

// DefaultMaxConcurrency caps parallel executor invocations per request to
// bound load on the embedding and generation backends.
const DefaultMaxConcurrency = 6

// synthesisGrace is how long synthesis may run after the request deadline
// already fired: completed partials must still reach the synthesizer.
const synthesisGrace = 20 * time.Second

// Agent is the top-level control loop: plan once, fan executors out
// concurrently, wait for all, synthesize.
type Agent struct {
	planner        *Planner
	executor       *Executor
	synth          *Synthesizer
	maxConcurrency int
	timeout        time.Duration
	toolName       string
	toolDesc       string
	logger         *zap.Logger
}

// NewAgent creates the orchestration agent.
func NewAgent(planner *Planner, executor *Executor, synth *Synthesizer, logger *zap.Logger) *Agent {
	a := &Agent{
		planner:        planner,
		executor:       executor,
		synth:          synth,
		maxConcurrency: DefaultMaxConcurrency,
		logger:         logger,
	}
	a.toolName = "legal-knowledge-base"
	a.toolDesc = "Ask a complete, well-articulated legal question about Indian insurance, " +
		"consumer protection, or motor vehicle law. Input must be a full English sentence."
	return a
}

// WithToolInfo configures the name and description under which Tool publishes
// the pipeline.
func (a *Agent) WithToolInfo(name, description string) *Agent {
	if name != "" {
		a.toolName = name
	}
	if description != "" {
		a.toolDesc = description
	}
	return a
}

// WithMaxConcurrency configures the executor fan-out cap.
func (a *Agent) WithMaxConcurrency(n int) *Agent {
	if n > 0 {
		a.maxConcurrency = n
	}
	return a
}

// WithTimeout configures a per-request deadline. Zero disables it.
func (a *Agent) WithTimeout(d time.Duration) *Agent {
	a.timeout = d
	return a
}

// Answer runs the full pipeline for one query. Executor failures become gaps
// rather than failing the request; only planning and synthesis failures
// surface as errors.
func (a *Agent) Answer(ctx context.Context, query string) (domain.FinalAnswer, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	plan, err := a.planner.Plan(ctx, query)
	if err != nil {
		return domain.FinalAnswer{}, err
	}

	partials := a.dispatch(ctx, plan)

	// A fired deadline must not starve synthesis: the completed subset still
	// gets merged, with cancelled sub-questions as gaps.
	synthCtx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		synthCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), synthesisGrace)
		defer cancel()
	}

	return a.synth.Synthesize(synthCtx, query, partials)
}

// dispatch runs all executors concurrently, bounded by maxConcurrency, and
// returns partial answers in plan order. Sub-questions are independent, so
// no ordering dependency exists between executions.
func (a *Agent) dispatch(ctx context.Context, plan []domain.SubQuestion) []domain.PartialAnswer {
	partials := make([]domain.PartialAnswer, len(plan))

	g := new(errgroup.Group)
	limit := a.maxConcurrency
	if len(plan) < limit {
		limit = len(plan)
	}
	g.SetLimit(limit)

	for i, sq := range plan {
		i, sq := i, sq
		g.Go(func() error {
			p, err := a.executor.Execute(ctx, sq)
			if err != nil {
				p = a.gapFor(sq, err)
			}
			partials[i] = p
			return nil
		})
	}
	// Goroutines never return errors; gaps are recorded in place.
	_ = g.Wait()

	return partials
}

// gapFor converts an executor failure into a gap partial answer.
func (a *Agent) gapFor(sq domain.SubQuestion, err error) domain.PartialAnswer {
	reason := domain.GapGenerationFailed
	switch {
	case errors.Is(err, domain.ErrEmptyRetrieval):
		reason = domain.GapEmptyRetrieval
	case errors.Is(err, domain.ErrEmbeddingProviderError):
		reason = domain.GapEmbeddingFailed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		reason = domain.GapCancelled
	}
	metrics.GapsTotal.WithLabelValues(string(reason)).Inc()
	a.logger.Warn("sub-question gap",
		zap.String("act", sq.ActID),
		zap.String("question", sq.Question),
		zap.String("reason", string(reason)),
		zap.Error(err),
	)
	return domain.PartialAnswer{SubQuestion: sq, Gap: reason}
}

// Tool publishes the whole pipeline as one named callable so it can serve
// as a tool inside a higher-level agent loop. The contract is identical
// standalone or nested.
func (a *Agent) Tool() domain.Tool {
	return domain.Tool{
		Name:        a.toolName,
		Description: a.toolDesc,
		Run:         a.Answer,
	}
}
