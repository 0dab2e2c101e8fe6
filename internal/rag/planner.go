package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/techvocates/nyaya/internal/domain"
	"github.com/techvocates/nyaya/internal/metrics"
)

// Planner maps one natural-language query plus the act catalog into a
// non-empty ordered list of sub-questions. Routing is an auditable decision:
// every accepted plan is logged with the selected act ids.
type Planner struct {
	gen     domain.Generator
	catalog Catalog
	logger  *zap.Logger
}

// NewPlanner creates a planner.
func NewPlanner(gen domain.Generator, catalog Catalog, logger *zap.Logger) *Planner {
	return &Planner{gen: gen, catalog: catalog, logger: logger}
}

// plannedQuestion mirrors one entry of the planner's JSON output.
type plannedQuestion struct {
	ActID    string `json:"act_id"`
	Question string `json:"question"`
}

type plannerOutput struct {
	SubQuestions []plannedQuestion `json:"sub_questions"`
}

// Plan produces the sub-question plan for a query. A structurally invalid
// plan (empty, unknown act id, blank question) is retried once with the
// validation failure fed back; a second invalid plan or an unreachable
// provider fails with ErrPlanningFailed.
func (p *Planner) Plan(ctx context.Context, query string) ([]domain.SubQuestion, error) {
	acts := p.catalog.List()
	prompt := planPrompt(query, acts)

	plan, reason, err := p.attempt(ctx, prompt)
	if err != nil {
		metrics.PlansTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("planner generation: %w: %w", err, domain.ErrPlanningFailed)
	}
	if reason != "" {
		metrics.PlansTotal.WithLabelValues("retry").Inc()
		p.logger.Warn("invalid plan, retrying once",
			zap.String("reason", reason),
			zap.String("query", query),
		)
		plan, reason, err = p.attempt(ctx, prompt+planRetryNote(reason))
		if err != nil {
			metrics.PlansTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("planner retry generation: %w: %w", err, domain.ErrPlanningFailed)
		}
		if reason != "" {
			metrics.PlansTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("plan invalid after retry: %s: %w", reason, domain.ErrPlanningFailed)
		}
	}

	metrics.PlansTotal.WithLabelValues("success").Inc()
	metrics.SubQuestionsPerPlan.Observe(float64(len(plan)))

	actIDs := make([]string, len(plan))
	for i, sq := range plan {
		actIDs[i] = sq.ActID
	}
	p.logger.Info("query plan",
		zap.String("query", query),
		zap.Strings("acts", actIDs),
		zap.Int("sub_questions", len(plan)),
	)

	return plan, nil
}

// attempt runs one generation and validates the output. A validation failure
// is returned as a non-empty reason, not an error: only provider failures
// are errors.
func (p *Planner) attempt(ctx context.Context, prompt string) ([]domain.SubQuestion, string, error) {
	res, err := p.gen.Generate(ctx, domain.GenerationRequest{
		System:     plannerSystem,
		Prompt:     prompt,
		JSONOutput: true,
	})
	if err != nil {
		return nil, "", err
	}

	var out plannerOutput
	if err := json.Unmarshal([]byte(stripFences(res.Text)), &out); err != nil {
		return nil, fmt.Sprintf("output is not valid JSON: %v", err), nil
	}
	if len(out.SubQuestions) == 0 {
		return nil, "empty sub-question list", nil
	}

	plan := make([]domain.SubQuestion, len(out.SubQuestions))
	for i, q := range out.SubQuestions {
		if strings.TrimSpace(q.Question) == "" {
			return nil, fmt.Sprintf("sub-question %d has no question text", i+1), nil
		}
		if _, err := p.catalog.Searcher(q.ActID); err != nil {
			return nil, fmt.Sprintf("unknown act id %q", q.ActID), nil
		}
		plan[i] = domain.SubQuestion{ActID: q.ActID, Question: strings.TrimSpace(q.Question)}
	}
	return plan, "", nil
}

// stripFences removes a markdown code fence around a JSON body, which some
// models emit despite JSON-only instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
