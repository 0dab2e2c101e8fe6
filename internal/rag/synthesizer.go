package rag

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/techvocates/nyaya/internal/domain"
)

// noGroundedInfoText is returned when every sub-question produced a gap.
// The service never fabricates an answer with zero citations.
const noGroundedInfoText = "No grounded information was found in the available statutes for this question. " +
	"Please rephrase the question or consult a qualified legal professional."

// Synthesizer merges partial answers into one final answer. Citations are
// computed from the supporting chunks, never taken from generated text.
type Synthesizer struct {
	gen         domain.Generator
	system      string
	instruction string
	drafting    bool
	logger      *zap.Logger
}

// NewSynthesizer creates a synthesizer in question-answering mode.
func NewSynthesizer(gen domain.Generator, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{
		gen:         gen,
		system:      synthesizerSystem,
		instruction: answerInstruction,
		logger:      logger,
	}
}

// ForDrafting switches the synthesizer to document-drafting mode: partial
// answers are treated as research notes and the merge pass always runs, so
// the output is a drafted document rather than the notes themselves.
func (s *Synthesizer) ForDrafting() *Synthesizer {
	s.system = drafterSystem
	s.instruction = draftInstruction
	s.drafting = true
	return s
}

// Synthesize builds the final answer for a query from its partial answers.
// Gaps degrade confidence and are noted in the answer text; an all-gap input
// yields the fixed no-information answer with zero citations. A generation
// failure here is fatal for the request: ErrSynthesisFailed.
func (s *Synthesizer) Synthesize(
	ctx context.Context, query string, partials []domain.PartialAnswer,
) (domain.FinalAnswer, error) {
	grounded := make([]domain.PartialAnswer, 0, len(partials))
	var gaps []domain.PartialAnswer
	for _, p := range partials {
		if p.IsGap() {
			gaps = append(gaps, p)
		} else {
			grounded = append(grounded, p)
		}
	}

	if len(grounded) == 0 {
		return domain.FinalAnswer{
			Text:       noGroundedInfoText,
			Confidence: domain.ConfidenceNone,
		}, nil
	}

	citations := collectCitations(grounded)
	confidence := domain.ConfidenceHigh
	if len(gaps) > 0 {
		confidence = domain.ConfidenceLow
	}

	var text string
	if !s.drafting && len(grounded) == 1 && len(gaps) == 0 {
		// Single-act plans need no merge pass; the grounded answer already
		// addresses the query directly. Drafting always merges: the notes
		// are raw research, not the document.
		text = grounded[0].Answer
	} else {
		res, err := s.gen.Generate(ctx, domain.GenerationRequest{
			System: s.system,
			Prompt: synthesisPrompt(query, partials, s.instruction),
		})
		if err != nil {
			return domain.FinalAnswer{}, fmt.Errorf("synthesis generation: %w: %w", err, domain.ErrSynthesisFailed)
		}
		text = res.Text
	}

	if len(gaps) > 0 {
		text += "\n\n" + gapNote(gaps)
	}

	s.logger.Debug("answer synthesized",
		zap.Int("grounded", len(grounded)),
		zap.Int("gaps", len(gaps)),
		zap.Int("citations", len(citations)),
	)

	return domain.FinalAnswer{
		Text:       text,
		Citations:  citations,
		Confidence: confidence,
	}, nil
}

// collectCitations returns the distinct source locators of every supporting
// chunk, in first-seen order.
func collectCitations(partials []domain.PartialAnswer) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range partials {
		for _, c := range p.Supporting {
			if _, ok := seen[c.Chunk.Source]; ok {
				continue
			}
			seen[c.Chunk.Source] = struct{}{}
			out = append(out, c.Chunk.Source)
		}
	}
	return out
}

// gapNote states which sub-questions produced no grounded information.
// Emitted deterministically in code so gaps can never be silently dropped.
func gapNote(gaps []domain.PartialAnswer) string {
	qs := make([]string, len(gaps))
	for i, g := range gaps {
		qs[i] = fmt.Sprintf("%q (%s)", g.SubQuestion.Question, g.SubQuestion.ActID)
	}
	return "Note: no grounded information was found for " + strings.Join(qs, ", ") +
		". The answer above may be incomplete."
}
