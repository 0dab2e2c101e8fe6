package domain

// SubQuestion is one self-contained question answerable against a single act.
// Created per incoming query by the planner, consumed by exactly one executor.
type SubQuestion struct {
	ActID    string
	Question string
}

// GapReason explains why a sub-question produced no usable partial answer.
type GapReason string

const (
	// GapNone marks a successful partial answer.
	GapNone GapReason = ""
	// GapEmptyRetrieval marks a sub-question whose act index had no relevant chunks.
	GapEmptyRetrieval GapReason = "empty_retrieval"
	// GapGenerationFailed marks a sub-question whose grounded generation failed after retries.
	GapGenerationFailed GapReason = "generation_failed"
	// GapEmbeddingFailed marks a sub-question whose embedding call failed after retries.
	GapEmbeddingFailed GapReason = "embedding_failed"
	// GapCancelled marks a sub-question cancelled by the request deadline.
	GapCancelled GapReason = "cancelled"
)

// PartialAnswer is the grounded answer to one sub-question. When Gap is set,
// Answer and Supporting are empty and the synthesizer treats the sub-question
// as "no information found" rather than failing the request.
type PartialAnswer struct {
	SubQuestion SubQuestion
	Answer      string
	// Supporting holds the retrieved chunks that actually contributed to
	// the answer, in retrieval order.
	Supporting []ScoredChunk
	Gap        GapReason
}

// IsGap reports whether this partial answer carries no grounded content.
func (p PartialAnswer) IsGap() bool { return p.Gap != GapNone }

// FinalAnswer is the synthesized response to the original query.
type FinalAnswer struct {
	Text string
	// Citations are the distinct source locators of every chunk that
	// supported a non-gap partial answer, in first-seen order.
	Citations []string
	// Confidence degrades from "high" when one or more sub-questions
	// produced gaps.
	Confidence Confidence
}

// Confidence grades how completely the final answer is grounded.
type Confidence string

const (
	// ConfidenceHigh means every sub-question produced a grounded partial answer.
	ConfidenceHigh Confidence = "high"
	// ConfidenceLow means at least one sub-question produced a gap.
	ConfidenceLow Confidence = "low"
	// ConfidenceNone means no sub-question produced grounded content.
	ConfidenceNone Confidence = "none"
)
