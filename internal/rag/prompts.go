package rag

import (
	"fmt"
	"strings"

	"github.com/techvocates/nyaya/internal/domain"
)

const plannerSystem = `You are a query planner for an Indian legal question answering service.
You decompose a user's legal question into sub-questions, each answerable
against exactly one statute knowledge base. Respond with JSON only.`

const executorSystem = `You are a legal research assistant. Answer strictly from the numbered
passages provided. Cite every fact with its passage number in square brackets,
e.g. [2]. If the passages do not answer the question, say so plainly.
Never state anything not traceable to a passage.`

const synthesizerSystem = `You are a legal assistant composing a final answer from research notes.
Write coherent prose that directly answers the user's question, merging
overlapping content. Do not invent facts beyond the notes.`

const drafterSystem = `You are a legal drafting assistant. From the research notes, draft the
requested legal document in full: title, numbered clauses, and signature
blocks where customary. Every substantive clause must rest on the notes.
Leave parties, dates, and amounts as bracketed placeholders, e.g. [LESSOR].
Do not invent statutory requirements beyond the notes.`

// Closing instructions for the synthesis prompt, per pipeline mode.
const (
	answerInstruction = "Write the final answer. Mention explicitly when a sub-question had no grounded information."
	draftInstruction  = "Draft the requested document. Mention explicitly when a sub-question had no grounded information."
)

// planPrompt presents the query and the act catalog to the planner.
func planPrompt(query string, acts []domain.Act) string {
	var b strings.Builder
	b.WriteString("Available knowledge bases:\n")
	for _, a := range acts {
		fmt.Fprintf(&b, "- id: %s\n  name: %s\n  description: %s\n", a.ID, a.Name, a.Description)
	}
	b.WriteString(`
Decompose the question below into the smallest set of sub-questions needed to
answer it. Each sub-question must name one knowledge base id from the list and
be a self-contained English question answerable from that knowledge base alone.
If a single knowledge base suffices, emit exactly one sub-question. If the
question is ambiguous, pick the most plausible knowledge base rather than
refusing.

Respond with JSON of the form:
{"sub_questions": [{"act_id": "...", "question": "..."}]}

Question: `)
	b.WriteString(query)
	return b.String()
}

// planRetryNote is appended when the first plan was structurally invalid.
func planRetryNote(reason string) string {
	return fmt.Sprintf(`

Your previous plan was invalid: %s.
Emit valid JSON with at least one sub-question, using only the listed ids.`, reason)
}

// groundedPrompt presents retrieved passages for constrained generation.
func groundedPrompt(question string, chunks []domain.ScoredChunk) string {
	var b strings.Builder
	b.WriteString("Passages:\n")
	for i, c := range chunks {
		fmt.Fprintf(&b, "[%d] (%s) %s\n", i+1, c.Chunk.Source, c.Chunk.Text)
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	return b.String()
}

// synthesisPrompt merges partial answers into one final answer.
func synthesisPrompt(query string, partials []domain.PartialAnswer, instruction string) string {
	var b strings.Builder
	b.WriteString("Research notes:\n")
	for i, p := range partials {
		if p.IsGap() {
			fmt.Fprintf(&b, "%d. Sub-question %q (%s): no grounded information found.\n",
				i+1, p.SubQuestion.Question, p.SubQuestion.ActID)
			continue
		}
		fmt.Fprintf(&b, "%d. Sub-question %q (%s):\n%s\n",
			i+1, p.SubQuestion.Question, p.SubQuestion.ActID, p.Answer)
	}
	b.WriteString("\nUser question: ")
	b.WriteString(query)
	b.WriteString("\n\n")
	b.WriteString(instruction)
	return b.String()
}
