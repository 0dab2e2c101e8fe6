package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/techvocates/nyaya/internal/domain"
)

func newTestAgent(planGen, execGen, synthGen domain.Generator, catalog Catalog) *Agent {
	log := zap.NewNop()
	return NewAgent(
		NewPlanner(planGen, catalog, log),
		NewExecutor(&fakeEmbedder{}, execGen, catalog, log),
		NewSynthesizer(synthGen, log),
		log,
	)
}

func TestAnswer_EndToEnd_SingleAct(t *testing.T) {
	catalog := statuteCatalog()
	planGen := &fakeGenerator{responses: []string{
		`{"sub_questions": [{"act_id": "mva", "question": "What is the penalty for not registering a motor vehicle?"}]}`,
	}}
	execGen := &fakeGenerator{responses: []string{
		"Driving an unregistered vehicle attracts a penalty under the registration provisions [1].",
	}}
	a := newTestAgent(planGen, execGen, &fakeGenerator{}, catalog)

	fa, err := a.Answer(context.Background(), "What is the penalty for not registering a motor vehicle?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(fa.Text, "penalty") || !strings.Contains(fa.Text, "registr") {
		t.Errorf("text does not reference registration penalty: %q", fa.Text)
	}
	if len(fa.Citations) == 0 {
		t.Fatal("expected at least one citation")
	}
	for _, c := range fa.Citations {
		if !strings.HasPrefix(c, "mva.pdf") {
			t.Errorf("citation %q not from the mva act", c)
		}
	}
	if fa.Confidence != domain.ConfidenceHigh {
		t.Errorf("confidence = %q", fa.Confidence)
	}
}

func TestAnswer_PartialDegradation(t *testing.T) {
	catalog := statuteCatalog()
	planGen := &fakeGenerator{responses: []string{
		`{"sub_questions": [
			{"act_id": "mva", "question": "What is the registration penalty?"},
			{"act_id": "irda", "question": "What does the regulator say?"}
		]}`,
	}}
	// irda's store is empty -> EmptyRetrieval gap; mva succeeds.
	execGen := &fakeGenerator{responses: []string{"A fine applies [1]."}}
	synthGen := &fakeGenerator{responses: []string{"Merged answer about the fine."}}
	a := newTestAgent(planGen, execGen, synthGen, catalog)

	fa, err := a.Answer(context.Background(), "registration penalty and regulator view?")
	if err != nil {
		t.Fatalf("gap must not fail the request: %v", err)
	}
	if len(fa.Citations) == 0 {
		t.Fatal("surviving sub-question's citations were lost")
	}
	if fa.Confidence != domain.ConfidenceLow {
		t.Errorf("confidence = %q, want low", fa.Confidence)
	}
	if !strings.Contains(fa.Text, "no grounded information") {
		t.Errorf("gap not noted in text: %q", fa.Text)
	}
}

func TestAnswer_AllGaps(t *testing.T) {
	catalog := statuteCatalog()
	planGen := &fakeGenerator{responses: []string{
		`{"sub_questions": [
			{"act_id": "irda", "question": "empty one"},
			{"act_id": "insurance", "question": "empty two"}
		]}`,
	}}
	a := newTestAgent(planGen, &fakeGenerator{}, &fakeGenerator{}, catalog)

	fa, err := a.Answer(context.Background(), "anything")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fa.Citations) != 0 {
		t.Errorf("citations = %v, want none", fa.Citations)
	}
	if !strings.Contains(fa.Text, "No grounded information") {
		t.Errorf("text = %q", fa.Text)
	}
}

func TestAnswer_PlanningFailureSurfaces(t *testing.T) {
	planGen := &fakeGenerator{errs: []error{errors.New("down"), errors.New("down")}}
	a := newTestAgent(planGen, &fakeGenerator{}, &fakeGenerator{}, statuteCatalog())

	_, err := a.Answer(context.Background(), "anything")
	if !errors.Is(err, domain.ErrPlanningFailed) {
		t.Fatalf("expected ErrPlanningFailed, got %v", err)
	}
}

func TestAnswer_GroundingSetStability(t *testing.T) {
	run := func() []string {
		catalog := statuteCatalog()
		planGen := &fakeGenerator{responses: []string{
			`{"sub_questions": [{"act_id": "mva", "question": "registration penalty?"}]}`,
		}}
		execGen := &fakeGenerator{responses: []string{"Different wording each run [1][2]."}}
		a := newTestAgent(planGen, execGen, &fakeGenerator{}, catalog)
		fa, err := a.Answer(context.Background(), "registration penalty?")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return fa.Citations
	}

	first := run()
	second := run()
	if len(first) != len(second) {
		t.Fatalf("citation sets differ: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("citation[%d] differs: %q vs %q", i, first[i], second[i])
		}
	}
}

func TestAnswer_ExecutorsRunConcurrently(t *testing.T) {
	const perCall = 60 * time.Millisecond

	catalog := statuteCatalog()
	// Four sub-questions against acts with non-empty stores.
	planGen := &fakeGenerator{responses: []string{
		`{"sub_questions": [
			{"act_id": "mva", "question": "q1"},
			{"act_id": "cpa", "question": "q2"},
			{"act_id": "mva", "question": "q3"},
			{"act_id": "cpa", "question": "q4"}
		]}`,
	}}
	execGen := &fakeGenerator{delay: perCall, responses: []string{"answer [1]"}}
	synthGen := &fakeGenerator{responses: []string{"merged"}}
	a := newTestAgent(planGen, execGen, synthGen, catalog)

	start := time.Now()
	if _, err := a.Answer(context.Background(), "four independent questions"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	elapsed := time.Since(start)

	// Sequential execution would need >= 4*perCall for generation alone.
	// Allow generous slack for scheduling; concurrent fan-out stays well under.
	if elapsed >= 3*perCall {
		t.Errorf("elapsed = %v, expected concurrent fan-out closer to %v", elapsed, perCall)
	}
}

func TestAnswer_TimeoutYieldsGapsNotFailure(t *testing.T) {
	catalog := statuteCatalog()
	planGen := &fakeGenerator{responses: []string{
		`{"sub_questions": [{"act_id": "mva", "question": "slow one"}]}`,
	}}
	execGen := &fakeGenerator{delay: 500 * time.Millisecond}
	a := newTestAgent(planGen, execGen, &fakeGenerator{}, catalog).
		WithTimeout(50 * time.Millisecond)

	fa, err := a.Answer(context.Background(), "slow question")
	if err != nil {
		t.Fatalf("timeout must degrade, not fail: %v", err)
	}
	if len(fa.Citations) != 0 {
		t.Errorf("citations = %v", fa.Citations)
	}
	if fa.Confidence != domain.ConfidenceNone {
		t.Errorf("confidence = %q, want none", fa.Confidence)
	}
}

func TestGapFor_ReasonByFailure(t *testing.T) {
	a := newTestAgent(&fakeGenerator{}, &fakeGenerator{}, &fakeGenerator{}, statuteCatalog())
	sq := domain.SubQuestion{ActID: "mva", Question: "q"}

	tests := []struct {
		name string
		err  error
		want domain.GapReason
	}{
		{
			name: "empty retrieval",
			err:  fmt.Errorf("act mva: %w", domain.ErrEmptyRetrieval),
			want: domain.GapEmptyRetrieval,
		},
		{
			name: "embedding outage",
			err:  fmt.Errorf("embed sub-question: %w", domain.ErrEmbeddingProviderError),
			want: domain.GapEmbeddingFailed,
		},
		{
			name: "generation failure",
			err:  fmt.Errorf("grounded generation for act mva: provider down: %w", domain.ErrGenerationFailed),
			want: domain.GapGenerationFailed,
		},
		{
			name: "deadline",
			err:  fmt.Errorf("embed sub-question: %w", context.DeadlineExceeded),
			want: domain.GapCancelled,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := a.gapFor(sq, tt.err)
			if p.Gap != tt.want {
				t.Errorf("gap = %q, want %q", p.Gap, tt.want)
			}
		})
	}
}

func TestWithToolInfo_RenamesTool(t *testing.T) {
	a := newTestAgent(&fakeGenerator{}, &fakeGenerator{}, &fakeGenerator{}, statuteCatalog()).
		WithToolInfo("document-drafter", "Describe the legal document to draft.")

	tool := a.Tool()
	if tool.Name != "document-drafter" {
		t.Errorf("name = %q", tool.Name)
	}
	if tool.Description != "Describe the legal document to draft." {
		t.Errorf("description = %q", tool.Description)
	}
}

func TestTool_ExposesPipeline(t *testing.T) {
	catalog := statuteCatalog()
	planGen := &fakeGenerator{responses: []string{
		`{"sub_questions": [{"act_id": "mva", "question": "registration penalty?"}]}`,
	}}
	execGen := &fakeGenerator{responses: []string{"A fine applies [1]."}}
	a := newTestAgent(planGen, execGen, &fakeGenerator{}, catalog)

	tool := a.Tool()
	if tool.Name == "" || tool.Description == "" {
		t.Fatal("tool must carry a name and description for agent routing")
	}
	fa, err := tool.Run(context.Background(), "registration penalty?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fa.Citations) == 0 {
		t.Error("tool call lost citations")
	}
}
