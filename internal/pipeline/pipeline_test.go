package pipeline

import (
	"errors"
	"log/slog"
	"os"
	"testing"

	"mercascan/internal/judge"
	"mercascan/internal/taxonomy"
	"mercascan/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

type stubStage struct {
	name string
	fn   func(*types.Record) (*types.Record, error)
}

func (s *stubStage) Name() string { return s.name }
func (s *stubStage) Process(r *types.Record) (*types.Record, error) {
	return s.fn(r)
}

func fptr(v float64) *float64 { return &v }

func TestPipelineRunsStagesInOrder(t *testing.T) {
	p := New(testLogger)

	var order []string
	for _, name := range []string{"a", "b", "c"} {
		name := name
		p.Use(&stubStage{name: name, fn: func(r *types.Record) (*types.Record, error) {
			order = append(order, name)
			return r, nil
		}})
	}

	if _, err := p.Process(&types.Record{SourceID: "x"}); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Errorf("order = %v", order)
	}
	if p.Len() != 3 {
		t.Errorf("Len = %d", p.Len())
	}
}

func TestPipelineDropStopsChain(t *testing.T) {
	p := New(testLogger)
	p.Use(&stubStage{name: "drop", fn: func(*types.Record) (*types.Record, error) {
		return nil, nil
	}})
	reached := false
	p.Use(&stubStage{name: "after", fn: func(r *types.Record) (*types.Record, error) {
		reached = true
		return r, nil
	}})

	rec, err := p.Process(&types.Record{SourceID: "x"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if rec != nil {
		t.Error("dropped record should be nil")
	}
	if reached {
		t.Error("stage after drop must not run")
	}
}

func TestPipelineWrapsStageErrors(t *testing.T) {
	p := New(testLogger)
	boom := errors.New("boom")
	p.Use(&stubStage{name: "broken", fn: func(*types.Record) (*types.Record, error) {
		return nil, boom
	}})

	_, err := p.Process(&types.Record{SourceID: "x"})
	var perr *types.PipelineError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want PipelineError", err)
	}
	if perr.Stage != "broken" || !errors.Is(err, boom) {
		t.Errorf("stage = %q, unwrap ok = %v", perr.Stage, errors.Is(err, boom))
	}
}

func TestJudgeStageAttachesDecision(t *testing.T) {
	h := judge.NewHeuristic(taxonomy.Default(), testLogger)
	stage := NewJudgeStage(h)

	rec := &types.Record{Title: "Leche Entera Alquería 1L", PriceAmount: fptr(4500)}
	out, err := stage.Process(rec)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out.Decision == nil || !out.Decision.Keep() {
		t.Errorf("decision = %+v, want keep", out.Decision)
	}
}

func TestDedupStage(t *testing.T) {
	stage := NewDedupStage()

	first, _ := stage.Process(&types.Record{SourceID: "a"})
	second, _ := stage.Process(&types.Record{SourceID: "a"})
	third, _ := stage.Process(&types.Record{SourceID: "b"})

	if first == nil || third == nil {
		t.Error("unique records must pass")
	}
	if second != nil {
		t.Error("duplicate source id must be dropped")
	}
}

func TestUsabilityStage(t *testing.T) {
	stage := NewUsabilityStage(true)

	usable, _ := stage.Process(&types.Record{
		ProductName: "Leche",
		PriceAmount: fptr(10),
		Decision: &types.Decision{
			Category: "leche",
			Verdict:  types.VerdictKeep,
			Reasons:  []string{"llm_match"},
		},
	})
	if usable == nil {
		t.Error("usable record dropped")
	}

	unjudged := &types.Record{SourceID: "empty"}
	if out, _ := stage.Process(unjudged); out != nil {
		t.Error("unusable record kept")
	}

	keepAll := NewUsabilityStage(false)
	if kept, _ := keepAll.Process(unjudged); kept == nil {
		t.Error("stage must keep unusable records when not dropping")
	}
}

func TestTrimStage(t *testing.T) {
	stage := &TrimStage{}
	rec := &types.Record{Title: "  Leche Entera  ", Brand: " Alquería "}
	out, _ := stage.Process(rec)
	if out.Title != "Leche Entera" || out.Brand != "Alquería" {
		t.Errorf("trim = %q / %q", out.Title, out.Brand)
	}
}
