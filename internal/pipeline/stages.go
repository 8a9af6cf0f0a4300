package pipeline

import (
	"context"
	"strings"
	"sync"

	"mercascan/internal/judge"
	"mercascan/internal/translate"
	"mercascan/internal/types"
)

// TranslateStage runs the translation normalizer over each record.
type TranslateStage struct {
	normalizer *translate.Normalizer
}

// NewTranslateStage wraps a normalizer as a pipeline stage.
func NewTranslateStage(normalizer *translate.Normalizer) *TranslateStage {
	return &TranslateStage{normalizer: normalizer}
}

func (s *TranslateStage) Name() string { return "translate" }

func (s *TranslateStage) Process(rec *types.Record) (*types.Record, error) {
	s.normalizer.NormalizeRecord(context.Background(), rec)
	return rec, nil
}

// JudgeStage attaches a decision to each record. Records are never dropped
// here; discards stay in the dataset with their verdict attached.
type JudgeStage struct {
	judge judge.Judge
}

// NewJudgeStage wraps a judge as a pipeline stage.
func NewJudgeStage(j judge.Judge) *JudgeStage {
	return &JudgeStage{judge: j}
}

func (s *JudgeStage) Name() string { return "judge" }

func (s *JudgeStage) Process(rec *types.Record) (*types.Record, error) {
	decision := s.judge.Judge(rec)
	rec.Decision = &decision
	return rec, nil
}

// UsabilityStage drops records below the configured usability floor.
type UsabilityStage struct {
	dropUnusable bool
}

// NewUsabilityStage creates the usability triage stage.
func NewUsabilityStage(dropUnusable bool) *UsabilityStage {
	return &UsabilityStage{dropUnusable: dropUnusable}
}

func (s *UsabilityStage) Name() string { return "usability" }

func (s *UsabilityStage) Process(rec *types.Record) (*types.Record, error) {
	if s.dropUnusable && judge.UsabilityLabel(rec) == judge.LabelUnusable {
		return nil, nil
	}
	return rec, nil
}

// DedupStage drops records whose source id was already seen.
type DedupStage struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewDedupStage creates a dedup stage keyed by source id.
func NewDedupStage() *DedupStage {
	return &DedupStage{seen: make(map[string]struct{})}
}

func (s *DedupStage) Name() string { return "dedup" }

func (s *DedupStage) Process(rec *types.Record) (*types.Record, error) {
	key := rec.SourceID
	if key == "" {
		key = rec.Title
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[key]; exists {
		return nil, nil
	}
	s.seen[key] = struct{}{}
	return rec, nil
}

// TrimStage trims whitespace from every text field.
type TrimStage struct{}

func (s *TrimStage) Name() string { return "trim" }

func (s *TrimStage) Process(rec *types.Record) (*types.Record, error) {
	rec.VisitText(func(_ string, value *string) {
		*value = strings.TrimSpace(*value)
	})
	return rec, nil
}
