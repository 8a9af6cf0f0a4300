// Package judge decides whether an assembled record is a keepable product
// listing. The default judge is a deterministic heuristic over the
// canonical category and the parsed price; an LLM-backed judge can wrap it
// for ambiguous records.
package judge

import (
	"log/slog"

	"mercascan/internal/taxonomy"
	"mercascan/internal/types"
)

// Judge renders a verdict for a record.
type Judge interface {
	Judge(rec *types.Record) types.Decision
}

// Heuristic is the deterministic judge: excluded keywords discard outright,
// otherwise the verdict follows from category recognition and price.
type Heuristic struct {
	canon  *taxonomy.Canonicalizer
	tax    *taxonomy.Taxonomy
	logger *slog.Logger
}

// NewHeuristic creates the heuristic judge.
func NewHeuristic(tax *taxonomy.Taxonomy, logger *slog.Logger) *Heuristic {
	return &Heuristic{
		canon:  taxonomy.NewCanonicalizer(tax),
		tax:    tax,
		logger: logger.With("component", "heuristic_judge"),
	}
}

// Judge evaluates the record's name, description and breadcrumbs. Every
// verdict carries at least one reason; a clean keep gets "heuristic_default".
func (h *Heuristic) Judge(rec *types.Record) types.Decision {
	text := rec.JudgementText()

	if h.canon.IsExcluded(text) {
		return types.Decision{
			Category: types.CategoryDiscarded,
			Verdict:  types.VerdictDiscard,
			Score:    0.1,
			Reasons:  []string{"excluded_keyword"},
		}
	}

	var reasons []string

	category, matched := h.canon.Canonical(text)
	if !matched {
		category = types.CategoryNone
		reasons = append(reasons, "no_category_detected")
	}
	// A synonym may rewrite to a name outside the category list; only
	// taxonomy members count as recognized.
	recognized := matched && h.tax.Contains(category)

	price := 0.0
	if rec.PriceAmount != nil {
		price = *rec.PriceAmount
	} else {
		reasons = append(reasons, "price_parse_failed")
	}

	keep := recognized && price > 0
	if recognized && price <= 0 {
		reasons = append(reasons, "price<=0")
	}

	// The score reflects category recognition alone; an unpriced but
	// recognized product still scores 0.6 while being discarded.
	score := 0.3
	if recognized {
		score = 0.6
	}
	verdict := types.VerdictDiscard
	if keep {
		verdict = types.VerdictKeep
	}
	if len(reasons) == 0 {
		reasons = []string{"heuristic_default"}
	}

	return types.Decision{
		Category: category,
		Verdict:  verdict,
		Score:    score,
		Reasons:  reasons,
	}
}
