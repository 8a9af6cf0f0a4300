package judge

import (
	"log/slog"
	"os"
	"reflect"
	"testing"

	"mercascan/internal/taxonomy"
	"mercascan/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func fptr(v float64) *float64 { return &v }

func TestHeuristicKeepsRecognizedPricedProduct(t *testing.T) {
	h := NewHeuristic(taxonomy.Default(), testLogger)

	rec := &types.Record{
		Title:       "Leche Entera Alquería 1L",
		Description: "Leche entera ultrapasteurizada",
		PriceAmount: fptr(4500),
	}

	d := h.Judge(rec)
	if d.Category != "leche" {
		t.Errorf("category = %q, want leche", d.Category)
	}
	if d.Verdict != types.VerdictKeep {
		t.Errorf("verdict = %q, want keep", d.Verdict)
	}
	if d.Score != 0.6 {
		t.Errorf("score = %v, want 0.6", d.Score)
	}
	if want := []string{"heuristic_default"}; !reflect.DeepEqual(d.Reasons, want) {
		t.Errorf("reasons = %v, want %v", d.Reasons, want)
	}
}

func TestHeuristicExcludedKeyword(t *testing.T) {
	h := NewHeuristic(taxonomy.Default(), testLogger)

	rec := &types.Record{
		Title:       "Tarjeta regalo de $50",
		PriceAmount: fptr(50),
	}

	d := h.Judge(rec)
	if d.Category != types.CategoryDiscarded {
		t.Errorf("category = %q, want %q", d.Category, types.CategoryDiscarded)
	}
	if d.Verdict != types.VerdictDiscard || d.Score != 0.1 {
		t.Errorf("verdict/score = %q/%v, want discard/0.1", d.Verdict, d.Score)
	}
	if want := []string{"excluded_keyword"}; !reflect.DeepEqual(d.Reasons, want) {
		t.Errorf("reasons = %v, want %v", d.Reasons, want)
	}
}

func TestHeuristicNoCategory(t *testing.T) {
	h := NewHeuristic(taxonomy.Default(), testLogger)

	// Unknown category with a parsed zero price: only the category reason,
	// price<=0 is reported only for recognized products.
	rec := &types.Record{
		Title:       "Destornillador Phillips",
		PriceAmount: fptr(0),
	}

	d := h.Judge(rec)
	if d.Category != types.CategoryNone {
		t.Errorf("category = %q, want %q", d.Category, types.CategoryNone)
	}
	if d.Verdict != types.VerdictDiscard || d.Score != 0.3 {
		t.Errorf("verdict/score = %q/%v, want discard/0.3", d.Verdict, d.Score)
	}
	if want := []string{"no_category_detected"}; !reflect.DeepEqual(d.Reasons, want) {
		t.Errorf("reasons = %v, want %v", d.Reasons, want)
	}
}

func TestHeuristicPriceFailures(t *testing.T) {
	h := NewHeuristic(taxonomy.Default(), testLogger)

	t.Run("recognized but unpriced", func(t *testing.T) {
		rec := &types.Record{Title: "Arroz Diana 500g"}
		d := h.Judge(rec)
		if d.Verdict != types.VerdictDiscard {
			t.Errorf("verdict = %q, want discard", d.Verdict)
		}
		if d.Score != 0.6 {
			t.Errorf("score = %v, want 0.6 (recognition scores independent of price)", d.Score)
		}
		want := []string{"price_parse_failed", "price<=0"}
		if !reflect.DeepEqual(d.Reasons, want) {
			t.Errorf("reasons = %v, want %v", d.Reasons, want)
		}
	})

	t.Run("recognized with zero price", func(t *testing.T) {
		rec := &types.Record{Title: "Arroz Diana 500g", PriceAmount: fptr(0)}
		d := h.Judge(rec)
		if d.Verdict != types.VerdictDiscard || d.Score != 0.6 {
			t.Errorf("verdict/score = %q/%v, want discard/0.6", d.Verdict, d.Score)
		}
		want := []string{"price<=0"}
		if !reflect.DeepEqual(d.Reasons, want) {
			t.Errorf("reasons = %v, want %v", d.Reasons, want)
		}
	})
}

func TestHeuristicSynonymOutsideCategories(t *testing.T) {
	// A synonym may rewrite to a name the category list does not carry;
	// such records are discarded and scored as unrecognized.
	tax := &taxonomy.Taxonomy{
		Categories: []string{"leche"},
		Synonyms:   []taxonomy.Synonym{{Match: "kombucha", Category: "bebida fermentada"}},
	}
	h := NewHeuristic(tax, testLogger)

	d := h.Judge(&types.Record{Title: "Kombucha de jengibre", PriceAmount: fptr(9000)})
	if d.Category != "bebida fermentada" {
		t.Errorf("category = %q, want the synonym target", d.Category)
	}
	if d.Verdict != types.VerdictDiscard || d.Score != 0.3 {
		t.Errorf("verdict/score = %q/%v, want discard/0.3", d.Verdict, d.Score)
	}
}

func TestUsabilityLabel(t *testing.T) {
	keep := func(reasons ...string) *types.Decision {
		return &types.Decision{Category: "leche", Verdict: types.VerdictKeep, Score: 0.6, Reasons: reasons}
	}

	tests := []struct {
		name string
		rec  *types.Record
		want string
	}{
		{
			name: "clean keep",
			rec: &types.Record{
				ProductName: "Leche Entera 1L",
				PriceAmount: fptr(4500),
				Decision:    keep("llm_match"),
			},
			want: LabelUsable,
		},
		{
			name: "keep on heuristic default is only partial",
			rec: &types.Record{
				ProductName: "Leche Entera 1L",
				PriceAmount: fptr(4500),
				Decision:    keep("heuristic_default"),
			},
			want: LabelPartlyUsable,
		},
		{
			name: "discarded record with name and price",
			rec: &types.Record{
				ProductName: "Destornillador Phillips",
				PriceAmount: fptr(100),
				Decision: &types.Decision{
					Category: types.CategoryNone,
					Verdict:  types.VerdictDiscard,
					Reasons:  []string{"no_category_detected"},
				},
			},
			want: LabelUnusable,
		},
		{
			name: "kept but unpriced",
			rec:  &types.Record{ProductName: "Leche Entera 1L", Decision: keep("llm_match")},
			want: LabelUnusable,
		},
		{
			name: "no decision attached",
			rec:  &types.Record{ProductName: "Leche Entera 1L", PriceAmount: fptr(4500)},
			want: LabelUnusable,
		},
		{
			name: "captcha interstitial",
			rec: &types.Record{
				Title:       "Robot Check",
				Description: "complete the captcha to continue",
				PriceAmount: fptr(100),
				Decision:    keep("llm_match"),
			},
			want: LabelUnusable,
		},
		{
			name: "cloudflare interstitial",
			rec: &types.Record{
				Title:       "Un momento",
				Description: "Cloudflare Ray ID: 8a2f verificar que usted es un ser humano",
				PriceAmount: fptr(100),
				Decision:    keep("llm_match"),
			},
			want: LabelUnusable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UsabilityLabel(tt.rec); got != tt.want {
				t.Errorf("UsabilityLabel = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncateUTF8(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"leche", 10, "leche"},
		{"leche", 3, "lec"},
		{"atún", 3, "at"}, // cut lands inside ú, backs up to the rune start
		{"atún", 4, "atú"},
		{"atún", 5, "atún"},
		{"ññ", 3, "ñ"},
		{"", 5, ""},
	}
	for _, tt := range tests {
		got := truncateUTF8(tt.in, tt.max)
		if got != tt.want {
			t.Errorf("truncateUTF8(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`{"verdict":"keep"}`, `{"verdict":"keep"}`},
		{"here you go: {\"a\":{\"b\":1}} done", `{"a":{"b":1}}`},
		{"no json here", "{}"},
		{"{unbalanced", "{}"},
	}
	for _, tt := range tests {
		if got := extractJSON(tt.in); got != tt.want {
			t.Errorf("extractJSON(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
