package translate

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"

	"mercascan/internal/types"
)

// ptDiacriticRe matches diacritics that occur in Portuguese orthography but
// not in Spanish: nasal tildes and circumflexes, plus the cedilla.
var ptDiacriticRe = regexp.MustCompile(`[ãõâêôç]`)

// ptKeywords are common Portuguese words with no Spanish homograph, used to
// catch short strings the statistical detector is unsure about.
var ptKeywords = map[string]bool{
	"não":      true,
	"você":     true,
	"também":   true,
	"então":    true,
	"preço":    true,
	"tamanho":  true,
	"embalagem": true,
	"garrafa":  true,
	"conteúdo": true,
}

// Normalizer rewrites Portuguese record text into Spanish. A single failed
// translation disables the normalizer for the rest of the run: the backends
// it targets rate-limit aggressively, and a half-translated corpus is worse
// than an untranslated one.
type Normalizer struct {
	translator Translator
	detector   lingua.LanguageDetector
	logger     *slog.Logger

	mu       sync.Mutex
	cache    map[string]string
	disabled bool
	warned   bool
}

// NewNormalizer creates a translation normalizer. A nil translator yields a
// normalizer that only tags language status and never rewrites text.
func NewNormalizer(translator Translator, logger *slog.Logger) *Normalizer {
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(lingua.Spanish, lingua.Portuguese, lingua.English).
		Build()
	return &Normalizer{
		translator: translator,
		detector:   detector,
		cache:      make(map[string]string),
		logger:     logger.With("component", "translate_normalizer"),
	}
}

// LooksPortuguese reports whether the text reads as Portuguese rather than
// Spanish or English. Orthographic evidence (nasal marks, cedillas, or a
// distinctly Portuguese word) is required: Spanish and Portuguese are close
// enough that the statistical detector alone misreads plain Spanish retail
// copy, so its verdict only arbitrates text that already carries Portuguese
// orthography.
func (n *Normalizer) LooksPortuguese(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)

	marked := ptDiacriticRe.MatchString(lower)
	if !marked {
		for _, word := range strings.Fields(lower) {
			if ptKeywords[strings.Trim(word, ".,;:!?()")] {
				marked = true
				break
			}
		}
	}
	if !marked {
		return false
	}

	// A stray loanword or product name can carry the marks; let the
	// detector veto sentences it reads as Spanish.
	if lang, ok := n.detector.DetectLanguageOf(text); ok && lang == lingua.Spanish {
		return false
	}
	return true
}

// NormalizeRecord translates every Portuguese text field of the record in
// place and stamps the language status. Failures never drop the record: the
// original text stays and the normalizer goes quiet for the rest of the run.
func (n *Normalizer) NormalizeRecord(ctx context.Context, rec *types.Record) {
	translated := false

	rec.VisitText(func(name string, value *string) {
		if *value == "" || !n.LooksPortuguese(*value) {
			return
		}
		out, ok := n.translate(ctx, name, *value)
		if ok {
			*value = out
			translated = true
		}
	})

	if translated {
		rec.LangStatus = types.LangTranslated
	} else if rec.LangStatus == "" {
		rec.LangStatus = types.LangOriginal
	}
}

func (n *Normalizer) translate(ctx context.Context, field, text string) (string, bool) {
	n.mu.Lock()
	if n.disabled || n.translator == nil {
		n.mu.Unlock()
		return "", false
	}
	if cached, ok := n.cache[text]; ok {
		n.mu.Unlock()
		return cached, true
	}
	n.mu.Unlock()

	out, err := n.translator.Translate(ctx, text)
	if err != nil || strings.TrimSpace(out) == "" {
		n.mu.Lock()
		n.disabled = true
		if !n.warned {
			n.warned = true
			n.logger.Warn("translation failed, disabling translator for this run",
				"field", field, "error", err)
		}
		n.mu.Unlock()
		return "", false
	}

	n.mu.Lock()
	n.cache[text] = out
	n.mu.Unlock()
	return out, true
}

// Disabled reports whether the normalizer tripped its single-strike fuse.
func (n *Normalizer) Disabled() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.disabled
}
