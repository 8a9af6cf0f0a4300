// Package taxonomy holds the category vocabulary used to canonicalize
// product text: the category list, ordered synonym rewrites and the
// exclusion keywords for non-product listings.
package taxonomy

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/viper"

	"mercascan/internal/textproc"
)

// Synonym rewrites one phrase to a category. Synonyms are ordered: the
// first match wins, so longer or accented variants must come before the
// shorter phrases they contain.
type Synonym struct {
	Match    string `mapstructure:"match"`
	Category string `mapstructure:"category"`
}

// Taxonomy is the category vocabulary for a run.
type Taxonomy struct {
	Categories []string  `mapstructure:"categories"`
	Synonyms   []Synonym `mapstructure:"synonyms"`
	Exclude    []string  `mapstructure:"exclude"`
}

// Default returns the built-in grocery taxonomy used when no taxonomy file
// is configured.
func Default() *Taxonomy {
	return &Taxonomy{
		Categories: []string{
			"leche", "arroz", "frijoles", "atun", "pan", "huevo",
			"aceite", "azucar", "cafe", "pasta", "cebolla", "papa",
			"tomate", "banano", "pollo", "carne", "queso", "yogurt",
			"mantequilla", "jabon",
		},
		Synonyms: []Synonym{
			{Match: "leche líquida", Category: "leche"},
			{Match: "leche liquida", Category: "leche"},
			{Match: "atún en lata", Category: "atun"},
			{Match: "atun en lata", Category: "atun"},
			{Match: "pan de molde", Category: "pan"},
			{Match: "café molido", Category: "cafe"},
			{Match: "café", Category: "cafe"},
			{Match: "azúcar", Category: "azucar"},
			{Match: "aceite vegetal", Category: "aceite"},
			{Match: "fríjoles", Category: "frijoles"},
			{Match: "huevos", Category: "huevo"},
			{Match: "cebollas", Category: "cebolla"},
			{Match: "papas", Category: "papa"},
			{Match: "bananos", Category: "banano"},
		},
		Exclude: []string{
			"gift card", "tarjeta regalo", "servicio", "instalación",
			"membresía", "recarga", "garantía", "warranty", "accesorio",
			"funda", "repuesto",
		},
	}
}

// Load reads a taxonomy file (yaml/json/toml, decided by extension). A
// missing path yields the default taxonomy; a present but broken file is
// an error, not a silent fallback.
func Load(path string) (*Taxonomy, error) {
	if path == "" {
		return Default(), nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading taxonomy file: %w", err)
	}

	tax := &Taxonomy{}
	if err := v.Unmarshal(tax); err != nil {
		return nil, fmt.Errorf("parsing taxonomy file: %w", err)
	}
	if len(tax.Categories) == 0 {
		return nil, fmt.Errorf("taxonomy file %s defines no categories", path)
	}
	return tax, nil
}

// Contains reports whether the category belongs to the taxonomy. Both
// sides are compared in normalized form, so "Atún" and "atun" are the same
// member.
func (t *Taxonomy) Contains(category string) bool {
	want := textproc.Normalize(category)
	for _, c := range t.Categories {
		if textproc.Normalize(c) == want {
			return true
		}
	}
	return false
}

// Canonicalizer matches normalized product text against the taxonomy.
// Config entries and input text are both lowercased, accent-stripped and
// whitespace-collapsed before matching, so "Atún" finds "atun" and vice
// versa. Build one per run; the compiled patterns are safe for concurrent
// use.
type Canonicalizer struct {
	synonyms    []Synonym // normalized
	categories  []string  // normalized, declaration order
	exclude     []string  // normalized
	synonymRes  []*regexp.Regexp
	categoryRes []*regexp.Regexp
}

// NewCanonicalizer normalizes the vocabulary and compiles word-boundary
// patterns for every synonym and category.
func NewCanonicalizer(tax *Taxonomy) *Canonicalizer {
	c := &Canonicalizer{
		synonyms:    make([]Synonym, len(tax.Synonyms)),
		categories:  make([]string, len(tax.Categories)),
		exclude:     make([]string, len(tax.Exclude)),
		synonymRes:  make([]*regexp.Regexp, len(tax.Synonyms)),
		categoryRes: make([]*regexp.Regexp, len(tax.Categories)),
	}
	for i, syn := range tax.Synonyms {
		c.synonyms[i] = Synonym{
			Match:    textproc.Normalize(syn.Match),
			Category: textproc.Normalize(syn.Category),
		}
		c.synonymRes[i] = wordPattern(c.synonyms[i].Match)
	}
	for i, cat := range tax.Categories {
		c.categories[i] = textproc.Normalize(cat)
		c.categoryRes[i] = wordPattern(c.categories[i])
	}
	for i, kw := range tax.Exclude {
		c.exclude[i] = textproc.Normalize(kw)
	}
	return c
}

// wordPattern matches a normalized phrase at word boundaries. \b misbehaves
// around accented runes, so boundaries are expressed as non-word-or-edge
// instead.
func wordPattern(phrase string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:^|\W)` + regexp.QuoteMeta(phrase) + `(?:$|\W)`)
}

// Canonical maps product text to a taxonomy category. Synonyms are checked
// first, in declaration order; then bare category names. Text matching
// nothing yields ok=false. The returned category is in normalized form.
func (c *Canonicalizer) Canonical(text string) (string, bool) {
	text = textproc.Normalize(text)
	for i, re := range c.synonymRes {
		if re.MatchString(text) {
			return c.synonyms[i].Category, true
		}
	}
	for i, re := range c.categoryRes {
		if re.MatchString(text) {
			return c.categories[i], true
		}
	}
	return "", false
}

// IsExcluded reports whether the text mentions a non-product keyword
// (gift cards, services, accessories). Plain substring match over the
// normalized forms, like the exclusion list intends.
func (c *Canonicalizer) IsExcluded(text string) bool {
	text = textproc.Normalize(text)
	for _, kw := range c.exclude {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
