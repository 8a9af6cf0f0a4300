package textproc

import "strings"

// skipKeywords marks storefront noise: cookie banners, cart prompts,
// navigation labels, login prompts. Matching is case-insensitive substring.
var skipKeywords = []string{
	"cookie",
	"aviso de privacidad",
	"aceptar",
	"cargando comentarios",
	"mostrar más",
	"mostrar mas",
	"comparte",
	"combo",
	"cantidad máxima",
	"equivale a",
	"agregar",
	"añadir",
	"suscríbete",
	"suscribete",
	"inicio",
	"carrito",
	"categoría",
	"categorias",
	"login",
	"ingresar",
	"registr",
	"imágenes del producto",
	"imagenes del producto",
	"promociones exclusivas",
}

// stopSections mark the start of unrelated page regions (related-products
// widgets and the like). Everything after the first match is discarded.
var stopSections = []string{
	"productos relacionados",
	"también te puede interesar",
	"tambien te puede interesar",
	"te puede interesar",
	"clientes también compraron",
	"clientes tambien compraron",
	"otros productos",
}

// categoryBoilerplate are bare breadcrumb labels that carry no product data.
var categoryBoilerplate = map[string]struct{}{
	"supermercado":      {},
	"despensa":          {},
	"granos y semillas": {},
	"categorías":        {},
	"categorias":        {},
	"departamento":      {},
}

const bulletChars = ".•-*–—"

// ShouldSkip reports whether a line is storefront noise.
func ShouldSkip(line string) bool {
	lower := strings.ToLower(line)
	for _, kw := range skipKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// ShouldStop reports whether a line marks the start of an unrelated section.
func ShouldStop(line string) bool {
	lower := strings.ToLower(line)
	for _, kw := range stopSections {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// isBulletLine reports whether a line is purely punctuation/bullet characters.
func isBulletLine(line string) bool {
	for _, r := range line {
		if !strings.ContainsRune(bulletChars, r) {
			return false
		}
	}
	return len(line) > 0
}

// Segmenter cleans raw body-text lines into an ordered, deduplicated
// sequence. It is stateless across calls; each Clean starts fresh.
type Segmenter struct{}

// NewSegmenter creates a Segmenter.
func NewSegmenter() *Segmenter { return &Segmenter{} }

// Clean processes raw lines in order:
//
//  1. blank lines are dropped;
//  2. the first stop-section marker truncates the sequence permanently;
//  3. skip-keyword lines, bullet-only lines and bare category breadcrumbs
//     are dropped;
//  4. a line that is only ":" re-labels the previously emitted line as a
//     pending key; a line ending in ":" becomes a pending key itself;
//  5. a pending key merges with the next content line as "key: value";
//  6. case-insensitive duplicates are dropped.
//
// Running Clean over its own output reproduces it unchanged.
func (s *Segmenter) Clean(raw []string) []string {
	var cleaned []string
	seen := make(map[string]struct{})
	pendingKey := ""

	for _, line := range raw {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}

		normalized := strings.ToLower(stripped)

		if ShouldStop(stripped) {
			break
		}
		if ShouldSkip(stripped) {
			continue
		}
		if isBulletLine(stripped) {
			continue
		}
		if _, ok := categoryBoilerplate[normalized]; ok {
			continue
		}

		// A lone ":" means the previous line was actually a label whose
		// value is still coming.
		if strings.ReplaceAll(stripped, " ", "") == ":" && len(cleaned) > 0 {
			pendingKey = cleaned[len(cleaned)-1]
			cleaned = cleaned[:len(cleaned)-1]
			delete(seen, strings.ToLower(pendingKey))
			continue
		}

		if strings.HasSuffix(stripped, ":") {
			pendingKey = strings.TrimSpace(strings.TrimSuffix(stripped, ":"))
			continue
		}

		if pendingKey != "" {
			combined := pendingKey + ": " + stripped
			if _, ok := seen[strings.ToLower(combined)]; !ok {
				cleaned = append(cleaned, combined)
				seen[strings.ToLower(combined)] = struct{}{}
			}
			pendingKey = ""
			continue
		}

		if _, ok := seen[normalized]; ok {
			continue
		}

		cleaned = append(cleaned, stripped)
		seen[normalized] = struct{}{}
	}

	return cleaned
}
