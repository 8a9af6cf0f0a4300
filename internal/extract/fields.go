package extract

import (
	"regexp"
	"strings"

	"mercascan/internal/money"
	"mercascan/internal/types"
)

// sectionAliases maps raw heading text (lowercased, accents as written on
// real storefronts) to the canonical section name.
var sectionAliases = map[string]string{
	"informacion":                types.SectionInformation,
	"información":                types.SectionInformation,
	"descripcion":                types.SectionDescription,
	"descripción":                types.SectionDescription,
	"especificaciones":           types.SectionSpecifications,
	"caracteristicas":            types.SectionFeatures,
	"caracteristicas importantes": types.SectionFeatures,
	"características":            types.SectionFeatures,
	"características importantes": types.SectionFeatures,
	"beneficios":                 types.SectionBenefits,
	"detalles":                   types.SectionDetails,
}

// measurementRe matches a quantity with a unit token from the fixed
// measurement vocabulary: "500g", "1.5 l", "6 unidades".
var measurementRe = regexp.MustCompile(`(?i)\b\d+[.,]?\d*\s?(?:kg|g|gr|gramos|l|lt|litro|litros|ml|cc|oz|lb|libras|unidades|unidad|pza|pzas|pieza|piezas|botella|bolsa)\b`)

// SectionAlias resolves a raw heading to its canonical section name.
func SectionAlias(line string) (string, bool) {
	name, ok := sectionAliases[strings.ToLower(strings.TrimSpace(line))]
	return name, ok
}

// Sections walks the cleaned lines and groups content under canonical
// section names. A line exactly matching an alias switches the current
// section; "Alias: rest" switches and seeds the section with rest; all
// other lines append to the current section. Lines before the first header
// stay out of the map.
func Sections(lines []string) map[string][]string {
	sections := make(map[string][]string)
	current := ""

	for _, line := range lines {
		if name, ok := SectionAlias(line); ok {
			current = name
			continue
		}
		if idx := strings.Index(line, ":"); idx >= 0 {
			if name, ok := SectionAlias(line[:idx]); ok {
				sections[name] = append(sections[name], strings.TrimSpace(line[idx+1:]))
				current = name
				continue
			}
		}
		if current != "" {
			sections[current] = append(sections[current], line)
		}
	}
	return sections
}

// ProductAndBrand applies the ordered name/brand rules over the cleaned
// lines. First match wins and scanning never backtracks:
//
//  1. section alias headers are never candidates;
//  2. the first multi-word line is the product name;
//  3. after the name, the first short (≤4 words) colon-free line is the
//     brand, and scanning stops.
//
// Ambiguous input yields best-effort guesses, never an error.
func ProductAndBrand(lines []string) (product, brand string) {
	for _, line := range lines {
		if _, ok := SectionAlias(line); ok {
			continue
		}
		if product == "" {
			if len(strings.Fields(line)) > 1 {
				product = line
			}
			continue
		}
		if strings.Contains(line, ":") {
			continue
		}
		if len(strings.Fields(line)) <= 4 {
			brand = line
			return
		}
	}
	return
}

// Reference returns the value of the first "referencia:" line.
func Reference(lines []string) string {
	return labelledValue(lines, "referencia:")
}

// Seller returns the value of the first "vendido y entregado por:" line.
func Seller(lines []string) string {
	return labelledValue(lines, "vendido y entregado por:")
}

func labelledValue(lines []string, prefix string) string {
	for _, line := range lines {
		if strings.HasPrefix(strings.ToLower(line), prefix) {
			if _, rest, ok := strings.Cut(line, ":"); ok {
				return strings.TrimSpace(rest)
			}
		}
	}
	return ""
}

// Measurement returns the first quantity-with-unit match across the lines.
func Measurement(lines []string) string {
	for _, line := range lines {
		if m := measurementRe.FindString(line); m != "" {
			return m
		}
	}
	return ""
}

// PriceText returns the first price-bearing line's "symbol+amount" text,
// skipping placeholder all-zero amounts.
func PriceText(lines []string) string {
	for _, line := range lines {
		if text, ok := money.ExtractPriceText(line); ok {
			return text
		}
	}
	return ""
}
