// Package assemble builds normalized product records from raw page markup:
// body-text extraction, line cleaning, field heuristics and price parsing,
// composed in one pass per page.
package assemble

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"mercascan/internal/extract"
	"mercascan/internal/money"
	"mercascan/internal/textproc"
	"mercascan/internal/types"
)

// defaultSeller labels records whose page never names a seller.
const defaultSeller = "Desconocido"

// unknownValue fills country and availability when the page gives no signal.
const unknownValue = "unknown"

// columnSections are the section names with dedicated record columns;
// anything else lands in other_sections.
var columnSections = map[string]bool{
	types.SectionInformation:    true,
	types.SectionDescription:    true,
	types.SectionFeatures:       true,
	types.SectionSpecifications: true,
	types.SectionBenefits:       true,
	types.SectionDetails:        true,
}

// Assembler turns one page into one record.
type Assembler struct {
	pages  *extract.PageExtractor
	seg    *textproc.Segmenter
	logger *slog.Logger
}

// New creates an assembler.
func New(logger *slog.Logger) *Assembler {
	return &Assembler{
		pages:  extract.NewPageExtractor(logger),
		seg:    textproc.NewSegmenter(),
		logger: logger.With("component", "assembler"),
	}
}

// Assemble extracts a record from raw markup. Pages that yield no text
// still produce a record, with the source id standing in for the title, so
// downstream labeling can count them.
func (a *Assembler) Assemble(sourceID string, raw []byte) (*types.Record, error) {
	lines, err := a.pages.BodyLines(raw)
	if err != nil {
		return nil, &types.ExtractError{SourceID: sourceID, Err: err}
	}
	cleaned := a.seg.Clean(lines)

	rec := a.FromLines(sourceID, cleaned, extract.EmbeddedCurrency(raw))
	if rec.Title == sourceID {
		if title := a.pages.Title(raw); title != "" {
			rec.Title = title
		}
	}
	return rec, nil
}

// FromLines assembles a record from already-cleaned lines. The currency
// hint, when present, seeds the price currency before symbol inference.
func (a *Assembler) FromLines(sourceID string, cleaned []string, currencyHint string) *types.Record {
	product, brand := extract.ProductAndBrand(cleaned)
	priceText := extract.PriceText(cleaned)
	price := money.Parse(priceText, currencyHint)

	rec := &types.Record{
		SourceID:      sourceID,
		ProductName:   product,
		Brand:         brand,
		Reference:     extract.Reference(cleaned),
		Unit:          extract.Measurement(cleaned),
		Seller:        extract.Seller(cleaned),
		PriceRaw:      priceText,
		CurrencyRaw:   currencyHint,
		PriceText:     priceText,
		PriceAmount:   price.Amount,
		PriceCurrency: price.Currency,
		PriceSymbol:   price.Symbol,
		Availability:  unknownValue,
	}

	rec.Title = product
	if rec.Title == "" {
		rec.Title = sourceID
	}
	if rec.Seller == "" {
		rec.Seller = defaultSeller
	}
	rec.Country = money.CountryForCurrency(price.Currency)
	if rec.Country == "" {
		rec.Country = unknownValue
	}
	rec.Breadcrumbs = joinNonEmpty(" > ", brand, rec.Unit, rec.Reference)

	rec.Sections = filterSections(extract.Sections(cleaned))
	rec.InformationText = strings.Join(rec.Sections[types.SectionInformation], " ")
	rec.DescriptionText = strings.Join(rec.Sections[types.SectionDescription], " ")
	rec.FeaturesText = strings.Join(rec.Sections[types.SectionFeatures], " | ")
	rec.SpecificationsText = strings.Join(rec.Sections[types.SectionSpecifications], " | ")
	rec.BenefitsText = strings.Join(rec.Sections[types.SectionBenefits], " | ")
	rec.DetailsText = strings.Join(rec.Sections[types.SectionDetails], " | ")
	rec.OtherSections = otherSections(rec.Sections)

	// Features stay out of the judgement description: feature bullets are
	// keyword-dense enough to trip category matches on unrelated products.
	rec.Description = joinNonEmpty(" ",
		rec.InformationText,
		rec.DescriptionText,
		rec.SpecificationsText,
		rec.BenefitsText,
		rec.DetailsText,
	)

	return rec
}

// filterSections drops section body lines that carry no product content:
// interaction noise, price lines, seller labels and stray headers.
func filterSections(sections map[string][]string) map[string][]string {
	out := make(map[string][]string, len(sections))
	for name, body := range sections {
		var kept []string
		for _, line := range body {
			if textproc.ShouldSkip(line) {
				continue
			}
			if money.LineHasPrice(line) {
				continue
			}
			if strings.HasPrefix(strings.ToLower(line), "vendido y entregado por") {
				continue
			}
			if _, ok := extract.SectionAlias(line); ok {
				continue
			}
			kept = append(kept, line)
		}
		if len(kept) > 0 {
			out[name] = kept
		}
	}
	return out
}

func otherSections(sections map[string][]string) string {
	var names []string
	for name := range sections {
		if !columnSections[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+strings.Join(sections[name], " "))
	}
	return strings.Join(parts, "; ")
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// RenderText writes the record as the flat "Etiqueta: valor" text layout
// used for per-product txt exports.
func RenderText(rec *types.Record) string {
	var b strings.Builder
	write := func(label, value string) {
		if strings.TrimSpace(value) != "" {
			fmt.Fprintf(&b, "%s: %s\n", label, value)
		}
	}

	write("Producto", rec.ProductName)
	write("Marca", rec.Brand)
	write("Referencia", rec.Reference)
	write("Unidad", rec.Unit)
	write("Vendedor", rec.Seller)
	write("Precio", rec.PriceText)
	write("Moneda", rec.PriceCurrency)
	write("País", rec.Country)

	for _, name := range []string{
		types.SectionInformation,
		types.SectionDescription,
		types.SectionFeatures,
		types.SectionSpecifications,
		types.SectionBenefits,
		types.SectionDetails,
	} {
		body := rec.Sections[name]
		if len(body) == 0 {
			continue
		}
		b.WriteString("\n" + name + ":\n")
		for _, line := range body {
			b.WriteString("  " + line + "\n")
		}
	}
	return b.String()
}
