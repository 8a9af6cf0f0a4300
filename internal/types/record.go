package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Canonical section names produced by the field extractor. Anything outside
// this set is carried under its raw heading and exported via other_sections.
const (
	SectionInformation    = "Información"
	SectionDescription    = "Descripción"
	SectionFeatures       = "Características"
	SectionSpecifications = "Especificaciones"
	SectionBenefits       = "Beneficios"
	SectionDetails        = "Detalles"
)

// CanonicalSections lists the six canonical section names in export order.
var CanonicalSections = []string{
	SectionInformation,
	SectionDescription,
	SectionFeatures,
	SectionSpecifications,
	SectionBenefits,
	SectionDetails,
}

// Language status values for a record after the translation pass.
const (
	LangOriginal   = "EN" // text was already in the target language
	LangTranslated = "ET" // at least one field was machine-translated
)

// Decision verdicts.
const (
	VerdictKeep    = "keep"
	VerdictDiscard = "discard"
)

// Sentinel categories emitted by the decision engine.
const (
	CategoryNone      = "sin_categoria"
	CategoryDiscarded = "descartado"
)

// Price holds the parsed components of a price string. Amount is nil when no
// numeric token was found; that is expected absence, not an error.
type Price struct {
	Amount   *float64
	Currency string
	Symbol   string
}

// Decision is the output of a judge: a canonical category, a keep/discard
// verdict, a flat confidence score and at least one reason code.
type Decision struct {
	Category string   `json:"category"`
	Verdict  string   `json:"verdict"`
	Score    float64  `json:"score"`
	Reasons  []string `json:"reasons"`
}

// Keep reports whether the record survived the judgement.
func (d *Decision) Keep() bool { return d != nil && d.Verdict == VerdictKeep }

// Record is one normalized product listing extracted from a single source
// page. It is assembled once; afterwards only the translation normalizer may
// rewrite text fields and only the decision stage may attach a Decision.
type Record struct {
	SourceID     string `json:"source_id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Breadcrumbs  string `json:"breadcrumbs"`
	PriceRaw     string `json:"price_raw"`
	CurrencyRaw  string `json:"currency_raw"`
	URL          string `json:"url"`
	Seller       string `json:"seller"`
	Availability string `json:"availability"`
	Country      string `json:"country"`

	ProductName string `json:"product_name"`
	Brand       string `json:"brand"`
	Reference   string `json:"reference"`
	Unit        string `json:"unit"`

	PriceAmount   *float64 `json:"price_amount"`
	PriceCurrency string   `json:"price_currency"`
	PriceSymbol   string   `json:"price_symbol"`
	PriceText     string   `json:"price_text"`

	InformationText    string `json:"information_text"`
	DescriptionText    string `json:"description_text"`
	FeaturesText       string `json:"features_text"`
	SpecificationsText string `json:"specifications_text"`
	BenefitsText       string `json:"benefits_text"`
	DetailsText        string `json:"details_text"`
	OtherSections      string `json:"other_sections"`

	Sections map[string][]string `json:"sections"`

	TxtPath    string `json:"txt_path"`
	HTMLPath   string `json:"html_path"`
	LangStatus string `json:"es_status"`

	Decision *Decision `json:"decision,omitempty"`
}

// ItemColumns is the fixed column order of the extraction dataset.
var ItemColumns = []string{
	"source_id",
	"title",
	"description",
	"breadcrumbs",
	"price_raw",
	"currency_raw",
	"url",
	"seller",
	"availability",
	"country",
	"product_name",
	"brand",
	"reference",
	"unit",
	"price_amount",
	"price_currency",
	"price_symbol",
	"price_text",
	"information_text",
	"description_text",
	"features_text",
	"specifications_text",
	"benefits_text",
	"details_text",
	"other_sections",
	"sections",
	"txt_path",
	"html_path",
	"es_status",
}

// DecisionColumns is ItemColumns plus the judgement columns appended by the
// decision stage.
var DecisionColumns = appendColumns(ItemColumns,
	"category_canonical",
	"decision",
	"match_score",
	"reasons",
)

func appendColumns(base []string, extra ...string) []string {
	out := make([]string, 0, len(base)+len(extra))
	out = append(out, base...)
	return append(out, extra...)
}

// JudgementText concatenates the fields a judge considers when classifying.
func (r *Record) JudgementText() string {
	return strings.TrimSpace(r.Title + " " + r.Description + " " + r.Breadcrumbs)
}

// HasPrice reports whether a positive price was parsed.
func (r *Record) HasPrice() bool {
	return r.PriceAmount != nil && *r.PriceAmount > 0
}

// SortKey orders records by product name (falling back to title), then by
// source id, both lowercased.
func (r *Record) SortKey() (string, string) {
	primary := strings.TrimSpace(r.ProductName)
	if primary == "" {
		primary = strings.TrimSpace(r.Title)
	}
	return strings.ToLower(primary), r.SourceID
}

// VisitText calls fn for every translatable text field. Section bodies are
// visited element by element so the normalizer can rewrite them in place.
func (r *Record) VisitText(fn func(name string, value *string)) {
	fields := []struct {
		name  string
		value *string
	}{
		{"title", &r.Title},
		{"description", &r.Description},
		{"breadcrumbs", &r.Breadcrumbs},
		{"product_name", &r.ProductName},
		{"brand", &r.Brand},
		{"reference", &r.Reference},
		{"unit", &r.Unit},
		{"price_text", &r.PriceText},
		{"information_text", &r.InformationText},
		{"description_text", &r.DescriptionText},
		{"features_text", &r.FeaturesText},
		{"specifications_text", &r.SpecificationsText},
		{"benefits_text", &r.BenefitsText},
		{"details_text", &r.DetailsText},
		{"other_sections", &r.OtherSections},
	}
	for _, f := range fields {
		fn(f.name, f.value)
	}
	for name, lines := range r.Sections {
		for i := range lines {
			fn("sections."+name, &lines[i])
		}
	}
}

// Field renders a single column value. Floats are truncated to two decimals
// and the section map is JSON-encoded, matching the dataset format.
func (r *Record) Field(column string) string {
	switch column {
	case "source_id":
		return r.SourceID
	case "title":
		return r.Title
	case "description":
		return r.Description
	case "breadcrumbs":
		return r.Breadcrumbs
	case "price_raw":
		return r.PriceRaw
	case "currency_raw":
		return r.CurrencyRaw
	case "url":
		return r.URL
	case "seller":
		return r.Seller
	case "availability":
		return r.Availability
	case "country":
		return r.Country
	case "product_name":
		return r.ProductName
	case "brand":
		return r.Brand
	case "reference":
		return r.Reference
	case "unit":
		return r.Unit
	case "price_amount":
		if r.PriceAmount == nil {
			return ""
		}
		return strconv.FormatFloat(*r.PriceAmount, 'f', 2, 64)
	case "price_currency":
		return r.PriceCurrency
	case "price_symbol":
		return r.PriceSymbol
	case "price_text":
		return r.PriceText
	case "information_text":
		return r.InformationText
	case "description_text":
		return r.DescriptionText
	case "features_text":
		return r.FeaturesText
	case "specifications_text":
		return r.SpecificationsText
	case "benefits_text":
		return r.BenefitsText
	case "details_text":
		return r.DetailsText
	case "other_sections":
		return r.OtherSections
	case "sections":
		if len(r.Sections) == 0 {
			return "{}"
		}
		b, err := json.Marshal(r.Sections)
		if err != nil {
			return "{}"
		}
		return string(b)
	case "txt_path":
		return r.TxtPath
	case "html_path":
		return r.HTMLPath
	case "es_status":
		return r.LangStatus
	case "category_canonical":
		if r.Decision == nil {
			return ""
		}
		return r.Decision.Category
	case "decision":
		if r.Decision == nil {
			return ""
		}
		return r.Decision.Verdict
	case "match_score":
		if r.Decision == nil {
			return ""
		}
		return strconv.FormatFloat(r.Decision.Score, 'f', 2, 64)
	case "reasons":
		if r.Decision == nil {
			return ""
		}
		return strings.Join(r.Decision.Reasons, ";")
	default:
		return ""
	}
}

// Row renders the record in the given column order.
func (r *Record) Row(columns []string) []string {
	row := make([]string, len(columns))
	for i, col := range columns {
		row[i] = r.Field(col)
	}
	return row
}

// RecordFromRow rebuilds a record from a tabular row. The inverse of Row up
// to the documented lossy fields (floats truncated to two decimals).
func RecordFromRow(columns, row []string) (*Record, error) {
	if len(columns) != len(row) {
		return nil, fmt.Errorf("column/row length mismatch: %d vs %d", len(columns), len(row))
	}

	rec := &Record{}
	var decision Decision
	var hasDecision bool

	for i, col := range columns {
		val := row[i]
		switch col {
		case "source_id":
			rec.SourceID = val
		case "title":
			rec.Title = val
		case "description":
			rec.Description = val
		case "breadcrumbs":
			rec.Breadcrumbs = val
		case "price_raw":
			rec.PriceRaw = val
		case "currency_raw":
			rec.CurrencyRaw = val
		case "url":
			rec.URL = val
		case "seller":
			rec.Seller = val
		case "availability":
			rec.Availability = val
		case "country":
			rec.Country = val
		case "product_name":
			rec.ProductName = val
		case "brand":
			rec.Brand = val
		case "reference":
			rec.Reference = val
		case "unit":
			rec.Unit = val
		case "price_amount":
			if val != "" {
				amount, err := strconv.ParseFloat(val, 64)
				if err != nil {
					return nil, fmt.Errorf("parse price_amount %q: %w", val, err)
				}
				rec.PriceAmount = &amount
			}
		case "price_currency":
			rec.PriceCurrency = val
		case "price_symbol":
			rec.PriceSymbol = val
		case "price_text":
			rec.PriceText = val
		case "information_text":
			rec.InformationText = val
		case "description_text":
			rec.DescriptionText = val
		case "features_text":
			rec.FeaturesText = val
		case "specifications_text":
			rec.SpecificationsText = val
		case "benefits_text":
			rec.BenefitsText = val
		case "details_text":
			rec.DetailsText = val
		case "other_sections":
			rec.OtherSections = val
		case "sections":
			if val != "" && val != "{}" {
				if err := json.Unmarshal([]byte(val), &rec.Sections); err != nil {
					return nil, fmt.Errorf("parse sections: %w", err)
				}
			}
		case "txt_path":
			rec.TxtPath = val
		case "html_path":
			rec.HTMLPath = val
		case "es_status":
			rec.LangStatus = val
		case "category_canonical":
			if val != "" {
				decision.Category = val
				hasDecision = true
			}
		case "decision":
			if val != "" {
				decision.Verdict = val
				hasDecision = true
			}
		case "match_score":
			if val != "" {
				score, err := strconv.ParseFloat(val, 64)
				if err != nil {
					return nil, fmt.Errorf("parse match_score %q: %w", val, err)
				}
				decision.Score = score
				hasDecision = true
			}
		case "reasons":
			if val != "" {
				decision.Reasons = strings.Split(val, ";")
				hasDecision = true
			}
		}
	}

	if hasDecision {
		rec.Decision = &decision
	}
	return rec, nil
}

// Clone creates a deep copy of the record.
func (r *Record) Clone() *Record {
	clone := *r
	if r.PriceAmount != nil {
		amount := *r.PriceAmount
		clone.PriceAmount = &amount
	}
	if r.Sections != nil {
		clone.Sections = make(map[string][]string, len(r.Sections))
		for k, v := range r.Sections {
			clone.Sections[k] = append([]string(nil), v...)
		}
	}
	if r.Decision != nil {
		d := *r.Decision
		d.Reasons = append([]string(nil), r.Decision.Reasons...)
		clone.Decision = &d
	}
	return &clone
}
