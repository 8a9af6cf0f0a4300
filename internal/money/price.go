// Package money parses free-text price strings from retail pages into a
// numeric amount, a currency code and a display symbol, and infers the
// country of sale from the currency.
package money

import (
	"regexp"
	"strconv"
	"strings"

	"mercascan/internal/types"
)

var (
	// priceRe captures an optional symbol prefix and a numeric token in
	// either thousands convention: "$1.234,56", "S/ 10.50", "1,234.56".
	priceRe = regexp.MustCompile(`(?i)(?P<symbol>[$€£₡S/RD.Bs]*\s?)(?P<amount>\d{1,3}(?:[.,]\d{3})*(?:[.,]\d{2})|\d+)`)

	// parenCodeRe captures an explicit parenthetical code: "(COP)", "(USD)".
	parenCodeRe = regexp.MustCompile(`\(([A-Z]{2,5})\)`)
)

// CurrencyIndicators are the substrings that mark a line as price-bearing.
var CurrencyIndicators = []string{
	"$", "€", "£", "₡", "₲", "₱", "S/", "RD$", "US$", "Bs", "R$", "Q",
}

var symbolToCurrency = map[string]string{
	"S/":  "PEN",
	"RD$": "DOP",
	"US$": "USD",
	"R$":  "BRL",
	"Bs":  "VES",
	"Bs.": "VES",
	"₡":   "CRC",
	"¢":   "CRC",
	"Q":   "GTQ",
	"₲":   "PYG",
	"C$":  "NIO",
	"L":   "HNL",
}

var currencyToCountry = map[string]string{
	"ARS": "AR",
	"BRL": "BR",
	"BOB": "BO",
	"CLP": "CL",
	"COP": "CO",
	"CRC": "CR",
	"DOP": "DO",
	"GTQ": "GT",
	"MXN": "MX",
	"PAB": "PA",
	"PEN": "PE",
	"PYG": "PY",
	"USD": "US",
	"UYU": "UY",
	"VES": "VE",
	"HNL": "HN",
	"NIO": "NI",
	"SVC": "SV",
}

// ParseAmount normalizes a numeric token in either separator convention and
// parses it. When both separators appear the rightmost one is decimal; a
// lone comma is decimal only when followed by one or two digits. Returns nil
// when the token does not parse — expected for non-priced text.
func ParseAmount(s string) *float64 {
	if s == "" {
		return nil
	}
	cleaned := strings.ReplaceAll(s, " ", "")

	hasComma := strings.Contains(cleaned, ",")
	hasDot := strings.Contains(cleaned, ".")

	switch {
	case hasComma && hasDot:
		if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case hasComma:
		parts := strings.Split(cleaned, ",")
		if n := len(parts[len(parts)-1]); n == 1 || n == 2 {
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	}

	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &amount
}

// Parse extracts the price components from free text. The optional hint
// (e.g. a currency code found in embedded page metadata) seeds the currency;
// an explicit parenthetical code overrides it. Unparsable amounts yield a
// nil Amount, never an error.
func Parse(text, hint string) types.Price {
	price := types.Price{}
	if hint != "" {
		price.Currency = strings.ToUpper(hint)
	}
	if strings.TrimSpace(text) == "" {
		return price
	}
	text = strings.TrimSpace(text)

	if loc := parenCodeRe.FindStringSubmatchIndex(text); loc != nil {
		price.Currency = strings.ToUpper(text[loc[2]:loc[3]])
		text = strings.TrimSpace(text[:loc[0]])
	}

	if m := priceRe.FindStringSubmatch(text); m != nil {
		price.Symbol = strings.TrimSpace(m[1])
		price.Amount = ParseAmount(strings.TrimSpace(m[2]))
	}

	if price.Currency == "" && price.Symbol != "" {
		if code, ok := symbolToCurrency[price.Symbol]; ok {
			price.Currency = code
		} else if code, ok := symbolToCurrency[strings.TrimRight(price.Symbol, ".")]; ok {
			price.Currency = code
		}
	}

	return price
}

// CountryForCurrency maps a currency code to an ISO country code. Unknown
// codes yield the empty string.
func CountryForCurrency(code string) string {
	if code == "" {
		return ""
	}
	return currencyToCountry[strings.ToUpper(code)]
}

// LineHasPrice reports whether a line contains a currency indicator together
// with a numeric token.
func LineHasPrice(line string) bool {
	if !hasCurrencyIndicator(line) {
		return false
	}
	return priceRe.MatchString(line)
}

// ExtractPriceText returns "symbol+amount" for the first priced line whose
// numeric portion is not all zeros, guarding against placeholder "$0.00".
func ExtractPriceText(line string) (string, bool) {
	if !hasCurrencyIndicator(line) {
		return "", false
	}
	m := priceRe.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	symbol := strings.TrimSpace(m[1])
	amount := strings.TrimSpace(m[2])

	digits := strings.NewReplacer("0", "", ".", "", ",", "").Replace(amount)
	if digits == "" {
		return "", false
	}
	return strings.TrimSpace(symbol + amount), true
}

func hasCurrencyIndicator(line string) bool {
	for _, ind := range CurrencyIndicators {
		if strings.Contains(line, ind) {
			return true
		}
	}
	return false
}
