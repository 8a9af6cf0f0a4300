// Package textproc holds the text-cleaning primitives shared by the
// extraction pipeline: accent-insensitive normalization and the line
// segmenter that turns raw body text into a deduplicated line sequence.
package textproc

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	spaceRe        = regexp.MustCompile(`\s+`)
)

// StripAccents removes combining marks: "líquida" -> "liquida".
func StripAccents(s string) string {
	out, _, err := transform.String(accentStripper, s)
	if err != nil {
		return s
	}
	return out
}

// Normalize lowercases, strips accents and collapses runs of whitespace.
// All category and keyword matching happens over this form.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(strings.TrimSpace(s))
	s = StripAccents(s)
	return spaceRe.ReplaceAllString(s, " ")
}
