// Package extract turns raw product-page markup into cleaned lines and
// typed fields. Page-level helpers work on the markup; everything else
// operates purely on the cleaned line sequence.
package extract

import (
	"bytes"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"mercascan/internal/types"
)

// currencyCodeRe finds an embedded currency code in page metadata, e.g.
// `"currency":"COP"` inside a JSON-LD or dataLayer blob.
var currencyCodeRe = regexp.MustCompile(`currency"\s*:\s*"([A-Z]{3})"`)

// strippedTags are removed before body text extraction.
const strippedTags = "script, style, header, footer, nav, aside, noscript"

// PageExtractor pulls raw text lines and page metadata out of markup.
type PageExtractor struct {
	logger *slog.Logger
}

// NewPageExtractor creates a page extractor.
func NewPageExtractor(logger *slog.Logger) *PageExtractor {
	return &PageExtractor{
		logger: logger.With("component", "page_extractor"),
	}
}

// BodyLines parses the markup, drops chrome tags and returns every non-empty
// text node of the body as its own trimmed line, in document order.
func (p *PageExtractor) BodyLines(raw []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	doc.Find(strippedTags).Remove()

	body := doc.Find("body")
	if body.Length() == 0 {
		p.logger.Debug("page has no body element")
		return nil, nil
	}

	var lines []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				lines = append(lines, text)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, node := range body.Nodes {
		walk(node)
	}
	return lines, nil
}

// Title returns the document title, used when no product name could be
// derived from the body text.
func (p *PageExtractor) Title(raw []byte) string {
	doc, err := htmlquery.Parse(bytes.NewReader(raw))
	if err != nil {
		return ""
	}
	if node := htmlquery.FindOne(doc, "//head/title"); node != nil {
		return strings.TrimSpace(htmlquery.InnerText(node))
	}
	if node := htmlquery.FindOne(doc, `//meta[@property="og:title"]/@content`); node != nil {
		return strings.TrimSpace(htmlquery.InnerText(node))
	}
	return ""
}

// EmbeddedCurrency returns the first currency code found in embedded page
// metadata, or "".
func EmbeddedCurrency(raw []byte) string {
	if m := currencyCodeRe.FindSubmatch(raw); m != nil {
		return string(m[1])
	}
	return ""
}

// FromResponse extracts body lines from a fetched page.
func (p *PageExtractor) FromResponse(resp *types.Response) ([]string, error) {
	if len(resp.Body) == 0 {
		return nil, types.ErrEmptyResponse
	}
	return p.BodyLines(resp.Body)
}
