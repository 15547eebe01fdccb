// Package goquery extracts page snippets from raw HTML using CSS
// selectors.
package goquery

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/locsearch"
)

// descriptionLimit caps the length of a description derived from body
// text, in runes.
const descriptionLimit = 200

var _ locsearch.SnippetExtractor = (*SnippetExtractor)(nil)

// SnippetExtractor derives a title and description from HTML. The title
// comes from the title element or an Open Graph title; the description
// from the meta description, an Open Graph description, or as a last
// resort the opening of the page's visible text.
type SnippetExtractor struct{}

// NewSnippetExtractor creates a new SnippetExtractor.
func NewSnippetExtractor() *SnippetExtractor {
	return &SnippetExtractor{}
}

// ExtractSnippet parses HTML and returns its snippet.
func (e *SnippetExtractor) ExtractSnippet(html string) (*locsearch.Snippet, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, locsearch.Errorf(locsearch.EINVALID, "failed to parse HTML: %v", err)
	}

	snippet := &locsearch.Snippet{
		Title:       extractTitle(doc),
		Description: extractDescription(doc),
	}
	return snippet, nil
}

func extractTitle(doc *goquery.Document) string {
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if og, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
		return strings.TrimSpace(og)
	}
	return ""
}

func extractDescription(doc *goquery.Document) string {
	if desc, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		if desc = strings.TrimSpace(desc); desc != "" {
			return desc
		}
	}
	if desc, ok := doc.Find(`meta[property="og:description"]`).First().Attr("content"); ok {
		if desc = strings.TrimSpace(desc); desc != "" {
			return desc
		}
	}

	// Fall back to the opening of the visible body text. Script and
	// style contents are not visible text and must not leak in.
	body := doc.Find("body").Clone()
	body.Find("script, style, noscript").Remove()
	text := strings.Join(strings.Fields(body.Text()), " ")
	return truncateRunes(text, descriptionLimit)
}

// truncateRunes shortens s to at most limit runes without splitting a
// rune.
func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:limit]))
}
