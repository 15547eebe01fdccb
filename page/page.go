// Package page composes a fetcher with content extraction into the
// page-level operations the crawl and report pipelines consume.
package page

import (
	"context"

	"github.com/fwojciec/locsearch"
)

var _ locsearch.PageFetcher = (*Fetcher)(nil)

// Fetcher implements locsearch.PageFetcher by combining an HTML fetcher
// with snippet extraction and main-content extraction. The primary
// extractor runs first; when it errors or yields no content, the
// fallback extractor gets a turn before the page is declared empty.
type Fetcher struct {
	HTML      locsearch.Fetcher
	Snippets  locsearch.SnippetExtractor
	Extractor locsearch.Extractor
	Fallback  locsearch.Extractor
	Converter locsearch.Converter
}

// FetchSnippet retrieves the page and extracts its title and description.
func (f *Fetcher) FetchSnippet(ctx context.Context, url string) (*locsearch.Snippet, error) {
	html, err := f.HTML.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return f.Snippets.ExtractSnippet(html)
}

// FetchFullText retrieves the page, extracts its main content, and
// converts it to markdown.
func (f *Fetcher) FetchFullText(ctx context.Context, url string) (string, error) {
	html, err := f.HTML.Fetch(ctx, url)
	if err != nil {
		return "", err
	}

	result, err := f.extract(html)
	if err != nil {
		return "", err
	}

	text, err := f.Converter.Convert(result.ContentHTML)
	if err != nil {
		return "", locsearch.Errorf(locsearch.EINTERNAL, "converting content of %s: %v", url, err)
	}
	return text, nil
}

// extract runs the primary extractor and falls back when it fails or
// comes back empty.
func (f *Fetcher) extract(html string) (*locsearch.ExtractResult, error) {
	result, err := f.Extractor.Extract(html)
	if err == nil && result.ContentHTML != "" {
		return result, nil
	}
	if f.Fallback == nil {
		if err != nil {
			return nil, err
		}
		return result, nil
	}

	fallback, fberr := f.Fallback.Extract(html)
	if fberr != nil {
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	return fallback, nil
}
