package locsearch

import "context"

// Fetcher retrieves raw HTML from URLs.
// Implementations may use plain HTTP or browser automation for
// JavaScript-rendered content.
type Fetcher interface {
	// Fetch retrieves the HTML content of the URL.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (html string, err error)

	// Close releases fetcher resources.
	// Must be called when the Fetcher is no longer needed.
	Close() error
}

// Snippet is the lightweight content extracted from a page: its title and
// a short description. Both may be empty when a page fetches successfully
// but yields nothing usable.
type Snippet struct {
	Title       string
	Description string
}

// Empty reports whether the snippet carries no usable content.
func (s *Snippet) Empty() bool {
	return s.Title == "" && s.Description == ""
}

// SnippetExtractor derives a title and description snippet from raw HTML.
type SnippetExtractor interface {
	// ExtractSnippet parses HTML and returns its snippet. The returned
	// snippet may be empty when the page has no usable content.
	ExtractSnippet(html string) (*Snippet, error)
}

// PageFetcher is the page-level capability the crawl and report pipelines
// consume. Implementations compose a Fetcher with content extraction and
// hide extractor fallbacks and markdown conversion.
type PageFetcher interface {
	// FetchSnippet retrieves the title and description snippet of a page.
	FetchSnippet(ctx context.Context, url string) (*Snippet, error)

	// FetchFullText retrieves the main content of a page as markdown text.
	FetchFullText(ctx context.Context, url string) (string, error)
}
