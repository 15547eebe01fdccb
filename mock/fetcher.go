package mock

import (
	"context"

	"github.com/fwojciec/locsearch"
)

var _ locsearch.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of locsearch.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (string, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	return f.FetchFn(ctx, url)
}

func (f *Fetcher) Close() error {
	return f.CloseFn()
}

var _ locsearch.SnippetExtractor = (*SnippetExtractor)(nil)

// SnippetExtractor is a mock implementation of locsearch.SnippetExtractor.
type SnippetExtractor struct {
	ExtractSnippetFn func(html string) (*locsearch.Snippet, error)
}

func (e *SnippetExtractor) ExtractSnippet(html string) (*locsearch.Snippet, error) {
	return e.ExtractSnippetFn(html)
}
