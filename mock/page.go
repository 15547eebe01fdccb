package mock

import (
	"context"

	"github.com/fwojciec/locsearch"
)

var _ locsearch.PageFetcher = (*PageFetcher)(nil)

// PageFetcher is a mock implementation of locsearch.PageFetcher.
type PageFetcher struct {
	FetchSnippetFn  func(ctx context.Context, url string) (*locsearch.Snippet, error)
	FetchFullTextFn func(ctx context.Context, url string) (string, error)
}

func (f *PageFetcher) FetchSnippet(ctx context.Context, url string) (*locsearch.Snippet, error) {
	return f.FetchSnippetFn(ctx, url)
}

func (f *PageFetcher) FetchFullText(ctx context.Context, url string) (string, error) {
	return f.FetchFullTextFn(ctx, url)
}
