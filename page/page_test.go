package page_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fwojciec/locsearch"
	"github.com/fwojciec/locsearch/mock"
	"github.com/fwojciec/locsearch/page"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcher_FetchSnippet(t *testing.T) {
	t.Parallel()

	t.Run("fetches and extracts", func(t *testing.T) {
		t.Parallel()

		f := &page.Fetcher{
			HTML: &mock.Fetcher{
				FetchFn: func(ctx context.Context, url string) (string, error) {
					assert.Equal(t, "https://example.com/a", url)
					return "<html>raw</html>", nil
				},
			},
			Snippets: &mock.SnippetExtractor{
				ExtractSnippetFn: func(html string) (*locsearch.Snippet, error) {
					assert.Equal(t, "<html>raw</html>", html)
					return &locsearch.Snippet{Title: "T", Description: "D"}, nil
				},
			},
		}

		snippet, err := f.FetchSnippet(context.Background(), "https://example.com/a")
		require.NoError(t, err)
		assert.Equal(t, "T", snippet.Title)
		assert.Equal(t, "D", snippet.Description)
	})

	t.Run("propagates fetch error", func(t *testing.T) {
		t.Parallel()

		f := &page.Fetcher{
			HTML: &mock.Fetcher{
				FetchFn: func(ctx context.Context, url string) (string, error) {
					return "", errors.New("boom")
				},
			},
		}

		_, err := f.FetchSnippet(context.Background(), "https://example.com/a")
		assert.EqualError(t, err, "boom")
	})
}

func TestFetcher_FetchFullText(t *testing.T) {
	t.Parallel()

	newFetcher := func(primary, fallback *mock.Extractor) *page.Fetcher {
		return &page.Fetcher{
			HTML: &mock.Fetcher{
				FetchFn: func(ctx context.Context, url string) (string, error) {
					return "<html>page</html>", nil
				},
			},
			Extractor: primary,
			Fallback:  fallback,
			Converter: &mock.Converter{
				ConvertFn: func(html string) (string, error) {
					return "md:" + html, nil
				},
			},
		}
	}

	t.Run("primary extractor wins", func(t *testing.T) {
		t.Parallel()

		primary := &mock.Extractor{
			ExtractFn: func(html string) (*locsearch.ExtractResult, error) {
				return &locsearch.ExtractResult{ContentHTML: "<p>main</p>"}, nil
			},
		}
		fallback := &mock.Extractor{
			ExtractFn: func(html string) (*locsearch.ExtractResult, error) {
				t.Fatal("fallback should not run")
				return nil, nil
			},
		}

		text, err := newFetcher(primary, fallback).FetchFullText(context.Background(), "https://example.com/a")
		require.NoError(t, err)
		assert.Equal(t, "md:<p>main</p>", text)
	})

	t.Run("fallback runs when primary errors", func(t *testing.T) {
		t.Parallel()

		primary := &mock.Extractor{
			ExtractFn: func(html string) (*locsearch.ExtractResult, error) {
				return nil, errors.New("extraction failed")
			},
		}
		fallback := &mock.Extractor{
			ExtractFn: func(html string) (*locsearch.ExtractResult, error) {
				return &locsearch.ExtractResult{ContentHTML: "<p>rescued</p>"}, nil
			},
		}

		text, err := newFetcher(primary, fallback).FetchFullText(context.Background(), "https://example.com/a")
		require.NoError(t, err)
		assert.Equal(t, "md:<p>rescued</p>", text)
	})

	t.Run("fallback runs when primary is empty", func(t *testing.T) {
		t.Parallel()

		primary := &mock.Extractor{
			ExtractFn: func(html string) (*locsearch.ExtractResult, error) {
				return &locsearch.ExtractResult{}, nil
			},
		}
		fallback := &mock.Extractor{
			ExtractFn: func(html string) (*locsearch.ExtractResult, error) {
				return &locsearch.ExtractResult{ContentHTML: "<p>rescued</p>"}, nil
			},
		}

		text, err := newFetcher(primary, fallback).FetchFullText(context.Background(), "https://example.com/a")
		require.NoError(t, err)
		assert.Equal(t, "md:<p>rescued</p>", text)
	})

	t.Run("primary error surfaces when fallback also fails", func(t *testing.T) {
		t.Parallel()

		primary := &mock.Extractor{
			ExtractFn: func(html string) (*locsearch.ExtractResult, error) {
				return nil, errors.New("primary failed")
			},
		}
		fallback := &mock.Extractor{
			ExtractFn: func(html string) (*locsearch.ExtractResult, error) {
				return nil, errors.New("fallback failed")
			},
		}

		_, err := newFetcher(primary, fallback).FetchFullText(context.Background(), "https://example.com/a")
		assert.EqualError(t, err, "primary failed")
	})
}
