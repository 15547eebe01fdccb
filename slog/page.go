// Package slog provides logging decorators for the domain interfaces.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/locsearch"
)

// Ensure LoggingPageFetcher implements locsearch.PageFetcher.
var _ locsearch.PageFetcher = (*LoggingPageFetcher)(nil)

// LoggingPageFetcher wraps a PageFetcher with debug logging.
type LoggingPageFetcher struct {
	next   locsearch.PageFetcher
	logger *slog.Logger
}

// NewLoggingPageFetcher creates a new LoggingPageFetcher.
func NewLoggingPageFetcher(next locsearch.PageFetcher, logger *slog.Logger) *LoggingPageFetcher {
	return &LoggingPageFetcher{next: next, logger: logger}
}

// FetchSnippet delegates to the wrapped fetcher and logs the operation.
func (f *LoggingPageFetcher) FetchSnippet(ctx context.Context, url string) (snippet *locsearch.Snippet, err error) {
	defer func(begin time.Time) {
		f.logger.Info("fetch snippet",
			"url", url,
			"empty", snippet == nil || snippet.Empty(),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return f.next.FetchSnippet(ctx, url)
}

// FetchFullText delegates to the wrapped fetcher and logs the operation.
func (f *LoggingPageFetcher) FetchFullText(ctx context.Context, url string) (text string, err error) {
	defer func(begin time.Time) {
		f.logger.Info("fetch full text",
			"url", url,
			"bytes", len(text),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return f.next.FetchFullText(ctx, url)
}
