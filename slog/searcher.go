package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/locsearch"
)

// Ensure LoggingVectorSearcher implements locsearch.VectorSearcher.
var _ locsearch.VectorSearcher = (*LoggingVectorSearcher)(nil)

// LoggingVectorSearcher wraps a VectorSearcher with debug logging.
type LoggingVectorSearcher struct {
	next   locsearch.VectorSearcher
	logger *slog.Logger
}

// NewLoggingVectorSearcher creates a new LoggingVectorSearcher.
func NewLoggingVectorSearcher(next locsearch.VectorSearcher, logger *slog.Logger) *LoggingVectorSearcher {
	return &LoggingVectorSearcher{next: next, logger: logger}
}

// Search delegates to the wrapped searcher and logs the operation.
func (s *LoggingVectorSearcher) Search(ctx context.Context, query []float32, k int) (results []locsearch.SearchResult, err error) {
	defer func(begin time.Time) {
		s.logger.Info("vector search",
			"k", k,
			"count", len(results),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Search(ctx, query, k)
}
