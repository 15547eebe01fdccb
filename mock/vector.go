package mock

import (
	"context"

	"github.com/fwojciec/locsearch"
)

var _ locsearch.Vectorizer = (*Vectorizer)(nil)

// Vectorizer is a mock implementation of locsearch.Vectorizer.
type Vectorizer struct {
	EmbedFn     func(ctx context.Context, text string) ([]float32, error)
	DimensionFn func() int
}

func (v *Vectorizer) Embed(ctx context.Context, text string) ([]float32, error) {
	return v.EmbedFn(ctx, text)
}

func (v *Vectorizer) Dimension() int {
	return v.DimensionFn()
}

var _ locsearch.VectorSearcher = (*VectorSearcher)(nil)

// VectorSearcher is a mock implementation of locsearch.VectorSearcher.
type VectorSearcher struct {
	SearchFn func(ctx context.Context, query []float32, k int) ([]locsearch.SearchResult, error)
}

func (s *VectorSearcher) Search(ctx context.Context, query []float32, k int) ([]locsearch.SearchResult, error) {
	return s.SearchFn(ctx, query, k)
}
