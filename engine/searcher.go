package engine

import (
	"context"

	"github.com/fwojciec/locsearch"
	"github.com/fwojciec/locsearch/fs"
	"github.com/fwojciec/locsearch/ivfpq"
)

var _ locsearch.VectorSearcher = (*GenerationSearcher)(nil)

// GenerationSearcher serves searches from whatever index generation is
// committed at query time. Each query opens the current generation file,
// so a build committed between queries is picked up without coordination
// with the builder.
type GenerationSearcher struct {
	Store *fs.Store
}

// Search queries the committed generation. Returns ENOTFOUND when no
// generation has been built yet.
func (s *GenerationSearcher) Search(ctx context.Context, query []float32, k int) ([]locsearch.SearchResult, error) {
	path, err := s.Store.CurrentPath()
	if err != nil {
		return nil, err
	}

	reader, err := ivfpq.Open(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	return reader.Search(ctx, query, k)
}
