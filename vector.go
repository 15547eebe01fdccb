package locsearch

import "context"

// Vectorizer produces fixed-dimension embedding vectors from text.
type Vectorizer interface {
	// Embed returns the embedding vector for the text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the fixed output dimension D.
	Dimension() int
}

// SearchResult is one approximate nearest-neighbor match.
type SearchResult struct {
	URL   string  `json:"url"`
	Score float32 `json:"score"` // approximate squared L2 distance, lower is closer
}

// VectorSearcher queries a vector index for the k nearest records.
type VectorSearcher interface {
	// Search returns at most k results ordered by ascending approximate
	// distance, ties broken by URL lexical order. Fewer than k results are
	// returned when the probed posting lists hold fewer eligible entries.
	Search(ctx context.Context, query []float32, k int) ([]SearchResult, error)
}

// IndexParams fixes the IVF-PQ layout for one index generation.
type IndexParams struct {
	Dim    int `json:"dim"`    // embedding dimension D
	NList  int `json:"nlist"`  // coarse centroids
	M      int `json:"m"`      // PQ sub-quantizers, each D/M dims at 8 bits
	NProbe int `json:"nprobe"` // coarse cells visited per query
}

// DefaultIndexParams mirrors the IVF4096,PQ32x8 layout with nprobe 8 that
// the index was originally tuned for. NList and the PQ codebook sizes are
// clamped to the corpus size at train time.
func DefaultIndexParams(dim int) IndexParams {
	return IndexParams{
		Dim:    dim,
		NList:  4096,
		M:      32,
		NProbe: 8,
	}
}

// Validate returns an error if the parameters are inconsistent.
func (p IndexParams) Validate() error {
	if p.Dim <= 0 {
		return Errorf(EINVALID, "index dimension must be positive")
	}
	if p.NList <= 0 {
		return Errorf(EINVALID, "nlist must be positive")
	}
	if p.M <= 0 || p.Dim%p.M != 0 {
		return Errorf(EINVALID, "m must divide dimension %d evenly", p.Dim)
	}
	if p.NProbe <= 0 || p.NProbe > p.NList {
		return Errorf(EINVALID, "nprobe must be in [1, nlist]")
	}
	return nil
}
