// Package ivfpq implements an IVF-PQ approximate nearest-neighbor index:
// an inverted file of coarse k-means cells holding product-quantized
// codes, searched via asymmetric distance computation over the nprobe
// nearest cells.
package ivfpq

import (
	"context"
	"math/rand"
	"sort"

	"github.com/fwojciec/locsearch"
)

// trainSeed fixes the k-means initialization so training the same corpus
// twice yields the same index.
const trainSeed = 1

// entry is one indexed vector: its record URL and PQ code.
type entry struct {
	url  string
	code []byte
}

var _ locsearch.VectorSearcher = (*Index)(nil)

// Index is the in-memory form of the IVF-PQ index, used for training and
// building generations. Queries against a committed generation normally
// go through Reader instead; Index searches identically and serves the
// just-built generation before it is persisted.
//
// Index is not safe for concurrent mutation; a single builder owns it.
type Index struct {
	params    locsearch.IndexParams
	centroids [][]float32
	pq        *quantizer
	lists     [][]entry
	urls      map[string]bool
}

// New creates an untrained index. NList and the codebook sizes clamp to
// the training corpus at Train time.
func New(params locsearch.IndexParams) (*Index, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Index{params: params, urls: make(map[string]bool)}, nil
}

// Params returns the index's effective parameters. NList reflects the
// post-training clamp.
func (ix *Index) Params() locsearch.IndexParams {
	return ix.params
}

// Len returns the number of indexed vectors.
func (ix *Index) Len() int {
	return len(ix.urls)
}

// Has reports whether a URL is already indexed.
func (ix *Index) Has(url string) bool {
	return ix.urls[url]
}

// Trained reports whether centroids and codebooks have been learned.
func (ix *Index) Trained() bool {
	return ix.pq != nil
}

// Train learns the coarse centroids and PQ codebooks from the training
// vectors. NList clamps to the corpus size, and NProbe to the clamped
// NList. Training is deterministic for a fixed corpus.
func (ix *Index) Train(vectors [][]float32) error {
	if len(vectors) == 0 {
		return locsearch.Errorf(locsearch.EINVALID, "cannot train on an empty corpus")
	}
	for _, v := range vectors {
		if len(v) != ix.params.Dim {
			return locsearch.Errorf(locsearch.EINVALID, "training vector has dimension %d, want %d", len(v), ix.params.Dim)
		}
	}

	if ix.params.NList > len(vectors) {
		ix.params.NList = len(vectors)
	}
	if ix.params.NProbe > ix.params.NList {
		ix.params.NProbe = ix.params.NList
	}

	rng := rand.New(rand.NewSource(trainSeed))
	ix.centroids = kMeans(vectors, ix.params.NList, rng)
	ix.params.NList = len(ix.centroids)
	ix.pq = trainQuantizer(vectors, ix.params.M, rng)
	ix.lists = make([][]entry, ix.params.NList)
	return nil
}

// Add encodes a vector and appends it to the posting list of its nearest
// coarse centroid. Adding an already indexed URL is a conflict.
func (ix *Index) Add(url string, vec []float32) error {
	if !ix.Trained() {
		return locsearch.Errorf(locsearch.EINVALID, "index is not trained")
	}
	if len(vec) != ix.params.Dim {
		return locsearch.Errorf(locsearch.EINVALID, "vector has dimension %d, want %d", len(vec), ix.params.Dim)
	}
	if len(url) > maxURLLen {
		return locsearch.Errorf(locsearch.EINVALID, "URL exceeds %d bytes", maxURLLen)
	}
	if ix.urls[url] {
		return locsearch.Errorf(locsearch.ECONFLICT, "URL %q is already indexed", url)
	}

	list := nearestCentroid(ix.centroids, vec)
	ix.lists[list] = append(ix.lists[list], entry{url: url, code: ix.pq.encode(vec)})
	ix.urls[url] = true
	return nil
}

// Search returns at most k results from the nprobe nearest cells,
// ordered by ascending approximate squared L2 distance with ties broken
// by URL.
func (ix *Index) Search(ctx context.Context, query []float32, k int) ([]locsearch.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ix.Trained() {
		return nil, locsearch.Errorf(locsearch.EINVALID, "index is not trained")
	}
	if len(query) != ix.params.Dim {
		return nil, locsearch.Errorf(locsearch.EINVALID, "query has dimension %d, want %d", len(query), ix.params.Dim)
	}
	if k <= 0 {
		return nil, locsearch.Errorf(locsearch.EINVALID, "k must be positive")
	}

	table := ix.pq.table(query)
	var results []locsearch.SearchResult
	for _, list := range nearestCentroids(ix.centroids, query, ix.params.NProbe) {
		for _, e := range ix.lists[list] {
			results = append(results, locsearch.SearchResult{
				URL:   e.url,
				Score: ix.pq.distance(table, e.code),
			})
		}
	}

	sortResults(results)
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// sortResults orders by ascending score with URL as the deterministic
// tie-break.
func sortResults(results []locsearch.SearchResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score < results[j].Score
		}
		return results[i].URL < results[j].URL
	})
}
