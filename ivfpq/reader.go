package ivfpq

import (
	"context"

	"github.com/fwojciec/locsearch"
	"golang.org/x/exp/mmap"
)

var _ locsearch.VectorSearcher = (*Reader)(nil)

// Reader serves searches from a committed generation file. The file is
// memory-mapped: centroids and codebooks are decoded eagerly since they
// are small and touched on every query, posting lists are read from the
// mapped region only when their cell is probed.
//
// Reader is safe for concurrent use. It holds a consistent view of its
// generation even after a newer one is committed.
type Reader struct {
	f      *mmap.ReaderAt
	layout *layout
}

// Open memory-maps a generation file and decodes its layout.
func Open(path string) (*Reader, error) {
	f, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	l, err := parseLayout(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Reader{f: f, layout: l}, nil
}

// Close unmaps the generation file.
func (r *Reader) Close() error {
	return r.f.Close()
}

// Params returns the generation's index parameters.
func (r *Reader) Params() locsearch.IndexParams {
	return r.layout.params
}

// Len returns the number of indexed vectors in the generation.
func (r *Reader) Len() int {
	return r.layout.total
}

// Search returns at most k results from the nprobe nearest cells,
// ordered by ascending approximate squared L2 distance with ties broken
// by URL. Results are deterministic for a fixed generation.
func (r *Reader) Search(ctx context.Context, query []float32, k int) ([]locsearch.SearchResult, error) {
	if len(query) != r.layout.params.Dim {
		return nil, locsearch.Errorf(locsearch.EINVALID, "query has dimension %d, want %d", len(query), r.layout.params.Dim)
	}
	if k <= 0 {
		return nil, locsearch.Errorf(locsearch.EINVALID, "k must be positive")
	}

	table := r.layout.pq.table(query)
	var results []locsearch.SearchResult
	for _, list := range nearestCentroids(r.layout.centroids, query, r.layout.params.NProbe) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entries, err := r.layout.readList(r.f, list)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			results = append(results, locsearch.SearchResult{
				URL:   e.url,
				Score: r.layout.pq.distance(table, e.code),
			})
		}
	}

	sortResults(results)
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Load decodes an entire generation file into a mutable Index, used when
// appending to an existing generation without retraining.
func Load(path string) (*Index, error) {
	f, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	l, err := parseLayout(f)
	if err != nil {
		return nil, err
	}

	ix := &Index{
		params:    l.params,
		centroids: l.centroids,
		pq:        l.pq,
		lists:     make([][]entry, l.params.NList),
		urls:      make(map[string]bool, l.total),
	}
	for i := range ix.lists {
		entries, err := l.readList(f, i)
		if err != nil {
			return nil, err
		}
		ix.lists[i] = entries
		for _, e := range entries {
			ix.urls[e.url] = true
		}
	}
	return ix, nil
}
