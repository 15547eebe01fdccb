// Package bloom wraps a Bloom filter as the crawl frontier's seen-set.
package bloom

import "github.com/bits-and-blooms/bloom/v3"

// Filter is a probabilistic seen-set for URLs: Test can report a URL as
// seen that never was, but never the reverse.
type Filter struct {
	f *bloom.BloomFilter
}

// NewFilter sizes a filter for n expected URLs at the given false
// positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{f: bloom.NewWithEstimates(n, fpRate)}
}

// Add marks a URL as seen.
func (f *Filter) Add(url string) {
	f.f.AddString(url)
}

// Test reports whether a URL may have been seen.
func (f *Filter) Test(url string) bool {
	return f.f.TestString(url)
}

// EstimatedCount approximates how many URLs the filter holds.
func (f *Filter) EstimatedCount() uint {
	return uint(f.f.ApproximatedSize())
}
