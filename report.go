package locsearch

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Report is a synthesized multi-document report plus the per-chunk
// intermediate summaries it was staged from.
type Report struct {
	Key       string    `json:"key"`
	URLs      []string  `json:"urls"`
	Text      string    `json:"text"`
	Summaries []string  `json:"summaries"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReportKey derives the cache key for a report request: the xxhash of the
// sorted, deduplicated URL set. Requests over the same set in any order
// share a key.
func ReportKey(urls []string) string {
	uniq := make([]string, 0, len(urls))
	seen := make(map[string]bool, len(urls))
	for _, u := range urls {
		if !seen[u] {
			seen[u] = true
			uniq = append(uniq, u)
		}
	}
	sort.Strings(uniq)

	h := xxhash.New()
	for _, u := range uniq {
		_, _ = h.WriteString(u)
		_, _ = h.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// ReportService caches synthesized reports keyed by URL set.
type ReportService interface {
	// SaveReport persists a report and its chunk summaries.
	SaveReport(ctx context.Context, report *Report) error

	// FindReportByKey retrieves a cached report.
	// Returns ENOTFOUND on a cache miss.
	FindReportByKey(ctx context.Context, key string) (*Report, error)

	// ClearReports drops the entire cache. This is the only invalidation
	// path.
	ClearReports(ctx context.Context) error
}
