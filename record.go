package locsearch

import (
	"context"
	"time"
)

// Record status values. Transitions move strictly forward through
// StatusRank ordering, with the single exception of failed → assigned when
// a record is re-queued for retry.
const (
	StatusDiscovered = "discovered"
	StatusAssigned   = "assigned"
	StatusScraped    = "scraped"
	StatusFailed     = "failed"
	StatusSkipped    = "skipped" // excluded by robots rules after discovery
)

// StatusRank orders record statuses for monotonicity checks.
// Terminal statuses (scraped, failed, skipped) share the highest rank.
func StatusRank(status string) int {
	switch status {
	case StatusDiscovered:
		return 0
	case StatusAssigned:
		return 1
	case StatusScraped, StatusFailed, StatusSkipped:
		return 2
	default:
		return -1
	}
}

// Terminal reports whether a status is terminal for crawl purposes.
func Terminal(status string) bool {
	return StatusRank(status) == 2
}

// Record represents one discovered URL and everything the engine knows
// about it. The URL is the unique key; all other data is derived from it
// over the record's lifecycle.
type Record struct {
	URL        string    `json:"url"`
	Domain     string    `json:"domain"`
	Status     string    `json:"status"`
	CrawlDelay *float64  `json:"crawlDelay,omitempty"` // seconds, from robots rules
	Title      *string   `json:"title,omitempty"`
	Snippet    *string   `json:"snippet,omitempty"`
	FullText   *string   `json:"fullText,omitempty"`
	Embedding  []float32 `json:"embedding,omitempty"`
	FailReason string    `json:"failReason,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Validate returns an error if the record contains invalid fields.
func (r *Record) Validate() error {
	if r.URL == "" {
		return Errorf(EINVALID, "record URL required")
	}
	if r.Domain == "" {
		return Errorf(EINVALID, "record domain required")
	}
	if StatusRank(r.Status) < 0 {
		return Errorf(EINVALID, "unknown record status %q", r.Status)
	}
	return nil
}

// RecordStats summarizes the store by status.
type RecordStats struct {
	Discovered int `json:"discovered"`
	Assigned   int `json:"assigned"`
	Scraped    int `json:"scraped"`
	Failed     int `json:"failed"`
	Skipped    int `json:"skipped"`
	Embedded   int `json:"embedded"`
}

// Total returns the total number of records.
func (s RecordStats) Total() int {
	return s.Discovered + s.Assigned + s.Scraped + s.Failed + s.Skipped
}

// RecordService represents the durable store of crawl records. It is the
// single source of truth for crawl state and embeddings; the vector index
// is always reconstructible from it.
type RecordService interface {
	// CreateRecords inserts records at status discovered. URLs already
	// present in the store are left untouched, so re-discovery is
	// idempotent. Returns the number of records actually inserted.
	CreateRecords(ctx context.Context, records []*Record) (int, error)

	// FindRecordByURL retrieves a record by its URL.
	// Returns ENOTFOUND if the record does not exist.
	FindRecordByURL(ctx context.Context, url string) (*Record, error)

	// FindRecords retrieves records matching the filter in discovery order.
	FindRecords(ctx context.Context, filter RecordFilter) ([]*Record, error)

	// UpdateStatus moves records to a new status. Backward transitions are
	// ignored (not errors) except failed → assigned, which is allowed for
	// retry re-queueing. Returns the number of records updated.
	UpdateStatus(ctx context.Context, urls []string, status string) (int, error)

	// MarkScraped records a successful fetch. Title and snippet may be
	// empty strings for pages that fetched but yielded no usable content;
	// such records are still scraped and are never retried.
	MarkScraped(ctx context.Context, url, title, snippet string) error

	// MarkFailed records a fetch failure and its reason.
	MarkFailed(ctx context.Context, url, reason string) error

	// SaveEmbedding persists an embedding vector on a scraped record.
	// Returns ECONFLICT if the record is not scraped.
	SaveEmbedding(ctx context.Context, url string, embedding []float32) error

	// SaveFullText persists lazily fetched full text on a record.
	SaveFullText(ctx context.Context, url, fullText string) error

	// DeleteRecordsByDomain removes all records for a domain. This is the
	// only hard-delete path besides explicit store clears.
	DeleteRecordsByDomain(ctx context.Context, domain string) error

	// Stats returns per-status record counts.
	Stats(ctx context.Context) (*RecordStats, error)
}

// RecordFilter represents a filter for FindRecords.
type RecordFilter struct {
	URL      *string `json:"url"`
	Domain   *string `json:"domain"`
	Status   *string `json:"status"`
	Embedded *bool   `json:"embedded"` // embedding present / absent

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}
