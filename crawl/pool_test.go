package crawl_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/locsearch"
	"github.com/fwojciec/locsearch/crawl"
	"github.com/fwojciec/locsearch/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// poolStore is an in-memory record store backing the pool tests. It
// enforces the same terminal-status rules as the SQLite implementation.
type poolStore struct {
	mu      sync.Mutex
	records map[string]*locsearch.Record
}

func newPoolStore(urls ...string) *poolStore {
	s := &poolStore{records: make(map[string]*locsearch.Record)}
	for _, url := range urls {
		s.records[url] = &locsearch.Record{
			URL:    url,
			Domain: "example.com",
			Status: locsearch.StatusAssigned,
		}
	}
	return s
}

func (s *poolStore) service() *mock.RecordService {
	return &mock.RecordService{
		FindRecordByURLFn: func(ctx context.Context, url string) (*locsearch.Record, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			rec, ok := s.records[url]
			if !ok {
				return nil, locsearch.Errorf(locsearch.ENOTFOUND, "record not found")
			}
			clone := *rec
			return &clone, nil
		},
		MarkScrapedFn: func(ctx context.Context, url, title, snippet string) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			rec, ok := s.records[url]
			if !ok {
				return locsearch.Errorf(locsearch.ENOTFOUND, "record not found")
			}
			if locsearch.Terminal(rec.Status) {
				return nil
			}
			rec.Status = locsearch.StatusScraped
			rec.Title = &title
			rec.Snippet = &snippet
			rec.FailReason = ""
			return nil
		},
		MarkFailedFn: func(ctx context.Context, url, reason string) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			rec, ok := s.records[url]
			if !ok {
				return locsearch.Errorf(locsearch.ENOTFOUND, "record not found")
			}
			if locsearch.Terminal(rec.Status) {
				return nil
			}
			rec.Status = locsearch.StatusFailed
			rec.FailReason = reason
			return nil
		},
	}
}

func (s *poolStore) status(url string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[url].Status
}

// shards emulates the shard service contract the pool relies on: creating
// an assignment re-assigns the covered discovered and failed records.
func (s *poolStore) shards(closed *[]string) *mock.ShardService {
	var n int
	return &mock.ShardService{
		CreateAssignmentFn: func(ctx context.Context, assignment *locsearch.ShardAssignment) error {
			n++
			assignment.ID = fmt.Sprintf("follow-%d", n)
			s.mu.Lock()
			defer s.mu.Unlock()
			for _, shard := range assignment.Shards {
				for _, url := range shard.URLs {
					rec, ok := s.records[url]
					if !ok {
						continue
					}
					if rec.Status == locsearch.StatusDiscovered || rec.Status == locsearch.StatusFailed {
						rec.Status = locsearch.StatusAssigned
					}
				}
			}
			return nil
		},
		CloseAssignmentFn: func(ctx context.Context, id string) error {
			if closed != nil {
				*closed = append(*closed, id)
			}
			return nil
		},
	}
}

func testAssignment(workers int, urls ...string) *locsearch.ShardAssignment {
	assignment := crawl.PartitionURLs(urls, workers)
	assignment.ID = "assignment-1"
	assignment.Generation = 1
	return assignment
}

func TestPool_Run(t *testing.T) {
	t.Parallel()

	t.Run("scrapes every record across shards", func(t *testing.T) {
		t.Parallel()

		urls := []string{"https://example.com/a", "https://example.com/b", "https://example.com/c"}
		store := newPoolStore(urls...)
		var closed []string

		pool := &crawl.Pool{
			Records: store.service(),
			Shards:  store.shards(&closed),
			Pages: &mock.PageFetcher{
				FetchSnippetFn: func(ctx context.Context, url string) (*locsearch.Snippet, error) {
					return &locsearch.Snippet{Title: "Title", Description: "Snippet"}, nil
				},
			},
			Limiter:     crawl.NewDomainLimiter(time.Millisecond),
			RetryDelays: []time.Duration{},
		}

		stats, err := pool.Run(context.Background(), testAssignment(2, urls...))
		require.NoError(t, err)
		assert.Equal(t, 3, stats.Scraped)
		assert.Zero(t, stats.Failed)
		assert.Zero(t, stats.Requeued)
		assert.Equal(t, []string{"assignment-1"}, closed)

		for _, url := range urls {
			assert.Equal(t, locsearch.StatusScraped, store.status(url))
		}
	})

	t.Run("skips records already terminal without fetching", func(t *testing.T) {
		t.Parallel()

		store := newPoolStore("https://example.com/done", "https://example.com/todo")
		store.records["https://example.com/done"].Status = locsearch.StatusScraped

		var fetched []string
		var mu sync.Mutex
		pool := &crawl.Pool{
			Records: store.service(),
			Shards:  store.shards(nil),
			Pages: &mock.PageFetcher{
				FetchSnippetFn: func(ctx context.Context, url string) (*locsearch.Snippet, error) {
					mu.Lock()
					fetched = append(fetched, url)
					mu.Unlock()
					return &locsearch.Snippet{Title: "T"}, nil
				},
			},
			Limiter:     crawl.NewDomainLimiter(time.Millisecond),
			RetryDelays: []time.Duration{},
		}

		stats, err := pool.Run(context.Background(), testAssignment(1, "https://example.com/done", "https://example.com/todo"))
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Skipped)
		assert.Equal(t, 1, stats.Scraped)
		assert.Equal(t, []string{"https://example.com/todo"}, fetched)
	})

	t.Run("empty snippet is scraped, not failed", func(t *testing.T) {
		t.Parallel()

		store := newPoolStore("https://example.com/empty")

		pool := &crawl.Pool{
			Records: store.service(),
			Shards:  store.shards(nil),
			Pages: &mock.PageFetcher{
				FetchSnippetFn: func(ctx context.Context, url string) (*locsearch.Snippet, error) {
					return &locsearch.Snippet{}, nil
				},
			},
			Limiter:     crawl.NewDomainLimiter(time.Millisecond),
			RetryDelays: []time.Duration{},
		}

		stats, err := pool.Run(context.Background(), testAssignment(1, "https://example.com/empty"))
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Scraped)
		assert.Equal(t, locsearch.StatusScraped, store.status("https://example.com/empty"))
	})

	t.Run("requeues failed records and recovers them on a later cycle", func(t *testing.T) {
		t.Parallel()

		store := newPoolStore("https://example.com/flaky")

		var calls int
		var mu sync.Mutex
		pool := &crawl.Pool{
			Records: store.service(),
			Shards:  store.shards(nil),
			Pages: &mock.PageFetcher{
				FetchSnippetFn: func(ctx context.Context, url string) (*locsearch.Snippet, error) {
					mu.Lock()
					defer mu.Unlock()
					calls++
					if calls == 1 {
						return nil, errors.New("connection reset")
					}
					return &locsearch.Snippet{Title: "Recovered"}, nil
				},
			},
			Limiter:     crawl.NewDomainLimiter(time.Millisecond),
			RetryDelays: []time.Duration{},
		}

		stats, err := pool.Run(context.Background(), testAssignment(1, "https://example.com/flaky"))
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Failed)
		assert.Equal(t, 1, stats.Requeued)
		assert.Equal(t, 1, stats.Scraped)
		assert.Equal(t, locsearch.StatusScraped, store.status("https://example.com/flaky"))
	})

	t.Run("leaves persistently failing records after the resume ceiling", func(t *testing.T) {
		t.Parallel()

		store := newPoolStore("https://example.com/broken")

		pool := &crawl.Pool{
			Records: store.service(),
			Shards:  store.shards(nil),
			Pages: &mock.PageFetcher{
				FetchSnippetFn: func(ctx context.Context, url string) (*locsearch.Snippet, error) {
					return nil, errors.New("connection refused")
				},
			},
			Limiter:         crawl.NewDomainLimiter(time.Millisecond),
			RetryDelays:     []time.Duration{},
			MaxResumeCycles: 2,
		}

		stats, err := pool.Run(context.Background(), testAssignment(1, "https://example.com/broken"))
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Failed)
		assert.Equal(t, 1, stats.Requeued)
		assert.Equal(t, locsearch.StatusFailed, store.status("https://example.com/broken"))

		rec := store.records["https://example.com/broken"]
		assert.Equal(t, "connection refused", rec.FailReason)
	})

	t.Run("cancellation mid-fetch persists nothing for the in-flight record", func(t *testing.T) {
		t.Parallel()

		store := newPoolStore("https://example.com/inflight")
		ctx, cancel := context.WithCancel(context.Background())

		pool := &crawl.Pool{
			Records: store.service(),
			Shards:  store.shards(nil),
			Pages: &mock.PageFetcher{
				FetchSnippetFn: func(ctx context.Context, url string) (*locsearch.Snippet, error) {
					cancel()
					return nil, ctx.Err()
				},
			},
			Limiter:     crawl.NewDomainLimiter(time.Millisecond),
			RetryDelays: []time.Duration{},
		}

		_, err := pool.Run(ctx, testAssignment(1, "https://example.com/inflight"))
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)

		// Still assigned: the next run claims it again.
		assert.Equal(t, locsearch.StatusAssigned, store.status("https://example.com/inflight"))
	})

	t.Run("skips URLs with no backing record", func(t *testing.T) {
		t.Parallel()

		store := newPoolStore("https://example.com/real")

		pool := &crawl.Pool{
			Records: store.service(),
			Shards:  store.shards(nil),
			Pages: &mock.PageFetcher{
				FetchSnippetFn: func(ctx context.Context, url string) (*locsearch.Snippet, error) {
					return &locsearch.Snippet{Title: "T"}, nil
				},
			},
			Limiter:     crawl.NewDomainLimiter(time.Millisecond),
			RetryDelays: []time.Duration{},
		}

		stats, err := pool.Run(context.Background(), testAssignment(1, "https://example.com/real", "https://example.com/ghost"))
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Scraped)
	})

	t.Run("honors the per-record crawl delay", func(t *testing.T) {
		t.Parallel()

		store := newPoolStore("https://example.com/a", "https://example.com/b")
		delay := 0.05 // 50ms
		store.records["https://example.com/a"].CrawlDelay = &delay
		store.records["https://example.com/b"].CrawlDelay = &delay

		pool := &crawl.Pool{
			Records: store.service(),
			Shards:  store.shards(nil),
			Pages: &mock.PageFetcher{
				FetchSnippetFn: func(ctx context.Context, url string) (*locsearch.Snippet, error) {
					return &locsearch.Snippet{Title: "T"}, nil
				},
			},
			Limiter:     crawl.NewDomainLimiter(time.Millisecond),
			RetryDelays: []time.Duration{},
		}

		start := time.Now()
		stats, err := pool.Run(context.Background(), testAssignment(1, "https://example.com/a", "https://example.com/b"))
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Scraped)
		assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	})
}
