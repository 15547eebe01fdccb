package engine_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/locsearch"
	"github.com/fwojciec/locsearch/crawl"
	"github.com/fwojciec/locsearch/engine"
	"github.com/fwojciec/locsearch/fs"
	"github.com/fwojciec/locsearch/ivfpq"
	"github.com/fwojciec/locsearch/mock"
	"github.com/fwojciec/locsearch/scan"
	"github.com/fwojciec/locsearch/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// harness wires the real pipeline over an in-memory store: sqlite record
// and shard services, the scanner, planner, and pool, and an IVF-PQ
// builder committing generations to a temp directory. Only the edges are
// mocked: robots, URL discovery, page fetching, and embedding.
type harness struct {
	db       *sqlite.DB
	records  *sqlite.RecordService
	shards   *sqlite.ShardService
	domains  *sqlite.DomainService
	store    *fs.Store
	searcher *engine.GenerationSearcher
	engine   *engine.Engine
}

// testVectors maps embedded texts to fixed vectors. Snippet texts embed
// as title, newline, description; queries embed verbatim.
var testVectors = map[string][]float32{
	"Alpha\nall about alpha": {1, 0, 0, 0},
	"Bravo\nall about bravo": {0, 1, 0, 0},
	"alpha":                  {0.9, 0, 0, 0},
}

func newHarness(t *testing.T, urls []string, denied string) *harness {
	t.Helper()

	db := sqlite.NewDB(":memory:")
	require.NoError(t, db.Open())
	t.Cleanup(func() { db.Close() })

	h := &harness{
		db:      db,
		records: sqlite.NewRecordService(db),
		shards:  sqlite.NewShardService(db),
		domains: sqlite.NewDomainService(db),
	}

	store, err := fs.NewStore(t.TempDir())
	require.NoError(t, err)
	h.store = store
	h.searcher = &engine.GenerationSearcher{Store: store}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	vectors := &mock.Vectorizer{
		EmbedFn: func(ctx context.Context, text string) ([]float32, error) {
			v, ok := testVectors[text]
			if !ok {
				return nil, locsearch.Errorf(locsearch.EINVALID, "no vector for %q", text)
			}
			return v, nil
		},
		DimensionFn: func() int { return 4 },
	}

	pages := &mock.PageFetcher{
		FetchSnippetFn: func(ctx context.Context, url string) (*locsearch.Snippet, error) {
			switch url {
			case "https://example.com/a":
				return &locsearch.Snippet{Title: "Alpha", Description: "all about alpha"}, nil
			case "https://example.com/b":
				return &locsearch.Snippet{Title: "Bravo", Description: "all about bravo"}, nil
			}
			return nil, locsearch.Errorf(locsearch.ENOTFOUND, "unknown page %s", url)
		},
	}

	builder := &ivfpq.Builder{
		Records: h.records,
		Vectors: vectors,
		Store:   store,
		Params:  locsearch.IndexParams{Dim: 4, NList: 2, M: 2, NProbe: 2},
		Logger:  logger,
	}

	h.engine = &engine.Engine{
		Domains: h.domains,
		Scanner: &scan.Scanner{
			Robots: &mock.RobotsService{
				FetchPolicyFn: func(ctx context.Context, domain string) (*locsearch.RobotsPolicy, error) {
					return &locsearch.RobotsPolicy{
						Test: func(path string) bool { return denied == "" || !strings.HasPrefix(path, denied) },
					}, nil
				},
			},
			Source: &mock.URLSource{
				DiscoverFn: func(ctx context.Context, domain string, policy *locsearch.RobotsPolicy, limit int) ([]string, error) {
					return urls, nil
				},
			},
			Records:  h.records,
			Frontier: crawl.NewFrontier(100, 0.01),
			Logger:   logger,
		},
		Planner: &crawl.Planner{Records: h.records, Shards: h.shards},
		Pool: &crawl.Pool{
			Records: h.records,
			Shards:  h.shards,
			Pages:   pages,
			Limiter: crawl.NewDomainLimiter(time.Millisecond),
		},
		Shards:   h.shards,
		Builder:  builder,
		Vectors:  vectors,
		Searcher: h.searcher,
		Reports:  fakeReports{},
		Logger:   logger,
	}
	return h
}

// TestEngine_IndexThenSearch drives the whole pipeline: discovery seeds
// records, the pool scrapes them, the builder commits a generation, and
// a query comes back through the committed index.
func TestEngine_IndexThenSearch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	urls := []string{
		"https://example.com/a",
		"https://example.com/b",
		"https://example.com/c",
	}
	h := newHarness(t, urls, "/c")
	require.NoError(t, h.domains.CreateDomain(ctx, &locsearch.Domain{Name: "example.com"}))

	done := make(chan error, 1)
	go func() { done <- h.engine.Run(ctx) }()

	require.NoError(t, h.engine.ChangeState(locsearch.StateIndex))
	waitForState(t, h.engine, locsearch.StateHalt)

	// The denied URL never became a record; the others were scraped.
	_, err := h.records.FindRecordByURL(ctx, "https://example.com/c")
	assert.Equal(t, locsearch.ENOTFOUND, locsearch.ErrorCode(err))
	for _, url := range urls[:2] {
		rec, err := h.records.FindRecordByURL(ctx, url)
		require.NoError(t, err)
		assert.Equal(t, locsearch.StatusScraped, rec.Status, url)
	}

	// No crawl work is left hanging.
	_, err = h.shards.FindOpenAssignment(ctx)
	assert.Equal(t, locsearch.ENOTFOUND, locsearch.ErrorCode(err))

	require.NoError(t, h.engine.ChangeState(locsearch.StateSearch))
	require.NoError(t, h.engine.InsertQuery(locsearch.Query{Text: "alpha", K: 1}))

	require.Eventually(t, func() bool {
		_, err := h.engine.Results()
		return err == nil
	}, 2*time.Second, 5*time.Millisecond)

	results, err := h.engine.Results()
	require.NoError(t, err)
	require.Len(t, results.Matches, 1)
	assert.Equal(t, "https://example.com/a", results.Matches[0].URL)

	require.NoError(t, h.engine.ChangeState(locsearch.StateShutdown))
	require.NoError(t, <-done)
}

// TestEngine_IndexOnce_ResumesAcrossRestart simulates a process dying
// between claiming work and crawling it: records marked assigned by a
// persisted assignment are drained by the next index pass even though
// nothing new is discovered.
func TestEngine_IndexOnce_ResumesAcrossRestart(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t, nil, "")
	require.NoError(t, h.domains.CreateDomain(ctx, &locsearch.Domain{Name: "example.com"}))

	// First run: discovery and planning commit, then the process dies
	// before the pool starts.
	_, err := h.records.CreateRecords(ctx, []*locsearch.Record{
		{URL: "https://example.com/a", Domain: "example.com", Status: locsearch.StatusDiscovered},
	})
	require.NoError(t, err)
	planner := &crawl.Planner{Records: h.records, Shards: h.shards}
	_, err = planner.Plan(ctx, 2)
	require.NoError(t, err)

	rec, err := h.records.FindRecordByURL(ctx, "https://example.com/a")
	require.NoError(t, err)
	require.Equal(t, locsearch.StatusAssigned, rec.Status)

	// Restart: the engine in newHarness is a fresh instance over the
	// same store. Its scan discovers nothing, so only the open
	// assignment can rescue the stranded record.
	require.NoError(t, h.engine.IndexOnce(ctx))

	rec, err = h.records.FindRecordByURL(ctx, "https://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, locsearch.StatusScraped, rec.Status)

	_, err = h.shards.FindOpenAssignment(ctx)
	assert.Equal(t, locsearch.ENOTFOUND, locsearch.ErrorCode(err))

	// The drained record made it all the way into the committed index.
	results, err := h.searcher.Search(ctx, testVectors["alpha"], 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "https://example.com/a", results[0].URL)
}
