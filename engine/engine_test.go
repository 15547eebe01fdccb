package engine_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/locsearch"
	"github.com/fwojciec/locsearch/crawl"
	"github.com/fwojciec/locsearch/engine"
	"github.com/fwojciec/locsearch/mock"
	"github.com/fwojciec/locsearch/scan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pipeline records which stages ran, in order.
type pipeline struct {
	mu     sync.Mutex
	stages []string
}

func (p *pipeline) add(stage string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stages = append(p.stages, stage)
}

func (p *pipeline) list() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.stages...)
}

type fakeScanner struct{ p *pipeline }

func (s *fakeScanner) Scan(ctx context.Context, domain string) (*scan.Result, error) {
	s.p.add("scan:" + domain)
	return &scan.Result{}, nil
}

type fakePlanner struct {
	p   *pipeline
	err error
}

func (pl *fakePlanner) Plan(ctx context.Context, maxWorkers int) (*locsearch.ShardAssignment, error) {
	pl.p.add("plan")
	if pl.err != nil {
		return nil, pl.err
	}
	return &locsearch.ShardAssignment{ID: "a1", Generation: 1}, nil
}

type fakePool struct{ p *pipeline }

func (fp *fakePool) Run(ctx context.Context, assignment *locsearch.ShardAssignment) (*crawl.Stats, error) {
	fp.p.add("pool:" + assignment.ID)
	return &crawl.Stats{}, nil
}

type fakeBuilder struct{ p *pipeline }

func (b *fakeBuilder) Rebuild(ctx context.Context) (string, error) {
	b.p.add("rebuild")
	return "index-000001.ivfpq", nil
}

func (b *fakeBuilder) Update(ctx context.Context) (string, error) {
	b.p.add("update")
	return "index-000001.ivfpq", nil
}

type fakeReports struct{}

func (fakeReports) Synthesize(ctx context.Context, urls []string) (*locsearch.Report, error) {
	return &locsearch.Report{Key: locsearch.ReportKey(urls), URLs: urls, Text: "report text"}, nil
}

func testEngine(p *pipeline) *engine.Engine {
	return &engine.Engine{
		Domains: &mock.DomainService{
			FindDomainsFn: func(ctx context.Context) ([]*locsearch.Domain, error) {
				return []*locsearch.Domain{{Name: "example.com"}}, nil
			},
		},
		Scanner: &fakeScanner{p: p},
		Planner: &fakePlanner{p: p},
		Pool:    &fakePool{p: p},
		Shards: &mock.ShardService{
			FindOpenAssignmentFn: func(ctx context.Context) (*locsearch.ShardAssignment, error) {
				return nil, locsearch.Errorf(locsearch.ENOTFOUND, "assignment not found")
			},
		},
		Builder: &fakeBuilder{p: p},
		Vectors: &mock.Vectorizer{
			EmbedFn: func(ctx context.Context, text string) ([]float32, error) {
				return []float32{1, 0}, nil
			},
			DimensionFn: func() int { return 2 },
		},
		Searcher: &mock.VectorSearcher{
			SearchFn: func(ctx context.Context, query []float32, k int) ([]locsearch.SearchResult, error) {
				return []locsearch.SearchResult{{URL: "https://example.com/a", Score: 0.1}}, nil
			},
		},
		Reports: fakeReports{},
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func waitForState(t *testing.T, e *engine.Engine, want locsearch.State) {
	t.Helper()
	require.Eventually(t, func() bool {
		return e.State() == want
	}, 2*time.Second, 5*time.Millisecond)
}

func TestEngine_ChangeState(t *testing.T) {
	t.Parallel()

	t.Run("valid transitions", func(t *testing.T) {
		t.Parallel()

		e := testEngine(&pipeline{})
		assert.Equal(t, locsearch.StateHalt, e.State())
		require.NoError(t, e.ChangeState(locsearch.StateSearch))
		require.NoError(t, e.ChangeState(locsearch.StateHalt))
		require.NoError(t, e.ChangeState(locsearch.StateIndex))
		require.NoError(t, e.ChangeState(locsearch.StateShutdown))
	})

	t.Run("invalid transition is ECONFLICT and state is retained", func(t *testing.T) {
		t.Parallel()

		e := testEngine(&pipeline{})
		require.NoError(t, e.ChangeState(locsearch.StateSearch))

		err := e.ChangeState(locsearch.StateIndex)
		assert.Equal(t, locsearch.ECONFLICT, locsearch.ErrorCode(err))
		assert.Equal(t, locsearch.StateSearch, e.State())
	})

	t.Run("self transition is rejected", func(t *testing.T) {
		t.Parallel()

		e := testEngine(&pipeline{})
		err := e.ChangeState(locsearch.StateHalt)
		assert.Equal(t, locsearch.ECONFLICT, locsearch.ErrorCode(err))
	})
}

func TestEngine_Run_Index(t *testing.T) {
	t.Parallel()

	p := &pipeline{}
	e := testEngine(p)

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	require.NoError(t, e.ChangeState(locsearch.StateIndex))
	waitForState(t, e, locsearch.StateHalt)

	assert.Equal(t, []string{"scan:example.com", "plan", "pool:a1", "rebuild"}, p.list())

	require.NoError(t, e.ChangeState(locsearch.StateShutdown))
	require.NoError(t, <-done)
}

func TestEngine_Run_DrainsOpenAssignmentFirst(t *testing.T) {
	t.Parallel()

	// An assignment left open by a dead process is run to completion
	// before any new work is planned.
	p := &pipeline{}
	e := testEngine(p)

	var mu sync.Mutex
	drained := false
	e.Shards = &mock.ShardService{
		FindOpenAssignmentFn: func(ctx context.Context) (*locsearch.ShardAssignment, error) {
			mu.Lock()
			defer mu.Unlock()
			if drained {
				return nil, locsearch.Errorf(locsearch.ENOTFOUND, "assignment not found")
			}
			drained = true
			return &locsearch.ShardAssignment{
				ID:         "stale",
				Generation: 7,
				Shards:     []locsearch.Shard{{Worker: 0, URLs: []string{"https://example.com/a"}}},
			}, nil
		},
	}

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	require.NoError(t, e.ChangeState(locsearch.StateIndex))
	waitForState(t, e, locsearch.StateHalt)

	assert.Equal(t, []string{"pool:stale", "scan:example.com", "plan", "pool:a1", "rebuild"}, p.list())

	require.NoError(t, e.ChangeState(locsearch.StateShutdown))
	require.NoError(t, <-done)
}

func TestEngine_Run_NothingToCrawl(t *testing.T) {
	t.Parallel()

	p := &pipeline{}
	e := testEngine(p)
	e.Planner = &fakePlanner{p: p, err: locsearch.Errorf(locsearch.ENOTFOUND, "no pending records")}

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	require.NoError(t, e.ChangeState(locsearch.StateIndex))
	waitForState(t, e, locsearch.StateHalt)

	// The build still runs over whatever the store already holds.
	assert.Equal(t, []string{"scan:example.com", "plan", "rebuild"}, p.list())

	require.NoError(t, e.ChangeState(locsearch.StateShutdown))
	require.NoError(t, <-done)
}

func TestEngine_Run_Search(t *testing.T) {
	t.Parallel()

	t.Run("query produces results and loop re-enters", func(t *testing.T) {
		t.Parallel()

		e := testEngine(&pipeline{})
		done := make(chan error, 1)
		go func() { done <- e.Run(context.Background()) }()

		require.NoError(t, e.ChangeState(locsearch.StateSearch))
		require.NoError(t, e.InsertQuery(locsearch.Query{Text: "sourdough", K: 5}))

		require.Eventually(t, func() bool {
			_, err := e.Results()
			return err == nil
		}, 2*time.Second, 5*time.Millisecond)

		results, err := e.Results()
		require.NoError(t, err)
		require.Len(t, results.Matches, 1)
		assert.Equal(t, "https://example.com/a", results.Matches[0].URL)
		assert.Nil(t, results.Report)

		// The loop accepts further queries without a state change.
		require.NoError(t, e.InsertQuery(locsearch.Query{Text: "rye", K: 3}))
		require.Eventually(t, func() bool {
			r, err := e.Results()
			return err == nil && r.Query.Text == "rye"
		}, 2*time.Second, 5*time.Millisecond)

		require.NoError(t, e.ChangeState(locsearch.StateShutdown))
		require.NoError(t, <-done)
	})

	t.Run("report flag synthesizes over the matches", func(t *testing.T) {
		t.Parallel()

		e := testEngine(&pipeline{})
		done := make(chan error, 1)
		go func() { done <- e.Run(context.Background()) }()

		require.NoError(t, e.ChangeState(locsearch.StateSearch))
		require.NoError(t, e.InsertQuery(locsearch.Query{Text: "sourdough", K: 5, Report: true}))

		require.Eventually(t, func() bool {
			r, err := e.Results()
			return err == nil && r.Report != nil
		}, 2*time.Second, 5*time.Millisecond)

		results, err := e.Results()
		require.NoError(t, err)
		assert.Equal(t, "report text", results.Report.Text)
		assert.Equal(t, []string{"https://example.com/a"}, results.Report.URLs)

		require.NoError(t, e.ChangeState(locsearch.StateShutdown))
		require.NoError(t, <-done)
	})

	t.Run("rejects queries outside search mode", func(t *testing.T) {
		t.Parallel()

		e := testEngine(&pipeline{})
		err := e.InsertQuery(locsearch.Query{Text: "q", K: 1})
		assert.Equal(t, locsearch.EINVALID, locsearch.ErrorCode(err))
	})

	t.Run("rejects invalid queries", func(t *testing.T) {
		t.Parallel()

		e := testEngine(&pipeline{})
		err := e.InsertQuery(locsearch.Query{Text: "", K: 1})
		assert.Equal(t, locsearch.EINVALID, locsearch.ErrorCode(err))
	})
}

func TestEngine_Run_Shutdown(t *testing.T) {
	t.Parallel()

	t.Run("shutdown persists the index", func(t *testing.T) {
		t.Parallel()

		p := &pipeline{}
		e := testEngine(p)
		done := make(chan error, 1)
		go func() { done <- e.Run(context.Background()) }()

		require.NoError(t, e.ChangeState(locsearch.StateShutdown))
		require.NoError(t, <-done)
		assert.Contains(t, p.list(), "update")
	})

	t.Run("context cancellation shuts down", func(t *testing.T) {
		t.Parallel()

		p := &pipeline{}
		e := testEngine(p)
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- e.Run(ctx) }()

		cancel()
		require.NoError(t, <-done)
		assert.Contains(t, p.list(), "update")
	})
}
