// Package engine runs the orchestration state machine tying scanning,
// crawling, index builds, and search together.
package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/fwojciec/locsearch"
	"github.com/fwojciec/locsearch/crawl"
	"github.com/fwojciec/locsearch/scan"
)

// DefaultMaxWorkers bounds the scrape worker pool per index run.
const DefaultMaxWorkers = 8

// DomainScanner seeds records for one domain.
type DomainScanner interface {
	Scan(ctx context.Context, domain string) (*scan.Result, error)
}

// CrawlPlanner partitions pending records into worker shards.
type CrawlPlanner interface {
	Plan(ctx context.Context, maxWorkers int) (*locsearch.ShardAssignment, error)
}

// CrawlRunner executes a shard assignment to completion or interruption.
type CrawlRunner interface {
	Run(ctx context.Context, assignment *locsearch.ShardAssignment) (*crawl.Stats, error)
}

// IndexBuilder produces index generations from the record store.
type IndexBuilder interface {
	Rebuild(ctx context.Context) (string, error)
	Update(ctx context.Context) (string, error)
}

// ReportSynthesizer builds a report over a URL set.
type ReportSynthesizer interface {
	Synthesize(ctx context.Context, urls []string) (*locsearch.Report, error)
}

// Results is the outcome of the most recent query.
type Results struct {
	Query   locsearch.Query
	Matches []locsearch.SearchResult
	Report  *locsearch.Report
}

// Engine is the orchestration state machine. It starts in halt; index
// mode drives scan, crawl, and index build to completion and returns to
// halt; search mode serves injected queries until moved back to halt;
// shutdown persists pending work and terminates the run loop.
//
// ChangeState, InsertQuery, and Results are safe to call from other
// goroutines while Run is executing.
type Engine struct {
	Domains  locsearch.DomainService
	Scanner  DomainScanner
	Planner  CrawlPlanner
	Pool     CrawlRunner
	Shards   locsearch.ShardService
	Builder  IndexBuilder
	Vectors  locsearch.Vectorizer
	Searcher locsearch.VectorSearcher
	Reports  ReportSynthesizer
	Logger   *slog.Logger

	// MaxWorkers bounds the crawl pool. Zero means DefaultMaxWorkers.
	MaxWorkers int

	mu      sync.Mutex
	state   locsearch.State
	results *Results

	wake    chan struct{}
	queryCh chan locsearch.Query

	initOnce sync.Once
}

func (e *Engine) init() {
	e.initOnce.Do(func() {
		e.state = locsearch.StateHalt
		e.wake = make(chan struct{}, 1)
		e.queryCh = make(chan locsearch.Query, 1)
	})
}

// State returns the current state.
func (e *Engine) State() locsearch.State {
	e.init()
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// ChangeState requests a state transition. Invalid transitions return
// ECONFLICT and leave the current state untouched.
func (e *Engine) ChangeState(next locsearch.State) error {
	e.init()
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.state.CanTransition(next) {
		return locsearch.Errorf(locsearch.ECONFLICT, "cannot transition from %s to %s", e.state, next)
	}
	e.state = next
	e.notify()
	return nil
}

// setState is the internal transition path for completions the machine
// performs itself, like index returning to halt.
func (e *Engine) setState(next locsearch.State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = next
	e.notify()
}

func (e *Engine) notify() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// InsertQuery places a query in the single-slot mailbox for the search
// loop. Returns ECONFLICT when the slot is occupied and EINVALID when
// the engine is not in search mode.
func (e *Engine) InsertQuery(query locsearch.Query) error {
	e.init()
	if err := query.Validate(); err != nil {
		return err
	}
	if e.State() != locsearch.StateSearch {
		return locsearch.Errorf(locsearch.EINVALID, "queries require search mode")
	}

	select {
	case e.queryCh <- query:
		return nil
	default:
		return locsearch.Errorf(locsearch.ECONFLICT, "a query is already pending")
	}
}

// Results returns the outcome of the most recent query, or ENOTFOUND
// when no query has completed yet.
func (e *Engine) Results() (*Results, error) {
	e.init()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.results == nil {
		return nil, locsearch.Errorf(locsearch.ENOTFOUND, "no query has completed")
	}
	return e.results, nil
}

// Run executes the state machine until shutdown. Context cancellation
// forces a shutdown pass first, so pending index work is persisted.
func (e *Engine) Run(ctx context.Context) error {
	e.init()
	for {
		switch e.State() {
		case locsearch.StateShutdown:
			return e.persist(context.WithoutCancel(ctx))

		case locsearch.StateIndex:
			if err := e.runIndex(ctx); err != nil {
				e.logger().Error("index run failed", "err", err)
			}
			e.mu.Lock()
			if e.state == locsearch.StateIndex {
				e.state = locsearch.StateHalt
			}
			e.mu.Unlock()

		case locsearch.StateSearch:
			select {
			case <-ctx.Done():
				e.setState(locsearch.StateShutdown)
			case <-e.wake:
			case query := <-e.queryCh:
				e.execute(ctx, query)
			}

		default: // halt
			select {
			case <-ctx.Done():
				e.setState(locsearch.StateShutdown)
			case <-e.wake:
			}
		}
	}
}

// IndexOnce drives one complete scan, crawl, and build pass without
// entering the state machine loop.
func (e *Engine) IndexOnce(ctx context.Context) error {
	return e.runIndex(ctx)
}

// runIndex drives scan, crawl, and build for every registered domain.
// Domains fail independently: one unreachable domain never aborts the
// rest of the run.
func (e *Engine) runIndex(ctx context.Context) error {
	if err := e.resume(ctx); err != nil {
		return err
	}

	domains, err := e.Domains.FindDomains(ctx)
	if err != nil {
		return err
	}

	for _, d := range domains {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := e.Scanner.Scan(ctx, d.Name); err != nil {
			e.logger().Warn("domain scan failed", "domain", d.Name, "err", err)
		}
	}

	assignment, err := e.Planner.Plan(ctx, e.maxWorkers())
	switch {
	case locsearch.ErrorCode(err) == locsearch.ENOTFOUND:
		e.logger().Info("nothing to crawl")
	case err != nil:
		return err
	default:
		stats, err := e.Pool.Run(ctx, assignment)
		if err != nil {
			return err
		}
		e.logger().Info("crawl finished",
			"scraped", stats.Scraped,
			"failed", stats.Failed,
			"skipped", stats.Skipped,
			"requeued", stats.Requeued,
		)
	}

	if _, err := e.Builder.Rebuild(ctx); err != nil {
		if locsearch.ErrorCode(err) == locsearch.ENOTFOUND {
			e.logger().Info("no records to index")
			return nil
		}
		return err
	}
	return nil
}

// resume drains assignments a previous process left open, so records
// marked assigned before a crash are fetched before any new work is
// planned. The pool closes each assignment it drains, so the loop
// terminates once no open assignment remains.
func (e *Engine) resume(ctx context.Context) error {
	for {
		open, err := e.Shards.FindOpenAssignment(ctx)
		if locsearch.ErrorCode(err) == locsearch.ENOTFOUND {
			return nil
		}
		if err != nil {
			return err
		}

		e.logger().Info("resuming interrupted crawl",
			"assignment", open.ID,
			"generation", open.Generation,
		)
		stats, err := e.Pool.Run(ctx, open)
		if err != nil {
			return err
		}
		e.logger().Info("interrupted crawl drained",
			"scraped", stats.Scraped,
			"failed", stats.Failed,
			"skipped", stats.Skipped,
			"requeued", stats.Requeued,
		)
	}
}

// execute answers one query and stores the outcome. Failures are logged
// and leave the previous results in place.
func (e *Engine) execute(ctx context.Context, query locsearch.Query) {
	vec, err := e.Vectors.Embed(ctx, query.Text)
	if err != nil {
		e.logger().Error("query embedding failed", "err", err)
		return
	}

	matches, err := e.Searcher.Search(ctx, vec, query.K)
	if err != nil {
		e.logger().Error("search failed", "err", err)
		return
	}

	results := &Results{Query: query, Matches: matches}
	if query.Report && len(matches) > 0 {
		urls := make([]string, len(matches))
		for i, m := range matches {
			urls[i] = m.URL
		}
		report, err := e.Reports.Synthesize(ctx, urls)
		if err != nil {
			e.logger().Error("report synthesis failed", "err", err)
			return
		}
		results.Report = report
	}

	e.mu.Lock()
	e.results = results
	e.mu.Unlock()
}

// persist flushes new embeddings into a final index generation before
// the machine terminates.
func (e *Engine) persist(ctx context.Context) error {
	_, err := e.Builder.Update(ctx)
	if err != nil && locsearch.ErrorCode(err) != locsearch.ENOTFOUND {
		return err
	}
	e.logger().Info("engine stopped")
	return nil
}

func (e *Engine) maxWorkers() int {
	if e.MaxWorkers > 0 {
		return e.MaxWorkers
	}
	return DefaultMaxWorkers
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}
