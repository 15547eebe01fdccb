package crawl

import (
	"context"
	"sync"
	"time"

	"github.com/fwojciec/locsearch"
	"golang.org/x/sync/errgroup"
)

// Pool drains shard assignments through the page fetcher into the record
// store. Runs are safe to interrupt at any point: a record's status is
// written only after its fetch fully succeeds or fully fails, so resuming
// an interrupted run simply skips records that already reached a terminal
// status.
type Pool struct {
	Records locsearch.RecordService
	Shards  locsearch.ShardService
	Pages   locsearch.PageFetcher
	Limiter *DomainLimiter

	// RetryDelays overrides the per-fetch backoff schedule. Nil means
	// DefaultRetryDelays.
	RetryDelays []time.Duration

	// MaxResumeCycles bounds reconciliation re-runs. Zero means
	// DefaultMaxResumeCycles.
	MaxResumeCycles int

	Log LogFunc
}

// Run drains every shard of the assignment concurrently, one worker per
// shard, then reconciles: keys left unresolved (worker died mid-shard, or
// failed and retryable) are re-partitioned into a follow-up assignment and
// re-run, until nothing is unresolved or the resume ceiling is hit.
// Remaining failed records are left for a later crawl cycle rather than
// blocking the pipeline.
func (p *Pool) Run(ctx context.Context, assignment *locsearch.ShardAssignment) (*Stats, error) {
	limiter := p.Limiter
	if limiter == nil {
		limiter = NewDomainLimiter(DefaultMinDelay)
	}
	cycles := p.MaxResumeCycles
	if cycles <= 0 {
		cycles = DefaultMaxResumeCycles
	}

	var stats Stats
	current := assignment
	for cycle := 0; cycle < cycles; cycle++ {
		if err := p.runOnce(ctx, current, limiter, &stats); err != nil {
			return &stats, err
		}

		unresolved, err := p.unresolved(ctx, current)
		if err != nil {
			return &stats, err
		}
		if err := p.Shards.CloseAssignment(ctx, current.ID); err != nil {
			return &stats, err
		}
		if len(unresolved) == 0 {
			return &stats, nil
		}
		if cycle == cycles-1 {
			p.logf("leaving %d unresolved records for a later cycle", len(unresolved))
			return &stats, nil
		}

		stats.Requeued += len(unresolved)
		p.logf("requeueing %d unresolved records (cycle %d)", len(unresolved), cycle+2)

		follow := PartitionURLs(unresolved, len(current.Shards))
		follow.Generation = current.Generation
		if err := p.Shards.CreateAssignment(ctx, follow); err != nil {
			return &stats, err
		}
		current = follow
	}
	return &stats, nil
}

// runOnce drains every shard concurrently. A failing record never aborts
// its shard, and a failing shard never aborts the others; only context
// cancellation stops the run.
func (p *Pool) runOnce(ctx context.Context, assignment *locsearch.ShardAssignment, limiter *DomainLimiter, stats *Stats) error {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for _, shard := range assignment.Shards {
		g.Go(func() error {
			return p.runShard(gctx, shard, limiter, &mu, stats)
		})
	}

	// On cooperative shutdown everything committed so far is durable and
	// reconciliation picks the rest up on the next run.
	return g.Wait()
}

// runShard drains one shard sequentially, honoring per-domain delays.
func (p *Pool) runShard(ctx context.Context, shard locsearch.Shard, limiter *DomainLimiter, mu *sync.Mutex, stats *Stats) error {
	for _, url := range shard.URLs {
		// Shutdown is checked before each claim.
		if err := ctx.Err(); err != nil {
			return err
		}

		rec, err := p.Records.FindRecordByURL(ctx, url)
		if locsearch.ErrorCode(err) == locsearch.ENOTFOUND {
			continue
		}
		if err != nil {
			return err
		}

		// Idempotent resumption: records resolved by a prior partial run
		// are skipped without a fetch.
		if locsearch.Terminal(rec.Status) {
			mu.Lock()
			stats.Skipped++
			mu.Unlock()
			continue
		}

		if rec.CrawlDelay != nil {
			limiter.SetDelay(rec.Domain, time.Duration(*rec.CrawlDelay*float64(time.Second)))
		}
		if err := limiter.Wait(ctx, rec.Domain); err != nil {
			return err
		}

		snippet, err := FetchWithRetryDelays(ctx, url, p.Pages.FetchSnippet, p.Log, p.RetryDelays)
		if ctx.Err() != nil {
			// Interrupted mid-fetch: persist nothing, leave the record
			// non-terminal for the next run.
			return ctx.Err()
		}
		if err != nil {
			if serr := p.Records.MarkFailed(ctx, url, err.Error()); serr != nil {
				return serr
			}
			mu.Lock()
			stats.Failed++
			mu.Unlock()
			p.logf("failed %s: %v", url, err)
			continue
		}

		// An empty snippet from a successful fetch is permanent content,
		// not a failure; marking it scraped keeps it from being retried.
		if err := p.Records.MarkScraped(ctx, url, snippet.Title, snippet.Description); err != nil {
			return err
		}
		mu.Lock()
		stats.Scraped++
		mu.Unlock()
	}
	return nil
}

// unresolved returns the assignment's keys that still need work: records
// left non-terminal by an interrupted worker plus retryable failures.
func (p *Pool) unresolved(ctx context.Context, assignment *locsearch.ShardAssignment) ([]string, error) {
	var unresolved []string
	for _, shard := range assignment.Shards {
		for _, url := range shard.URLs {
			rec, err := p.Records.FindRecordByURL(ctx, url)
			if locsearch.ErrorCode(err) == locsearch.ENOTFOUND {
				continue
			}
			if err != nil {
				return nil, err
			}
			switch rec.Status {
			case locsearch.StatusDiscovered, locsearch.StatusAssigned, locsearch.StatusFailed:
				unresolved = append(unresolved, url)
			}
		}
	}
	return unresolved, nil
}

func (p *Pool) logf(format string, args ...any) {
	if p.Log != nil {
		p.Log(format, args...)
	}
}
