// Package crawl provides crawl partitioning and the resumable scrape
// worker pool. The planner splits discovered records into persisted shards,
// one per worker; the pool drains shards through the page fetcher into the
// record store and reconciles unresolved work after every run.
package crawl

import "time"

// DefaultMinDelay is the politeness floor between claims on the same
// domain when robots.txt declares no crawl delay.
const DefaultMinDelay = 2 * time.Second

// DefaultMaxResumeCycles bounds how many times the pool re-plans and
// re-runs unresolved work before leaving the remaining failed records to a
// later crawl cycle.
const DefaultMaxResumeCycles = 3

// Stats holds the outcome of a pool run, including its resume cycles.
type Stats struct {
	Scraped  int
	Failed   int
	Skipped  int // already terminal when claimed (resumed shards)
	Requeued int // re-planned into follow-up shards across cycles
}
