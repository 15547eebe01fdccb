package crawl

import (
	"context"

	"github.com/fwojciec/locsearch"
)

// Planner splits discovered records into persisted shard assignments.
type Planner struct {
	Records locsearch.RecordService
	Shards  locsearch.ShardService
}

// Plan partitions all current discovered records into
// min(maxWorkers, record count) shards of near-equal size and persists the
// assignment. The assignment rows and the assigned status updates commit in
// one transaction (the shard service's contract).
//
// Records are distributed round-robin in discovery order, so the split is
// deterministic for a given store state.
func (p *Planner) Plan(ctx context.Context, maxWorkers int) (*locsearch.ShardAssignment, error) {
	if maxWorkers <= 0 {
		return nil, locsearch.Errorf(locsearch.EINVALID, "max workers must be positive")
	}

	status := locsearch.StatusDiscovered
	records, err := p.Records.FindRecords(ctx, locsearch.RecordFilter{Status: &status})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, locsearch.Errorf(locsearch.ENOTFOUND, "no discovered records to plan")
	}

	urls := make([]string, len(records))
	for i, rec := range records {
		urls[i] = rec.URL
	}

	assignment := PartitionURLs(urls, maxWorkers)
	if err := p.Shards.CreateAssignment(ctx, assignment); err != nil {
		return nil, err
	}
	return assignment, nil
}

// PartitionURLs splits urls round-robin into min(maxWorkers, len(urls))
// shards, preserving input order within each shard.
func PartitionURLs(urls []string, maxWorkers int) *locsearch.ShardAssignment {
	n := len(urls)
	workers := maxWorkers
	if n < workers {
		workers = n
	}

	assignment := &locsearch.ShardAssignment{
		Shards: make([]locsearch.Shard, workers),
	}
	for w := range assignment.Shards {
		assignment.Shards[w].Worker = w
	}
	for i, url := range urls {
		w := i % workers
		assignment.Shards[w].URLs = append(assignment.Shards[w].URLs, url)
	}
	return assignment
}
