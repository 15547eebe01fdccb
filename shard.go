package locsearch

import (
	"context"
	"time"
)

// Shard is a disjoint, ordered partition of crawl work assigned to one
// worker. The key sequence is immutable once persisted.
type Shard struct {
	Worker int      `json:"worker"`
	URLs   []string `json:"urls"`
}

// ShardAssignment maps workers to shards for one scan generation. It is
// persisted before any fetch begins so that a crash cannot silently drop
// assigned work.
type ShardAssignment struct {
	ID         string    `json:"id"`
	Generation int       `json:"generation"`
	Shards     []Shard   `json:"shards"`
	CreatedAt  time.Time `json:"createdAt"`
}

// URLCount returns the total number of URLs across all shards.
func (a *ShardAssignment) URLCount() int {
	var n int
	for _, s := range a.Shards {
		n += len(s.URLs)
	}
	return n
}

// Validate returns an error if the assignment contains invalid fields.
func (a *ShardAssignment) Validate() error {
	if len(a.Shards) == 0 {
		return Errorf(EINVALID, "assignment requires at least one shard")
	}
	seen := make(map[string]bool)
	for _, s := range a.Shards {
		for _, url := range s.URLs {
			if seen[url] {
				return Errorf(EINVALID, "url %q appears in more than one shard", url)
			}
			seen[url] = true
		}
	}
	return nil
}

// ShardService persists shard assignments. CreateAssignment must commit the
// assignment rows and the assigned status updates of the covered records in
// a single transaction.
type ShardService interface {
	// CreateAssignment persists the assignment and marks every covered
	// record assigned, atomically.
	CreateAssignment(ctx context.Context, assignment *ShardAssignment) error

	// FindAssignmentByID retrieves an assignment by ID.
	// Returns ENOTFOUND if it does not exist.
	FindAssignmentByID(ctx context.Context, id string) (*ShardAssignment, error)

	// FindOpenAssignment returns the most recent assignment that still has
	// non-terminal records, for crash resumption.
	// Returns ENOTFOUND if every assignment is fully resolved.
	FindOpenAssignment(ctx context.Context) (*ShardAssignment, error)

	// CloseAssignment marks an assignment fully resolved.
	CloseAssignment(ctx context.Context, id string) error
}
