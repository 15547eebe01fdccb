package mock

import (
	"context"

	"github.com/fwojciec/locsearch"
)

var _ locsearch.URLSource = (*URLSource)(nil)

// URLSource is a mock implementation of locsearch.URLSource.
type URLSource struct {
	DiscoverFn func(ctx context.Context, domain string, policy *locsearch.RobotsPolicy, limit int) ([]string, error)
}

func (s *URLSource) Discover(ctx context.Context, domain string, policy *locsearch.RobotsPolicy, limit int) ([]string, error) {
	return s.DiscoverFn(ctx, domain, policy, limit)
}
