package mock

import (
	"context"

	"github.com/fwojciec/locsearch"
)

var _ locsearch.RobotsService = (*RobotsService)(nil)

// RobotsService is a mock implementation of locsearch.RobotsService.
type RobotsService struct {
	FetchPolicyFn func(ctx context.Context, domain string) (*locsearch.RobotsPolicy, error)
}

func (s *RobotsService) FetchPolicy(ctx context.Context, domain string) (*locsearch.RobotsPolicy, error) {
	return s.FetchPolicyFn(ctx, domain)
}
