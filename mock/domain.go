package mock

import (
	"context"

	"github.com/fwojciec/locsearch"
)

var _ locsearch.DomainService = (*DomainService)(nil)

// DomainService is a mock implementation of locsearch.DomainService.
type DomainService struct {
	CreateDomainFn func(ctx context.Context, domain *locsearch.Domain) error
	FindDomainsFn  func(ctx context.Context) ([]*locsearch.Domain, error)
	DeleteDomainFn func(ctx context.Context, name string) error
}

func (s *DomainService) CreateDomain(ctx context.Context, domain *locsearch.Domain) error {
	return s.CreateDomainFn(ctx, domain)
}

func (s *DomainService) FindDomains(ctx context.Context) ([]*locsearch.Domain, error) {
	return s.FindDomainsFn(ctx)
}

func (s *DomainService) DeleteDomain(ctx context.Context, name string) error {
	return s.DeleteDomainFn(ctx, name)
}
