package mock

import (
	"context"

	"github.com/fwojciec/locsearch"
)

var _ locsearch.ShardService = (*ShardService)(nil)

// ShardService is a mock implementation of locsearch.ShardService.
type ShardService struct {
	CreateAssignmentFn   func(ctx context.Context, assignment *locsearch.ShardAssignment) error
	FindAssignmentByIDFn func(ctx context.Context, id string) (*locsearch.ShardAssignment, error)
	FindOpenAssignmentFn func(ctx context.Context) (*locsearch.ShardAssignment, error)
	CloseAssignmentFn    func(ctx context.Context, id string) error
}

func (s *ShardService) CreateAssignment(ctx context.Context, assignment *locsearch.ShardAssignment) error {
	return s.CreateAssignmentFn(ctx, assignment)
}

func (s *ShardService) FindAssignmentByID(ctx context.Context, id string) (*locsearch.ShardAssignment, error) {
	return s.FindAssignmentByIDFn(ctx, id)
}

func (s *ShardService) FindOpenAssignment(ctx context.Context) (*locsearch.ShardAssignment, error) {
	return s.FindOpenAssignmentFn(ctx)
}

func (s *ShardService) CloseAssignment(ctx context.Context, id string) error {
	return s.CloseAssignmentFn(ctx, id)
}
