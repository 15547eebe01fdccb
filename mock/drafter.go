package mock

import (
	"context"

	"github.com/fwojciec/locsearch"
)

var _ locsearch.Drafter = (*Drafter)(nil)

// Drafter is a mock implementation of locsearch.Drafter.
type Drafter struct {
	DraftFn func(ctx context.Context, prompt string) (string, error)
}

func (d *Drafter) Draft(ctx context.Context, prompt string) (string, error) {
	return d.DraftFn(ctx, prompt)
}

var _ locsearch.TokenCounter = (*TokenCounter)(nil)

// TokenCounter is a mock implementation of locsearch.TokenCounter.
type TokenCounter struct {
	CountTokensFn func(ctx context.Context, text string) (int, error)
}

func (c *TokenCounter) CountTokens(ctx context.Context, text string) (int, error) {
	return c.CountTokensFn(ctx, text)
}
