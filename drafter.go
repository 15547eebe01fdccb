package locsearch

import "context"

// Drafter turns prompt text into prose. Implementations wrap a large
// language model.
type Drafter interface {
	// Draft generates prose from the prompt text.
	Draft(ctx context.Context, prompt string) (string, error)
}
