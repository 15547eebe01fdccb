package mock

import "github.com/fwojciec/locsearch"

var _ locsearch.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of locsearch.Extractor.
type Extractor struct {
	ExtractFn func(html string) (*locsearch.ExtractResult, error)
}

func (e *Extractor) Extract(html string) (*locsearch.ExtractResult, error) {
	return e.ExtractFn(html)
}

var _ locsearch.Converter = (*Converter)(nil)

// Converter is a mock implementation of locsearch.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}
