package main

import (
	"fmt"

	"github.com/fwojciec/locsearch"
)

// Run executes the search command.
func (c *SearchCmd) Run(deps *Dependencies) error {
	vec, err := deps.Vectors.Embed(deps.Ctx, c.Query)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", locsearch.ErrorMessage(err))
		return err
	}

	results, err := deps.Searcher.Search(deps.Ctx, vec, c.K)
	if err != nil {
		if locsearch.ErrorCode(err) == locsearch.ENOTFOUND {
			fmt.Fprintln(deps.Stderr, "No index built yet. Run 'locsearch index' first.")
		}
		return err
	}

	if !c.Report {
		fmt.Fprintln(deps.Stdout, locsearch.FormatResults(results))
		return nil
	}

	if len(results) == 0 {
		fmt.Fprintln(deps.Stdout, "no results")
		return nil
	}

	urls := make([]string, len(results))
	for i, r := range results {
		urls[i] = r.URL
	}
	rep, err := deps.Reports.Synthesize(deps.Ctx, urls)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", locsearch.ErrorMessage(err))
		return err
	}

	fmt.Fprintln(deps.Stdout, rep.Text)
	return nil
}
