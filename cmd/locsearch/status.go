package main

import (
	"fmt"

	"github.com/fwojciec/locsearch"
)

// Run executes the status command.
func (c *StatusCmd) Run(deps *Dependencies) error {
	stats, err := deps.Records.Stats(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", locsearch.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "records:    %d\n", stats.Total())
	fmt.Fprintf(deps.Stdout, "discovered: %d\n", stats.Discovered)
	fmt.Fprintf(deps.Stdout, "assigned:   %d\n", stats.Assigned)
	fmt.Fprintf(deps.Stdout, "scraped:    %d\n", stats.Scraped)
	fmt.Fprintf(deps.Stdout, "failed:     %d\n", stats.Failed)
	fmt.Fprintf(deps.Stdout, "skipped:    %d\n", stats.Skipped)
	fmt.Fprintf(deps.Stdout, "embedded:   %d\n", stats.Embedded)

	gen, err := deps.Index.CurrentGeneration()
	if err != nil {
		if locsearch.ErrorCode(err) == locsearch.ENOTFOUND {
			fmt.Fprintln(deps.Stdout, "index:      none")
			return nil
		}
		return err
	}
	fmt.Fprintf(deps.Stdout, "index:      generation %d\n", gen)
	return nil
}
