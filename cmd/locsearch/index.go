package main

import (
	"fmt"

	"github.com/fwojciec/locsearch"
)

// Run executes the index command.
func (c *IndexCmd) Run(deps *Dependencies) error {
	if c.Workers > 0 {
		deps.Engine.MaxWorkers = c.Workers
	}

	if err := deps.Engine.IndexOnce(deps.Ctx); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", locsearch.ErrorMessage(err))
		return err
	}

	stats, err := deps.Records.Stats(deps.Ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(deps.Stdout, "Indexed %d records (%d embedded, %d failed, %d skipped)\n",
		stats.Scraped, stats.Embedded, stats.Failed, stats.Skipped)
	return nil
}
