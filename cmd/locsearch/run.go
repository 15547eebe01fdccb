package main

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/locsearch"
	"golang.org/x/sync/errgroup"
)

// Run executes the run command: an interactive loop over the engine
// state machine.
func (c *RunCmd) Run(deps *Dependencies) error {
	if c.Workers > 0 {
		deps.Engine.MaxWorkers = c.Workers
	}

	g, ctx := errgroup.WithContext(deps.Ctx)
	g.Go(func() error {
		return deps.Engine.Run(ctx)
	})

	fmt.Fprintln(deps.Stdout, "Commands: index | search TEXT | report TEXT | halt | quit")

	scanner := bufio.NewScanner(deps.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, rest, _ := strings.Cut(line, " ")

		switch cmd {
		case "quit", "exit":
			if err := deps.Engine.ChangeState(locsearch.StateShutdown); err != nil {
				fmt.Fprintf(deps.Stderr, "error: %s\n", locsearch.ErrorMessage(err))
				continue
			}
			return g.Wait()

		case "halt":
			if err := deps.Engine.ChangeState(locsearch.StateHalt); err != nil {
				fmt.Fprintf(deps.Stderr, "error: %s\n", locsearch.ErrorMessage(err))
			}

		case "index":
			if err := deps.Engine.ChangeState(locsearch.StateIndex); err != nil {
				fmt.Fprintf(deps.Stderr, "error: %s\n", locsearch.ErrorMessage(err))
				continue
			}
			fmt.Fprintln(deps.Stdout, "Indexing started.")

		case "search", "report":
			if err := c.query(deps, rest, cmd == "report"); err != nil {
				fmt.Fprintf(deps.Stderr, "error: %s\n", locsearch.ErrorMessage(err))
			}

		default:
			fmt.Fprintf(deps.Stderr, "unknown command %q\n", cmd)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	// Stdin closed: drain the engine before exiting.
	if err := deps.Engine.ChangeState(locsearch.StateShutdown); err != nil {
		return err
	}
	return g.Wait()
}

// query moves the engine into search mode if needed, injects the query,
// and waits for its results.
func (c *RunCmd) query(deps *Dependencies, text string, report bool) error {
	if strings.TrimSpace(text) == "" {
		return locsearch.Errorf(locsearch.EINVALID, "query text required")
	}

	if deps.Engine.State() != locsearch.StateSearch {
		if err := deps.Engine.ChangeState(locsearch.StateSearch); err != nil {
			return err
		}
	}

	if err := deps.Engine.InsertQuery(locsearch.Query{Text: text, K: 10, Report: report}); err != nil {
		return err
	}

	// The engine loop answers asynchronously; poll until this query's
	// results land.
	deadline := time.Now().Add(5 * time.Minute)
	for time.Now().Before(deadline) {
		results, err := deps.Engine.Results()
		if err == nil && results.Query.Text == text && results.Query.Report == report {
			if results.Report != nil {
				fmt.Fprintln(deps.Stdout, results.Report.Text)
			} else {
				fmt.Fprintln(deps.Stdout, locsearch.FormatResults(results.Matches))
			}
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return locsearch.Errorf(locsearch.EUNAVAILABLE, "query timed out")
}
