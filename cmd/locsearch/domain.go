package main

import (
	"fmt"

	"github.com/fwojciec/locsearch"
)

// Run executes the domain add command.
func (c *DomainAddCmd) Run(deps *Dependencies) error {
	name := locsearch.NormalizeDomain(c.Name)
	if err := deps.Domains.CreateDomain(deps.Ctx, &locsearch.Domain{Name: name}); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", locsearch.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Tracking domain %q. Run 'locsearch index' to crawl it.\n", name)
	return nil
}

// Run executes the domain rm command.
func (c *DomainRmCmd) Run(deps *Dependencies) error {
	name := locsearch.NormalizeDomain(c.Name)
	if !c.Force {
		fmt.Fprintf(deps.Stdout, "This removes %q and all of its records. Re-run with --force to confirm.\n", name)
		return nil
	}

	if err := deps.Domains.DeleteDomain(deps.Ctx, name); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", locsearch.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Removed domain %q\n", name)
	return nil
}

// Run executes the domain ls command.
func (c *DomainListCmd) Run(deps *Dependencies) error {
	domains, err := deps.Domains.FindDomains(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", locsearch.ErrorMessage(err))
		return err
	}

	if len(domains) == 0 {
		fmt.Fprintln(deps.Stdout, "No domains tracked. Use 'locsearch domain add' to track one.")
		return nil
	}

	for _, d := range domains {
		fmt.Fprintf(deps.Stdout, "%s  %s\n", d.Name, d.CreatedAt.Format("2006-01-02"))
	}

	return nil
}
