package main

import (
	"context"
	"io"

	"github.com/fwojciec/locsearch"
	"github.com/fwojciec/locsearch/engine"
	"github.com/fwojciec/locsearch/fs"
	"github.com/fwojciec/locsearch/report"
	"github.com/fwojciec/locsearch/sqlite"
)

// Dependencies holds all services and configuration for command
// execution.
type Dependencies struct {
	Ctx    context.Context
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	DB       *sqlite.DB
	Index    *fs.Store
	Domains  locsearch.DomainService
	Records  locsearch.RecordService
	Searcher locsearch.VectorSearcher
	Vectors  locsearch.Vectorizer
	Reports  *report.Synthesizer
	Engine   *engine.Engine
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Static bool `help:"Fetch pages with plain HTTP instead of a headless browser (static sites only)"`

	Domain DomainCmd `cmd:"" help:"Manage tracked domains"`
	Index  IndexCmd  `cmd:"" help:"Scan, crawl, and index all tracked domains"`
	Search SearchCmd `cmd:"" help:"Search the index"`
	Status StatusCmd `cmd:"" help:"Show record and index statistics"`
	Run    RunCmd    `cmd:"" help:"Run the interactive engine loop"`
}

// DomainCmd groups the domain subcommands.
type DomainCmd struct {
	Add DomainAddCmd  `cmd:"" help:"Track a new domain"`
	Rm  DomainRmCmd   `cmd:"" help:"Stop tracking a domain and drop its records"`
	Ls  DomainListCmd `cmd:"" help:"List tracked domains"`
}

// DomainAddCmd is the "domain add" subcommand.
type DomainAddCmd struct {
	Name string `arg:"" help:"Domain to track, e.g. example.com"`
}

// DomainRmCmd is the "domain rm" subcommand.
type DomainRmCmd struct {
	Name  string `arg:"" help:"Domain to remove"`
	Force bool   `help:"Confirm removal"`
}

// DomainListCmd is the "domain ls" subcommand.
type DomainListCmd struct{}

// IndexCmd is the "index" subcommand.
type IndexCmd struct {
	Workers int      `short:"w" default:"8" help:"Concurrent scrape workers"`
	Filter  []string `short:"F" name:"filter" help:"Only index URLs matching regex (repeatable)"`
}

// SearchCmd is the "search" subcommand.
type SearchCmd struct {
	Query  string `arg:"" help:"Search query"`
	K      int    `short:"k" default:"10" help:"Number of results"`
	Report bool   `short:"r" help:"Synthesize a report over the results"`
}

// StatusCmd is the "status" subcommand.
type StatusCmd struct{}

// RunCmd is the "run" subcommand.
type RunCmd struct {
	Workers int `short:"w" default:"8" help:"Concurrent scrape workers"`
}
