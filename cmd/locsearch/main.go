package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/locsearch"
	"github.com/fwojciec/locsearch/crawl"
	"github.com/fwojciec/locsearch/engine"
	"github.com/fwojciec/locsearch/fs"
	"github.com/fwojciec/locsearch/gemini"
	"github.com/fwojciec/locsearch/goquery"
	"github.com/fwojciec/locsearch/htmltomarkdown"
	lochttp "github.com/fwojciec/locsearch/http"
	"github.com/fwojciec/locsearch/ivfpq"
	"github.com/fwojciec/locsearch/page"
	"github.com/fwojciec/locsearch/readability"
	"github.com/fwojciec/locsearch/report"
	"github.com/fwojciec/locsearch/rod"
	"github.com/fwojciec/locsearch/scan"
	locslog "github.com/fwojciec/locsearch/slog"
	"github.com/fwojciec/locsearch/sqlite"
	"github.com/fwojciec/locsearch/trafilatura"
	"google.golang.org/genai"
)

// tokenizerModel measures report chunks locally.
const tokenizerModel = "gemini-2.5-flash"

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path. Set before calling Run().
	DBPath string

	// Index generation directory. Set before calling Run().
	IndexDir string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Services for end-to-end testing.
	DomainService locsearch.DomainService
	RecordService locsearch.RecordService
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath:   defaultDBPath(),
		IndexDir: defaultIndexDir(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdin:  os.Stdin,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("locsearch"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'locsearch --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	m.DB = sqlite.NewDB(m.DBPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set LOCSEARCH_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", m.DBPath, err)
	}
	defer m.Close()

	store, err := fs.NewStore(m.IndexDir)
	if err != nil {
		return fmt.Errorf("failed to open index directory at %q: %w", m.IndexDir, err)
	}

	m.DomainService = sqlite.NewDomainService(m.DB)
	m.RecordService = sqlite.NewRecordService(m.DB)
	deps.DB = m.DB
	deps.Index = store
	deps.Domains = m.DomainService
	deps.Records = m.RecordService
	deps.Searcher = &engine.GenerationSearcher{Store: store}

	logger := slog.New(slog.NewTextHandler(stderr, nil))

	needsGemini := cmd == "index" || cmd == "search" || cmd == "run"
	var client *genai.Client
	if needsGemini {
		apiKey := os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			fmt.Fprintln(stderr, "GEMINI_API_KEY environment variable not set. Get an API key at https://aistudio.google.com/apikey")
			return fmt.Errorf("GEMINI_API_KEY not set")
		}
		client, err = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Check your GEMINI_API_KEY is valid")
			return fmt.Errorf("failed to connect to Gemini API: %w", err)
		}
		deps.Vectors = gemini.NewEmbedder(client)
	}

	needsBrowser := cmd == "index" || cmd == "run" ||
		(cmd == "search" && cli.Search.Report)
	var pages locsearch.PageFetcher
	if needsBrowser {
		var html locsearch.Fetcher
		if cli.Static {
			html = lochttp.NewFetcher()
		} else {
			fetcher, err := rod.NewFetcher()
			if err != nil {
				fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed")
				return fmt.Errorf("failed to start browser: %w", err)
			}
			defer fetcher.Close()
			html = rod.NewLoggingFetcher(fetcher, logger)
		}

		pages = locslog.NewLoggingPageFetcher(&page.Fetcher{
			HTML:      html,
			Snippets:  goquery.NewSnippetExtractor(),
			Extractor: trafilatura.NewExtractor(),
			Fallback:  readability.NewExtractor(),
			Converter: htmltomarkdown.NewConverter(),
		}, logger)
	}

	if cmd == "search" && cli.Search.Report || cmd == "run" {
		counter, err := gemini.NewTokenCounter(tokenizerModel)
		if err != nil {
			return fmt.Errorf("failed to create token counter: %w", err)
		}
		deps.Reports = &report.Synthesizer{
			Records: m.RecordService,
			Reports: sqlite.NewReportService(m.DB),
			Pages:   pages,
			Drafter: gemini.NewDrafter(client),
			Tokens:  counter,
			Logger:  logger,
		}
	}

	if cmd == "index" || cmd == "run" {
		var urlFilter *locsearch.URLFilter
		if len(cli.Index.Filter) > 0 {
			urlFilter = &locsearch.URLFilter{}
			for _, pattern := range cli.Index.Filter {
				re, err := regexp.Compile(pattern)
				if err != nil {
					return fmt.Errorf("invalid filter pattern %q: %w", pattern, err)
				}
				urlFilter.Include = append(urlFilter.Include, re)
			}
		}
		scanner := &scan.Scanner{
			Robots:   lochttp.NewRobotsService(nil),
			Source:   locslog.NewLoggingURLSource(lochttp.NewSitemapSource(nil), logger),
			Records:  m.RecordService,
			Frontier: crawl.NewFrontier(1_000_000, 0.01),
			Filter:   urlFilter,
			Logger:   logger,
		}
		shards := sqlite.NewShardService(m.DB)
		builder := &ivfpq.Builder{
			Records: m.RecordService,
			Vectors: deps.Vectors,
			Store:   store,
			Logger:  logger,
		}
		deps.Engine = &engine.Engine{
			Domains: m.DomainService,
			Scanner: scanner,
			Planner: &crawl.Planner{Records: m.RecordService, Shards: shards},
			Pool: &crawl.Pool{
				Records: m.RecordService,
				Shards:  shards,
				Pages:   pages,
				Log:     func(format string, args ...any) { logger.Info(fmt.Sprintf(format, args...)) },
			},
			Shards:   shards,
			Builder:  builder,
			Vectors:  deps.Vectors,
			Searcher: locslog.NewLoggingVectorSearcher(deps.Searcher, logger),
			Reports:  deps.Reports,
			Logger:   logger,
		}
	}

	return kongCtx.Run(deps)
}

func defaultDBPath() string {
	if path := os.Getenv("LOCSEARCH_DB"); path != "" {
		return path
	}
	return filepath.Join(defaultHomeDir(), "locsearch.db")
}

func defaultIndexDir() string {
	if dir := os.Getenv("LOCSEARCH_INDEX"); dir != "" {
		return dir
	}
	return filepath.Join(defaultHomeDir(), "index")
}

func defaultHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	dir := filepath.Join(home, ".locsearch")
	_ = os.MkdirAll(dir, 0755)
	return dir
}
