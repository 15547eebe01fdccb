// Package scan discovers crawlable URLs for a domain and seeds scrape
// records, honoring the domain's robots policy.
package scan

import (
	"context"
	"log/slog"

	"github.com/fwojciec/locsearch"
)

// DefaultMaxURLs bounds how many URLs a single scan will take from a
// domain's sitemaps.
const DefaultMaxURLs = 10000

// Result summarizes a single domain scan.
type Result struct {
	Discovered int // URLs found in sitemaps after dedup
	Created    int // new records inserted at status discovered
	Denied     int // URLs filtered out by robots rules
	Skipped    int // existing discovered records the policy now denies
}

// Scanner discovers URLs for a domain and creates scrape records for
// them. Robots fetch failures are logged and treated as permissive, so
// an unreachable robots.txt never blocks a scan.
type Scanner struct {
	Robots   locsearch.RobotsService
	Source   locsearch.URLSource
	Records  locsearch.RecordService
	Frontier locsearch.URLFrontier
	Logger   *slog.Logger

	// Filter optionally narrows which discovered URLs become records.
	Filter *locsearch.URLFilter

	// MaxURLs caps discovery per scan. Zero means DefaultMaxURLs.
	MaxURLs int
}

// Scan discovers URLs for the domain and inserts them as discovered
// records carrying the policy's crawl delay. URLs the policy denies are
// never inserted; pre-existing discovered records that the current
// policy denies are marked skipped.
func (s *Scanner) Scan(ctx context.Context, domain string) (*Result, error) {
	policy, err := s.Robots.FetchPolicy(ctx, domain)
	if err != nil {
		s.logger().Warn("robots.txt unavailable, proceeding permissively",
			"domain", domain,
			"err", err,
		)
		policy = nil
	}

	limit := s.MaxURLs
	if limit <= 0 {
		limit = DefaultMaxURLs
	}

	urls, err := s.Source.Discover(ctx, domain, policy, limit)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	var records []*locsearch.Record
	var denied []string
	for _, u := range urls {
		if !s.Filter.Match(u) {
			continue
		}
		if s.Frontier != nil && !s.Frontier.Push(u) {
			continue
		}
		result.Discovered++
		if !policy.Allowed(u) {
			result.Denied++
			denied = append(denied, u)
			continue
		}
		rec := &locsearch.Record{
			URL:    u,
			Domain: domain,
			Status: locsearch.StatusDiscovered,
		}
		if policy != nil {
			rec.CrawlDelay = policy.CrawlDelay
		}
		records = append(records, rec)
	}

	if len(records) > 0 {
		created, err := s.Records.CreateRecords(ctx, records)
		if err != nil {
			return nil, err
		}
		result.Created = created
	}

	// Records discovered under an older, laxer policy may no longer be
	// fetchable. Retiring them keeps the worker pool from claiming them.
	if len(denied) > 0 {
		skipped, err := s.Records.UpdateStatus(ctx, denied, locsearch.StatusSkipped)
		if err != nil {
			return nil, err
		}
		result.Skipped = skipped
	}

	s.logger().Info("domain scanned",
		"domain", domain,
		"discovered", result.Discovered,
		"created", result.Created,
		"denied", result.Denied,
		"skipped", result.Skipped,
	)
	return result, nil
}

func (s *Scanner) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
