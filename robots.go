package locsearch

import (
	"context"
	"net/url"
)

// RobotsPolicy holds the parts of a robots.txt policy the crawler honors:
// the matched agent group's path test, an optional crawl delay, and the
// file's Sitemap directives. A nil policy is fully permissive, which is
// the deliberate availability-over-strictness default when robots.txt
// cannot be fetched.
type RobotsPolicy struct {
	// Test reports whether the matched agent group permits a path. A nil
	// Test means no group restricts us.
	Test       func(path string) bool
	CrawlDelay *float64 // seconds
	Sitemaps   []string // Sitemap: directives
}

// Allowed reports whether the policy permits fetching the URL.
func (p *RobotsPolicy) Allowed(rawURL string) bool {
	if p == nil || p.Test == nil {
		return true
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	return p.Test(path)
}

// RobotsService fetches and parses robots policies.
type RobotsService interface {
	// FetchPolicy retrieves the robots policy for a domain. A fetch or
	// parse failure is an error; callers decide whether to fall back to a
	// permissive nil policy.
	FetchPolicy(ctx context.Context, domain string) (*RobotsPolicy, error)
}
