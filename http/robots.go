package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fwojciec/locsearch"
	"github.com/temoto/robotstxt"
)

// robotsAgent is the product token matched against User-agent groups.
const robotsAgent = "locsearch"

// robotsMaxBytes caps how much of a robots.txt body is read.
const robotsMaxBytes = 1 << 20

// Ensure RobotsService implements locsearch.RobotsService at compile time.
var _ locsearch.RobotsService = (*RobotsService)(nil)

// RobotsService fetches robots.txt policies via HTTP and parses them with
// temoto/robotstxt, so wildcard and end-anchor rules match the way crawlers
// are expected to match them.
type RobotsService struct {
	client *http.Client
}

// NewRobotsService creates a new RobotsService with the given HTTP client.
// If client is nil, http.DefaultClient is used.
func NewRobotsService(client *http.Client) *RobotsService {
	if client == nil {
		client = http.DefaultClient
	}
	return &RobotsService{client: client}
}

// FetchPolicy retrieves the robots policy for a domain. A missing
// robots.txt (404) yields a permissive empty policy; transport errors and
// server errors are returned to the caller, which decides whether to fall
// back to permissive.
func (s *RobotsService) FetchPolicy(ctx context.Context, domain string) (*locsearch.RobotsPolicy, error) {
	base := domain
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(base, "/")+"/robots.txt", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &locsearch.RobotsPolicy{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for robots.txt of %s", resp.StatusCode, domain)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, robotsMaxBytes))
	if err != nil {
		return nil, fmt.Errorf("reading robots.txt: %w", err)
	}
	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return nil, fmt.Errorf("parsing robots.txt: %w", err)
	}

	policy := &locsearch.RobotsPolicy{Sitemaps: data.Sitemaps}

	// FindGroup prefers the section naming our product token and falls
	// back to the wildcard section.
	if group := data.FindGroup(robotsAgent); group != nil {
		policy.Test = group.Test
		if group.CrawlDelay > 0 {
			delay := group.CrawlDelay.Seconds()
			policy.CrawlDelay = &delay
		}
	}
	return policy, nil
}
