package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/locsearch"
)

// Ensure SitemapSource implements locsearch.URLSource at compile time.
var _ locsearch.URLSource = (*SitemapSource)(nil)

// SitemapSource discovers page URLs for a domain by walking its XML
// sitemaps. Sitemap locations come from the robots policy when present,
// otherwise the conventional /sitemap.xml location is tried.
type SitemapSource struct {
	client *http.Client
}

// NewSitemapSource creates a new SitemapSource with the given HTTP client.
// If client is nil, http.DefaultClient is used.
func NewSitemapSource(client *http.Client) *SitemapSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &SitemapSource{client: client}
}

// Discover returns up to limit page URLs found in the domain's sitemaps.
// Sitemap index files are followed recursively, already visited sitemaps
// are skipped. A limit of zero or less means no cap.
func (s *SitemapSource) Discover(ctx context.Context, domain string, policy *locsearch.RobotsPolicy, limit int) ([]string, error) {
	base := domain
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	base = strings.TrimSuffix(base, "/")

	var sitemapURLs []string
	if policy != nil && len(policy.Sitemaps) > 0 {
		sitemapURLs = policy.Sitemaps
	} else {
		sitemapURLs = []string{base + "/sitemap.xml"}
	}

	seen := make(map[string]bool)
	var urls []string
	for _, sm := range sitemapURLs {
		var err error
		urls, err = s.walkSitemap(ctx, sm, seen, urls, limit)
		if err != nil {
			return nil, err
		}
		if limit > 0 && len(urls) >= limit {
			break
		}
	}

	if len(urls) == 0 {
		return nil, locsearch.Errorf(locsearch.ENOTFOUND, "no URLs discovered for domain %q", domain)
	}
	return urls, nil
}

// walkSitemap fetches one sitemap document and appends the page URLs it
// lists, recursing into sitemap index entries.
func (s *SitemapSource) walkSitemap(ctx context.Context, sitemapURL string, seen map[string]bool, urls []string, limit int) ([]string, error) {
	if seen[sitemapURL] {
		return urls, nil
	}
	seen[sitemapURL] = true

	body, err := s.fetchURL(ctx, sitemapURL)
	if err != nil {
		// A single unreachable sitemap should not sink discovery of
		// the remaining ones.
		return urls, nil
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return urls, nil
	}

	root := doc.Root()
	if root == nil {
		return urls, nil
	}

	switch root.Tag {
	case "sitemapindex":
		for _, sm := range root.SelectElements("sitemap") {
			loc := sm.SelectElement("loc")
			if loc == nil {
				continue
			}
			urls, err = s.walkSitemap(ctx, strings.TrimSpace(loc.Text()), seen, urls, limit)
			if err != nil {
				return urls, err
			}
			if limit > 0 && len(urls) >= limit {
				return urls, nil
			}
		}
	case "urlset":
		for _, u := range root.SelectElements("url") {
			loc := u.SelectElement("loc")
			if loc == nil {
				continue
			}
			urls = append(urls, strings.TrimSpace(loc.Text()))
			if limit > 0 && len(urls) >= limit {
				return urls, nil
			}
		}
	}

	return urls, nil
}

// fetchURL retrieves the body of a URL, returning an error on any
// non-200 response.
func (s *SitemapSource) fetchURL(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}

	return io.ReadAll(resp.Body)
}
