package locsearch

import (
	"context"
	"regexp"
)

// URLSource discovers candidate URLs for a domain.
// Implementations hide the discovery mechanism (sitemaps, link walking).
type URLSource interface {
	// Discover finds candidate URLs for a domain, up to the given limit.
	// A limit of 0 means no limit. The policy's Sitemap directives, if
	// any, take precedence over the default sitemap location.
	Discover(ctx context.Context, domain string, policy *RobotsPolicy, limit int) ([]string, error)
}

// URLFilter specifies patterns for including/excluding URLs.
type URLFilter struct {
	// Include patterns - if set, only URLs matching at least one pattern are included.
	Include []*regexp.Regexp

	// Exclude patterns - URLs matching any pattern are excluded.
	// Exclude is applied after Include.
	Exclude []*regexp.Regexp
}

// Match returns true if the URL passes the filter.
// If the filter is nil, all URLs pass.
func (f *URLFilter) Match(url string) bool {
	if f == nil {
		return true
	}

	// If include patterns exist, URL must match at least one
	if len(f.Include) > 0 {
		matched := false
		for _, re := range f.Include {
			if re.MatchString(url) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	// Check exclude patterns
	for _, re := range f.Exclude {
		if re.MatchString(url) {
			return false
		}
	}

	return true
}
