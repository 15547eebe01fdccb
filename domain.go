package locsearch

import (
	"context"
	"strings"
	"time"
)

// Domain represents a configured crawl target.
type Domain struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// NormalizeDomain strips scheme, www prefix and any path from a domain
// string, so "https://www.example.com/about" becomes "example.com".
func NormalizeDomain(raw string) string {
	d := strings.TrimSpace(raw)
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "www.")
	if idx := strings.Index(d, "/"); idx != -1 {
		d = d[:idx]
	}
	return strings.ToLower(d)
}

// Validate returns an error if the domain contains invalid fields.
func (d *Domain) Validate() error {
	if d.Name == "" {
		return Errorf(EINVALID, "domain name required")
	}
	if strings.ContainsAny(d.Name, "/ ") {
		return Errorf(EINVALID, "domain name %q must be a bare host", d.Name)
	}
	return nil
}

// DomainService manages the persisted list of crawl targets.
type DomainService interface {
	// CreateDomain adds a domain to the crawl list.
	// Returns ECONFLICT if the domain already exists.
	CreateDomain(ctx context.Context, domain *Domain) error

	// FindDomains returns all configured domains in creation order.
	FindDomains(ctx context.Context) ([]*Domain, error)

	// DeleteDomain removes a domain and all of its records.
	// Returns ENOTFOUND if the domain does not exist.
	DeleteDomain(ctx context.Context, name string) error
}
