package crawl

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DomainLimiter provides per-domain rate limiting using token buckets.
// Each domain gets its own limiter with a burst of 1 (no bursting allowed),
// so concurrent workers on the same domain still observe its crawl delay
// while different domains proceed independently.
type DomainLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	minDelay time.Duration
}

// NewDomainLimiter creates a new DomainLimiter. Domains without a declared
// crawl delay are limited to one request per minDelay.
func NewDomainLimiter(minDelay time.Duration) *DomainLimiter {
	if minDelay <= 0 {
		minDelay = DefaultMinDelay
	}
	return &DomainLimiter{
		limiters: make(map[string]*rate.Limiter),
		minDelay: minDelay,
	}
}

// SetDelay pins a domain to the crawl delay its robots policy declares.
// A delay below the configured minimum is raised to the minimum. Setting
// the same delay again is a no-op, so per-record calls do not reset the
// domain's token bucket.
func (d *DomainLimiter) SetDelay(domain string, delay time.Duration) {
	if delay < d.minDelay {
		delay = d.minDelay
	}
	limit := rate.Every(delay)

	d.mu.Lock()
	defer d.mu.Unlock()
	if existing, ok := d.limiters[domain]; ok && existing.Limit() == limit {
		return
	}
	d.limiters[domain] = rate.NewLimiter(limit, 1)
}

// Wait blocks until the rate limit allows a request to the domain.
// Returns an error if the context is canceled before the wait completes.
func (d *DomainLimiter) Wait(ctx context.Context, domain string) error {
	d.mu.Lock()
	limiter, ok := d.limiters[domain]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(d.minDelay), 1)
		d.limiters[domain] = limiter
	}
	d.mu.Unlock()

	return limiter.Wait(ctx)
}
