package ratelimit

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/amishk599/jobsync/internal/model"
)

// HostRateLimiter enforces a minimum delay between requests to the same host.
type HostRateLimiter struct {
	mu       sync.Mutex
	next     map[string]time.Time // key: host, value: earliest time of the next request
	minDelay time.Duration
}

// NewHostRateLimiter creates a rate limiter that enforces minDelay between
// consecutive requests to the same host.
func NewHostRateLimiter(minDelay time.Duration) *HostRateLimiter {
	return &HostRateLimiter{
		next:     make(map[string]time.Time),
		minDelay: minDelay,
	}
}

// Wait blocks until the given host may be requested again. Concurrent
// callers for the same host are spaced minDelay apart. Returns an error if
// the context is cancelled while waiting.
func (r *HostRateLimiter) Wait(ctx context.Context, host string) error {
	r.mu.Lock()
	now := time.Now()
	slot := now
	if next, ok := r.next[host]; ok && next.After(now) {
		slot = next
	}
	// Reserve the slot before releasing the lock.
	r.next[host] = slot.Add(r.minDelay)
	r.mu.Unlock()

	remaining := slot.Sub(now)
	if remaining <= 0 {
		return nil
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", host, ctx.Err())
	case <-timer.C:
	}
	return nil
}

// HostOf returns the lowercased host of rawURL, or rawURL itself when it has none.
func HostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return strings.ToLower(u.Host)
}

// RateLimitedSource is a decorator that waits for the host's politeness
// slot before delegating to the wrapped SourceFetcher.
type RateLimitedSource struct {
	inner   model.SourceFetcher
	limiter *HostRateLimiter
	host    string
}

// NewRateLimitedSource wraps a SourceFetcher with host-level rate limiting.
// All sources on the same host should share the same limiter instance.
func NewRateLimitedSource(inner model.SourceFetcher, limiter *HostRateLimiter, host string) *RateLimitedSource {
	return &RateLimitedSource{
		inner:   inner,
		limiter: limiter,
		host:    host,
	}
}

// Name returns the wrapped source's name.
func (s *RateLimitedSource) Name() string { return s.inner.Name() }

// FetchItems waits for the rate limiter, then delegates to the wrapped fetcher.
func (s *RateLimitedSource) FetchItems(ctx context.Context) ([]model.RawItem, error) {
	if err := s.limiter.Wait(ctx, s.host); err != nil {
		return nil, err
	}
	return s.inner.FetchItems(ctx)
}
