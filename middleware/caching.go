package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// CacheHeaderAdder wraps an http.Handler and adds cache-control headers.
// This is useful for static assets that can be cached by browsers.
type CacheHeaderAdder struct {
	maybe        func(r *http.Request) bool
	next         http.Handler
	maxAge       time.Duration
	immutable    bool
	cachePrivate bool
}

// CacheHeaderAdderConfig configures the caching behavior.
type CacheHeaderAdderConfig struct {
	// Add cache headers, but only if this returns true.
	Maybe func(r *http.Request) bool

	// Next is the handler to wrap.
	Next http.Handler

	// MaxAge is how long the content should be cached.  Zero or less
	// sends no-cache.
	MaxAge time.Duration

	// Immutable indicates that the content will never change.
	Immutable bool

	// CachePrivate indicates that the content should only be cached
	// by the browser, not by shared caches (CDNs, proxies).
	CachePrivate bool
}

// NewCacheHeaderAdder creates a new caching middleware.
func NewCacheHeaderAdder(config *CacheHeaderAdderConfig) *CacheHeaderAdder {
	return &CacheHeaderAdder{
		maybe:        config.Maybe,
		next:         config.Next,
		maxAge:       config.MaxAge,
		immutable:    config.Immutable,
		cachePrivate: config.CachePrivate,
	}
}

func (ch *CacheHeaderAdder) cacheControl() string {
	maxAgeSeconds := int(ch.maxAge.Seconds())
	if maxAgeSeconds <= 0 {
		return "no-cache"
	}
	parts := []string{"public"}
	if ch.cachePrivate {
		parts[0] = "private"
	}
	parts = append(parts, fmt.Sprintf("max-age=%d", maxAgeSeconds))
	if ch.immutable {
		parts = append(parts, "immutable")
	}
	return strings.Join(parts, ", ")
}

func (ch *CacheHeaderAdder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if ch.maybe == nil || ch.maybe(r) {
		w.Header().Set("Cache-Control", ch.cacheControl())
	}
	ch.next.ServeHTTP(w, r)
}
