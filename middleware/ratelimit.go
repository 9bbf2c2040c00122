package middleware

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/ts4z/clicktunes/he"
	"github.com/ts4z/clicktunes/varz"
)

// maxTrackedClients bounds the limiter table; past it the table is reset,
// which forgives everyone at once.
const maxTrackedClients = 1000

var rateLimited = varz.NewInt("rateLimited")

// RateLimiter gives each client address a token bucket for requests with
// the listed methods.  Other requests pass untouched.
type RateLimiter struct {
	next    http.Handler
	limit   rate.Limit
	burst   int
	methods map[string]struct{}

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

type RateLimiterConfig struct {
	Next http.Handler

	// PerSecond is the sustained request rate per client.
	PerSecond float64
	Burst     int

	// Methods to limit.  Defaults to POST and DELETE.
	Methods []string
}

func NewRateLimiter(config *RateLimiterConfig) *RateLimiter {
	methods := config.Methods
	if len(methods) == 0 {
		methods = []string{http.MethodPost, http.MethodDelete}
	}
	rl := &RateLimiter{
		next:     config.Next,
		limit:    rate.Limit(config.PerSecond),
		burst:    max(config.Burst, 1),
		methods:  map[string]struct{}{},
		limiters: map[string]*rate.Limiter{},
	}
	for _, m := range methods {
		rl.methods[m] = struct{}{}
	}
	return rl
}

func (rl *RateLimiter) limiter(client string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if l, ok := rl.limiters[client]; ok {
		return l
	}
	if len(rl.limiters) >= maxTrackedClients {
		rl.limiters = map[string]*rate.Limiter{}
	}
	l := rate.NewLimiter(rl.limit, rl.burst)
	rl.limiters[client] = l
	return l
}

func (rl *RateLimiter) reject(w http.ResponseWriter, r *http.Request) bool {
	if _, ok := rl.methods[r.Method]; !ok || rl.limiter(ClientHost(r)).Allow() {
		return false
	}
	rateLimited.Add(1)
	w.Header().Set("Retry-After", "1")
	he.SendJSONError(w, "rate limit", he.HTTPCodedErrorf(http.StatusTooManyRequests, "too many requests, slow down"))
	return true
}

func (rl *RateLimiter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if rl.reject(w, r) {
		return
	}
	rl.next.ServeHTTP(w, r)
}

// Wrap limits next with this limiter's buckets, so several routes can share
// one budget.  Next from the config is not used.
func (rl *RateLimiter) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.reject(w, r) {
			return
		}
		next.ServeHTTP(w, r)
	})
}
