package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}

// RequestLogger is a middleware that logs the request.
type RequestLogger struct {
	next  http.Handler
	clock Clock
}

func NewRequestLogger(next http.Handler, clock Clock) *RequestLogger {
	return &RequestLogger{next: next, clock: clock}
}

// remoteAddr prefers the first X-Forwarded-For hop, for servers behind a
// proxy.
func remoteAddr(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	return r.RemoteAddr
}

// ClientHost is the caller's address without a port.
func ClientHost(r *http.Request) string {
	addr := remoteAddr(r)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

func (rl *RequestLogger) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := rl.clock.Now()
	ww := &codeWatcher{w: w}
	rl.next.ServeHTTP(ww, r)
	zap.S().Infof("[access log] %d %v %v %v (%v)", ww.Code(), remoteAddr(r), r.Method, r.URL.Path, rl.clock.Since(start))
}
