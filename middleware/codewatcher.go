package middleware

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
)

var (
	_ http.ResponseWriter = &codeWatcher{}
	_ http.Hijacker       = &codeWatcher{}
	_ http.Flusher        = &codeWatcher{}
)

// codeWatcher is a http.ResponseWriter that captures the status code for
// logging.  It passes Hijack and Flush through so websockets still work
// behind it.
type codeWatcher struct {
	code     *int
	hijacked bool
	w        http.ResponseWriter
}

func (cw *codeWatcher) Header() http.Header {
	return cw.w.Header()
}

func (cw *codeWatcher) Write(b []byte) (int, error) {
	return cw.w.Write(b)
}

func (cw *codeWatcher) WriteHeader(statusCode int) {
	if cw.code == nil {
		cw.code = &statusCode
	}
	cw.w.WriteHeader(statusCode)
}

func (cw *codeWatcher) Flush() {
	if f, ok := cw.w.(http.Flusher); ok {
		f.Flush()
	}
}

func (cw *codeWatcher) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := cw.w.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("%T can't hijack", cw.w)
	}
	conn, rw, err := h.Hijack()
	if err == nil {
		cw.hijacked = true
	}
	return conn, rw, err
}

func (cw *codeWatcher) Unwrap() http.ResponseWriter {
	return cw.w
}

func (cw *codeWatcher) Code() int {
	switch {
	case cw.code != nil:
		return *cw.code
	case cw.hijacked:
		return http.StatusSwitchingProtocols
	default:
		return http.StatusOK
	}
}
