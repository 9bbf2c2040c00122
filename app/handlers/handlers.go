package handlers

import (
	"io"
	"net/http"
)

// HandleRobotsTXT lets crawlers see the page but keeps them off the API,
// where every request would mint a session.
func HandleRobotsTXT(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	data := []string{
		"User-agent: *",
		"Allow: /$",
		"Disallow: /api/",
		"Disallow: /ws",
		"Disallow: /debug/",
	}
	for _, line := range data {
		io.WriteString(w, line+"\r\n")
	}
}
