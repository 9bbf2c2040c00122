// Package urlpath pulls typed values out of chi route parameters.
package urlpath

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ts4z/clicktunes/he"
)

// IDPathValue extracts the "id" path variable from the request and parses
// it.  The error carries a 400.
func IDPathValue(r *http.Request) (int64, error) {
	return Int64(r, "id")
}

func Int64(r *http.Request, name string) (int64, error) {
	s := chi.URLParam(r, name)
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return -1, he.HTTPCodedErrorf(http.StatusBadRequest, "can't parse %s from url path: %v", name, err)
	}
	return id, nil
}

// String returns a path variable, or a 400 if it's empty.
func String(r *http.Request, name string) (string, error) {
	s := chi.URLParam(r, name)
	if s == "" {
		return "", he.HTTPCodedErrorf(http.StatusBadRequest, "missing %s in url path", name)
	}
	return s, nil
}
