package he

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// HTTPError probably represents the wrong abstraction.
type HTTPError struct {
	code int
	err  error
}

// Coder is implemented by errors from other packages that know which
// HTTP status they deserve.
type Coder interface {
	HTTPCode() int
}

func HTTPCodedErrorf(code int, f string, more ...any) *HTTPError {
	return &HTTPError{
		code: code,
		err:  fmt.Errorf(f, more...),
	}
}

func New(code int, err error) *HTTPError {
	return &HTTPError{
		code: code,
		err:  err,
	}
}

func (e *HTTPError) Error() string {
	return e.err.Error()
}

func (e *HTTPError) Unwrap() error {
	return e.err
}

func (e *HTTPError) HTTPCode() int {
	return e.code
}

// Code finds the HTTP status for err, or 500 if nothing in the chain has
// an opinion.
func Code(err error) int {
	var c Coder
	if errors.As(err, &c) {
		return c.HTTPCode()
	}
	return http.StatusInternalServerError
}

// SendErrorToHTTPClient sends err as an HTTP error.  If something in the
// chain knows its status code, the client gets that; otherwise, client
// gets 500 and it's on us.
func SendErrorToHTTPClient(w http.ResponseWriter, while string, err error) {
	code := Code(err)
	txt := fmt.Sprintf("can't %s: %v", while, err)
	if code >= 500 {
		zap.S().Errorf("%d: %s", code, txt)
	} else {
		zap.S().Infof("%d: %s", code, txt)
	}
	http.Error(w, txt, code)
}

// SendJSONError is SendErrorToHTTPClient for API clients, which show
// the message inline and want it without decoration.
func SendJSONError(w http.ResponseWriter, while string, err error) {
	code := Code(err)
	if code >= 500 {
		zap.S().Errorf("%d: can't %s: %v", code, while, err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	body := struct {
		Error string `json:"error"`
	}{Error: err.Error()}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.S().Warnf("can't write error to client: %v", err)
	}
}
