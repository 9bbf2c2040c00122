package he

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type teapot struct{}

func (teapot) Error() string { return "short and stout" }
func (teapot) HTTPCode() int { return http.StatusTeapot }

func TestCode(t *testing.T) {
	assert.Equal(t, 500, Code(errors.New("plain")))
	assert.Equal(t, 404, Code(HTTPCodedErrorf(404, "no such sound %d", 3)))
	assert.Equal(t, 404, Code(fmt.Errorf("wrapped: %w", New(404, errors.New("gone")))))
	assert.Equal(t, http.StatusTeapot, Code(fmt.Errorf("wrapped: %w", teapot{})))
}

func TestSendErrorToHTTPClient(t *testing.T) {
	w := httptest.NewRecorder()
	SendErrorToHTTPClient(w, "fetch sound", HTTPCodedErrorf(404, "sound %d not found", 9))
	assert.Equal(t, 404, w.Code)
	assert.Contains(t, w.Body.String(), "can't fetch sound: sound 9 not found")
}

func TestSendJSONError(t *testing.T) {
	w := httptest.NewRecorder()
	SendJSONError(w, "add sound", teapot{})
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body struct{ Error string }
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "short and stout", body.Error)
}
