package urlpath

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/ts4z/clicktunes/he"
)

func TestIDPathValue(t *testing.T) {
	r := chi.NewRouter()
	var got int64
	var gotErr error
	r.Get("/api/sounds/{id}", func(w http.ResponseWriter, r *http.Request) {
		got, gotErr = IDPathValue(r)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/sounds/42", nil))
	assert.NoError(t, gotErr)
	assert.Equal(t, int64(42), got)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/sounds/boo", nil))
	assert.Error(t, gotErr)
	assert.Equal(t, 400, he.Code(gotErr))
}

func TestString(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := String(r, "key")
	assert.Equal(t, 400, he.Code(err))
}
