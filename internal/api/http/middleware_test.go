package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestID(r.Context())
	}))

	t.Run("Reuses Client Id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "6f1c2f9e-58a4-4c44-9a53-0f3c1fd3f8d1")
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		assert.Equal(t, "6f1c2f9e-58a4-4c44-9a53-0f3c1fd3f8d1", seen)
		assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
	})

	t.Run("Replaces Malformed Id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "<script>")
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		assert.NotEqual(t, "<script>", seen)
		assert.Len(t, seen, 36)
	})
}

func TestStatusRecorderFlushes(t *testing.T) {
	rec := httptest.NewRecorder()
	sr := recorder(rec)
	sr.WriteHeader(http.StatusAccepted)
	sr.Flush()

	assert.Equal(t, http.StatusAccepted, sr.status)
	assert.True(t, rec.Flushed)
	assert.Same(t, sr, recorder(sr))
}
