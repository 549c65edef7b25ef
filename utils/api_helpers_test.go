package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatencyMiddlewarePassesRequestThrough(t *testing.T) {
	var called bool
	handler := LatencyMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/generate", nil))

	assert.True(t, called)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestRespondErrorWritesJSONBody(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, nil, "bad upload", http.StatusBadRequest)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error": "bad upload"}`, rec.Body.String())
}
