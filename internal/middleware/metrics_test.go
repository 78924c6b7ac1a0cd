package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type observed struct {
	method, route string
	code          int
}

type fakeObserver struct {
	calls []observed
}

func (f *fakeObserver) ObserveRequest(method, route string, code int, _ time.Duration) {
	f.calls = append(f.calls, observed{method, route, code})
}

func TestWithMetrics(t *testing.T) {
	obs := &fakeObserver{}

	r := chi.NewRouter()
	r.Use(WithMetrics(obs))
	r.Get("/api/document", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Post("/api/verify", func(http.ResponseWriter, *http.Request) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/document?code=abc", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/verify", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/random/path", nil))

	require.Len(t, obs.calls, 3)
	assert.Equal(t, observed{"GET", "/api/document", 404}, obs.calls[0])
	assert.Equal(t, observed{"POST", "/api/verify", 200}, obs.calls[1])
	assert.Equal(t, observed{"GET", "unmatched", 404}, obs.calls[2])
}

func TestWithMetrics_NilObserver(t *testing.T) {
	dummy := &dummyHandler{}
	WithMetrics(nil)(dummy).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, dummy.called)
}
