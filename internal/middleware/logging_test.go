package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithRequestLogging(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(WithRequestLogging(zap.New(core)))
	r.Get("/api/document", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("hello"))
	})
	r.Post("/api/verify", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	r.Post("/api/document_rotate", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	tests := []struct {
		method    string
		path      string
		wantLevel zapcore.Level
		wantCode  int64
	}{
		{http.MethodGet, "/api/document?code=x", zapcore.InfoLevel, 200},
		{http.MethodPost, "/api/verify", zapcore.WarnLevel, 401},
		{http.MethodPost, "/api/document_rotate", zapcore.ErrorLevel, 500},
	}
	for _, tt := range tests {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tt.method, tt.path, nil))
	}

	entries := logs.All()
	require.Len(t, entries, len(tests))
	for i, tt := range tests {
		e := entries[i]
		fields := e.ContextMap()
		assert.Equal(t, "HTTP request", e.Message)
		assert.Equal(t, tt.wantLevel, e.Level, tt.path)
		assert.Equal(t, tt.method, fields["method"])
		assert.Equal(t, tt.wantCode, fields["status"])
		assert.NotEmpty(t, fields["request_id"])
	}
	assert.Equal(t, int64(5), entries[0].ContextMap()["bytes"])
	assert.Equal(t, "/api/document", entries[0].ContextMap()["route"])
	assert.Equal(t, "/api/document", entries[0].ContextMap()["path"])
}

func TestWithRequestLogging_Unmatched(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	r := chi.NewRouter()
	r.Use(WithRequestLogging(zap.New(core)))
	r.Get("/api/document", func(http.ResponseWriter, *http.Request) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	require.Equal(t, 1, logs.Len())
	e := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, e.Level)
	assert.Equal(t, int64(404), e.ContextMap()["status"])
}
