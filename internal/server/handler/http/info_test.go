package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	handler "github.com/atinyakov/docverify/internal/server/handler/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestInfoHandler_Health(t *testing.T) {
	h := &handler.InfoHandler{DB: fakePinger{}, Version: "1.2.3"}
	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "ok", resp.Status)
	assert.JSONEq(t, `{"service":"document-verifier-api","version":"1.2.3"}`, string(resp.Data))
}

func TestInfoHandler_HealthDatabaseDown(t *testing.T) {
	h := &handler.InfoHandler{DB: fakePinger{err: errors.New("dial tcp: refused")}}
	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "error", resp.Status)
	assert.NotContains(t, resp.Message, "refused")
}

func TestInfoHandler_Catalogs(t *testing.T) {
	h := &handler.InfoHandler{}

	w := httptest.NewRecorder()
	h.DocumentTypes(w, httptest.NewRequest(http.MethodGet, "/api/document-types", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var types struct {
		Types []string `json:"types"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &types))
	assert.Equal(t, handler.DocumentTypes, types.Types)

	w = httptest.NewRecorder()
	h.VerificationTemplates(w, httptest.NewRequest(http.MethodGet, "/api/verification-templates", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var templates struct {
		Templates []handler.VerificationTemplate `json:"templates"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &templates))
	require.Len(t, templates.Templates, 2)
	assert.Equal(t, "template1", templates.Templates[0].ID)
	assert.Contains(t, templates.Templates[1].Checks, "revocation")
}
