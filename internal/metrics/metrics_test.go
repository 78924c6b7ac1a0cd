package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncDocumentsIssued()
	m.IncDocumentsIssued()
	m.IncCodesRotated()
	m.IncCodeCollisions()
	m.IncVerifications("valid")
	m.IncVerifications("valid")
	m.IncVerifications("invalid")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.DocumentsIssued))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CodesRotated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CodeCollisions))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Verifications.WithLabelValues("valid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Verifications.WithLabelValues("invalid")))
}

func TestMetrics_ObserveRequest(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveRequest(http.MethodGet, "/api/document", http.StatusOK, 20*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "/api/document", http.StatusNotFound, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/document", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/document", "404")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPDuration))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.IncDocumentsIssued()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "docverify_documents_issued_total 1")
}

func TestNew_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
