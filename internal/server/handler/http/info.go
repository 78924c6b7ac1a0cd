package http

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ServiceName identifies this API in health responses.
const ServiceName = "document-verifier-api"

// healthTimeout bounds the database ping of the health check.
const healthTimeout = 2 * time.Second

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// VerificationTemplate describes a named set of checks a verifier can run.
type VerificationTemplate struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Checks []string `json:"checks"`
}

// DocumentTypes lists the document types offered to issuers.
var DocumentTypes = []string{
	"Certificate of reference",
	"Certificate",
	"Identity card",
	"Licence",
	"Diploma",
	"School certificate",
}

// VerificationTemplates lists the verification templates offered to clients.
var VerificationTemplates = []VerificationTemplate{
	{
		ID:     "template1",
		Name:   "Standard check",
		Checks: []string{"validity", "issuer", "signature", "expiry"},
	},
	{
		ID:     "template2",
		Name:   "Extended check",
		Checks: []string{"validity", "issuer", "signature", "expiry", "revocation", "chain"},
	},
}

// InfoHandler serves the health check and the static catalogs.
type InfoHandler struct {
	// DB is pinged by the health check. A nil DB is reported healthy.
	DB Pinger
	// Version is reported by the health check.
	Version string
	Log     *zap.Logger
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Service string `json:"service"`
	Version string `json:"version"`
}

// Health handles GET /health.
func (h *InfoHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := h.DB.Ping(ctx); err != nil {
			if h.Log != nil {
				h.Log.Warn("health check failed", zap.Error(err))
			}
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	writeOK(w, http.StatusOK, HealthResponse{Service: ServiceName, Version: h.Version})
}

// DocumentTypes handles GET /api/document-types.
func (h *InfoHandler) DocumentTypes(w http.ResponseWriter, _ *http.Request) {
	writeOK(w, http.StatusOK, map[string][]string{"types": DocumentTypes})
}

// VerificationTemplates handles GET /api/verification-templates.
func (h *InfoHandler) VerificationTemplates(w http.ResponseWriter, _ *http.Request) {
	writeOK(w, http.StatusOK, map[string][]VerificationTemplate{"templates": VerificationTemplates})
}
