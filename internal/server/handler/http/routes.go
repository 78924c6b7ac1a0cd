package http

import (
	"net/http"
	"strings"

	"github.com/atinyakov/docverify/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Endpoints lists the document routes reported by the 404 handler.
var Endpoints = []string{
	"/api/verify",
	"/api/document",
	"/api/document_create",
	"/api/document_rotate",
}

// RouterOptions holds the optional parts of the router.
type RouterOptions struct {
	// Metrics, when set, is mounted on GET /metrics.
	Metrics http.Handler
	// Observer, when set, receives per-route request metrics.
	Observer middleware.RequestObserver
	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	TrustProxy bool
}

// NewRouter constructs and returns an HTTP handler that serves the document
// verification API.
//
// Routes:
//
//	GET  /api/document          → documents.Fetch
//	POST /api/document_create   → documents.Create
//	POST /api/verify            → documents.Verify
//	POST /api/document_rotate   → documents.Rotate
//	GET  /health                → info.Health
//	GET  /api/document-types    → info.DocumentTypes
//	GET  /api/verification-templates → info.VerificationTemplates
//	GET  /metrics               → opts.Metrics
//
// Every document route is also served with a ".php" suffix.
//
// Middleware chain (applied in order):
//  1. RequestID
//  2. RealIP, only with opts.TrustProxy
//  3. WithRequestLogging(logger)
//  4. WithMetrics(opts.Observer)
//  5. CORS, which also answers OPTIONS with 204
//  6. PINFromHeader
func NewRouter(
	documents *DocumentHandler,
	info *InfoHandler,
	logger *zap.Logger,
	opts RouterOptions,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	if opts.TrustProxy {
		r.Use(chiMiddleware.RealIP)
	}
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(middleware.WithMetrics(opts.Observer))
	r.Use(middleware.CORS)
	r.Use(middleware.PINFromHeader)

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Route("/api", func(r chi.Router) {
		for _, suffix := range []string{"", ".php"} {
			r.Get("/document"+suffix, documents.Fetch)
			r.Post("/document_create"+suffix, documents.Create)
			r.Post("/verify"+suffix, documents.Verify)
			r.Post("/document_rotate"+suffix, documents.Rotate)
		}
		r.Get("/document-types", info.DocumentTypes)
		r.Get("/verification-templates", info.VerificationTemplates)
	})
	r.Get("/health", info.Health)

	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	return r
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, "Use "+strings.Join(Endpoints, ", "))
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}
