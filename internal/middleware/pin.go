// Package middleware provides HTTP middlewares for request logging, CORS,
// metrics and PIN extraction.
package middleware

import (
	"context"
	"net/http"
)

type ctxKey string

const pinKey ctxKey = "pin"

// PINHeader is the request header a client may use to supply a document PIN.
const PINHeader = "X-PIN-Code"

// PINFromHeader copies the X-PIN-Code header, when present, into the
// request context. It never rejects a request; whether a PIN is needed is
// decided per document.
func PINFromHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if v := r.Header.Get(PINHeader); v != "" {
			r = r.WithContext(context.WithValue(r.Context(), pinKey, v))
		}
		next.ServeHTTP(w, r)
	})
}

// GetPINFromContext returns the PIN stored by PINFromHeader.
// Returns an empty string if not found.
func GetPINFromContext(ctx context.Context) string {
	val := ctx.Value(pinKey)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}
