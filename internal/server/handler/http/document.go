// Package http provides the HTTP handlers and routing of the document
// verification API.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/atinyakov/docverify/internal/clientinfo"
	"github.com/atinyakov/docverify/internal/middleware"
	"github.com/atinyakov/docverify/internal/models"
	"github.com/atinyakov/docverify/internal/service"
	"go.uber.org/zap"
)

// maxBodyBytes caps request bodies; documents are small JSON objects.
const maxBodyBytes = 1 << 20

// DocumentService defines the document operations required by the DocumentHandler.
type DocumentService interface {
	// Create issues a document and returns it with its public code set.
	Create(ctx context.Context, in service.CreateInput) (*models.Document, error)
	// Fetch returns the public view of a document without recording a verification.
	Fetch(ctx context.Context, publicCode, pin string) (*models.DocumentView, error)
	// Verify returns the public view of a document and records the verification.
	Verify(ctx context.Context, publicCode, pin string, client models.ClientInfo) (*models.DocumentView, error)
	// Rotate replaces the public code of a document and returns the new one.
	Rotate(ctx context.Context, publicCode string) (string, error)
}

// DocumentHandler handles the document endpoints.
type DocumentHandler struct {
	// DocumentService performs the underlying document operations.
	DocumentService DocumentService
	// Log receives unexpected errors. A nil Log discards them.
	Log *zap.Logger
}

// pinValue accepts a PIN sent either as a JSON string or as a JSON number.
type pinValue string

func (p *pinValue) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = pinValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*p = pinValue(n.String())
	return nil
}

// CreateRequest is the JSON body of POST /api/document_create.
type CreateRequest struct {
	InternalCode string          `json:"internal_code"`
	DocumentType *string         `json:"document_type"`
	Issuer       *string         `json:"issuer"`
	IssueDate    *string         `json:"issue_date"`
	ExpiryDate   *string         `json:"expiry_date"`
	Status       string          `json:"status"`
	Metadata     json.RawMessage `json:"metadata"`
	PIN          pinValue        `json:"pin"`
}

// CreateResponse is returned for a newly issued document.
type CreateResponse struct {
	PublicCode   string `json:"public_code"`
	InternalCode string `json:"internal_code"`
}

// CodeRequest is the JSON body of POST /api/verify and POST /api/document_rotate.
type CodeRequest struct {
	PublicCode string   `json:"public_code"`
	PIN        pinValue `json:"pin"`
}

// RotateResponse reports the retired and the new public code.
type RotateResponse struct {
	OldPublicCode string `json:"old_public_code"`
	PublicCode    string `json:"public_code"`
}

// Create handles POST /api/document_create.
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	decodeBody(w, r, &req)

	doc, err := h.DocumentService.Create(r.Context(), service.CreateInput{
		InternalCode: req.InternalCode,
		DocumentType: req.DocumentType,
		Issuer:       req.Issuer,
		IssueDate:    req.IssueDate,
		ExpiryDate:   req.ExpiryDate,
		Status:       models.Status(req.Status),
		Metadata:     normalizeMetadata(req.Metadata),
		PIN:          string(req.PIN),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeOK(w, http.StatusCreated, CreateResponse{
		PublicCode:   doc.PublicCode,
		InternalCode: doc.InternalCode,
	})
}

// Fetch handles GET /api/document?public_code=…&pin=….
func (h *DocumentHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view, err := h.DocumentService.Fetch(r.Context(), q.Get("public_code"), suppliedPIN(r, q.Get("pin")))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, view)
}

// Verify handles POST /api/verify.
func (h *DocumentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req CodeRequest
	decodeBody(w, r, &req)

	view, err := h.DocumentService.Verify(r.Context(), req.PublicCode, suppliedPIN(r, string(req.PIN)), clientinfo.FromRequest(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, view)
}

// Rotate handles POST /api/document_rotate.
func (h *DocumentHandler) Rotate(w http.ResponseWriter, r *http.Request) {
	var req CodeRequest
	decodeBody(w, r, &req)

	newCode, err := h.DocumentService.Rotate(r.Context(), req.PublicCode)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, RotateResponse{
		OldPublicCode: req.PublicCode,
		PublicCode:    newCode,
	})
}

// fail maps err to a status code and writes the error envelope.
func (h *DocumentHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, strings.TrimPrefix(err.Error(), models.ErrInvalidInput.Error()+": "))
	case errors.Is(err, models.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, models.ErrUnauthorized.Error())
	case errors.Is(err, models.ErrNotFound):
		writeError(w, http.StatusNotFound, models.ErrNotFound.Error())
	case errors.Is(err, models.ErrCodeExhausted):
		writeError(w, http.StatusInternalServerError, models.ErrCodeExhausted.Error())
	default:
		if h.Log != nil {
			h.Log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		}
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeBody fills dst from the JSON request body. A body that is missing,
// too large or not a JSON object leaves dst at its zero value, so the
// required field checks downstream answer with 400.
func decodeBody[T any](w http.ResponseWriter, r *http.Request, dst *T) {
	if r.Body == nil {
		return
	}
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var zero T
		*dst = zero
	}
}

// suppliedPIN prefers the PIN from the query or body and falls back to the
// X-PIN-Code header.
func suppliedPIN(r *http.Request, fromRequest string) string {
	if fromRequest != "" {
		return fromRequest
	}
	return middleware.GetPINFromContext(r.Context())
}

// normalizeMetadata unwraps metadata sent as a JSON string that itself holds
// a JSON object or array. Any other value is stored unchanged.
func normalizeMetadata(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return raw
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return raw
	}
	inner := bytes.TrimSpace([]byte(s))
	if len(inner) > 0 && (inner[0] == '{' || inner[0] == '[') && json.Valid(inner) {
		return json.RawMessage(inner)
	}
	return raw
}
