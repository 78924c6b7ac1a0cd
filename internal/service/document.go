// Package service provides the document issuance and verification business
// logic, delegating persistence to a DocumentRepository.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/docverify/internal/codegen"
	"github.com/atinyakov/docverify/internal/models"
	"github.com/atinyakov/docverify/internal/pin"
	"github.com/atinyakov/docverify/internal/status"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxCodeAttempts bounds how many candidate codes are tried before issuance
// gives up with models.ErrCodeExhausted.
const MaxCodeAttempts = 5

// DocumentRepository defines the persistence operations needed by the DocumentService.
type DocumentRepository interface {
	// Create stores doc and returns its new ID. It returns
	// models.ErrDuplicateCode if the public code is already taken.
	Create(ctx context.Context, doc *models.Document) (int64, error)
	// FetchByCode returns the document with the given public code or models.ErrNotFound.
	FetchByCode(ctx context.Context, publicCode string) (*models.Document, error)
	// ExistsByCode reports whether the public code is taken.
	ExistsByCode(ctx context.Context, publicCode string) (bool, error)
	// RotateCode atomically replaces the public code of a document.
	RotateCode(ctx context.Context, id int64, newCode string) error
	// AppendVerification adds an entry to the verification log.
	AppendVerification(ctx context.Context, rec models.VerificationRecord) error
}

// Metrics receives business counters from the service.
type Metrics interface {
	IncDocumentsIssued()
	IncCodesRotated()
	IncCodeCollisions()
	IncVerifications(status string)
}

// CreateInput carries the fields accepted when issuing a document.
type CreateInput struct {
	InternalCode string
	DocumentType *string
	Issuer       *string
	IssueDate    *string
	ExpiryDate   *string
	// Status defaults to valid when empty.
	Status   models.Status
	Metadata json.RawMessage
	// PIN is hashed before storage; empty means no PIN.
	PIN string
}

// Option configures a DocumentService.
type Option func(*DocumentService)

// WithCodeLength sets the length of issued public codes.
func WithCodeLength(n int) Option {
	return func(s *DocumentService) { s.codeLength = n }
}

// WithClock replaces time.Now, which decides what "today" is for status resolution.
func WithClock(now func() time.Time) Option {
	return func(s *DocumentService) { s.now = now }
}

// WithCodeGenerator replaces codegen.Generate.
func WithCodeGenerator(gen func(length int) (string, error)) Option {
	return func(s *DocumentService) { s.generate = gen }
}

// WithPINHasher replaces pin.Hash.
func WithPINHasher(hash func(string) (string, error)) Option {
	return func(s *DocumentService) { s.hashPIN = hash }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(s *DocumentService) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *DocumentService) { s.log = l }
}

// DocumentService implements document issuance, lookup, verification and
// code rotation.
type DocumentService struct {
	repo       DocumentRepository
	codeLength int
	now        func() time.Time
	generate   func(int) (string, error)
	hashPIN    func(string) (string, error)
	metrics    Metrics
	log        *zap.Logger
}

// NewDocumentService constructs a DocumentService backed by repo.
func NewDocumentService(repo DocumentRepository, opts ...Option) *DocumentService {
	s := &DocumentService{
		repo:       repo,
		codeLength: codegen.DefaultLength,
		now:        time.Now,
		generate:   codegen.Generate,
		hashPIN:    pin.Hash,
		metrics:    nopMetrics{},
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IssueUniqueCode returns a public code that no stored document carries at
// the time of the check.
func (s *DocumentService) IssueUniqueCode(ctx context.Context) (string, error) {
	return s.withUniqueCode(ctx, func(string) error { return nil })
}

// withUniqueCode generates candidates until one is free and persist accepts
// it. A models.ErrDuplicateCode from persist means another writer took the
// code between the check and the write, and counts as a collision.
func (s *DocumentService) withUniqueCode(ctx context.Context, persist func(code string) error) (string, error) {
	for attempt := 1; attempt <= MaxCodeAttempts; attempt++ {
		code, err := s.generate(s.codeLength)
		if err != nil {
			return "", fmt.Errorf("generate public code: %w", err)
		}

		exists, err := s.repo.ExistsByCode(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			err = persist(code)
			if err == nil {
				return code, nil
			}
			if !errors.Is(err, models.ErrDuplicateCode) {
				return "", err
			}
		}

		s.metrics.IncCodeCollisions()
		s.log.Warn("public code collision", zap.Int("attempt", attempt))
	}
	s.log.Error("public code attempts exhausted", zap.Int("attempts", MaxCodeAttempts))
	return "", models.ErrCodeExhausted
}

// Create issues a new document under a fresh public code.
func (s *DocumentService) Create(ctx context.Context, in CreateInput) (*models.Document, error) {
	if in.InternalCode == "" {
		return nil, fmt.Errorf("%w: internal_code is required", models.ErrInvalidInput)
	}

	st := in.Status
	if st == "" {
		st = models.StatusValid
	}
	if !st.IsRaw() {
		return nil, fmt.Errorf("%w: status must be one of valid, warning, invalid, revoked", models.ErrInvalidInput)
	}

	doc := &models.Document{
		InternalCode: in.InternalCode,
		DocumentType: in.DocumentType,
		Issuer:       in.Issuer,
		IssueDate:    in.IssueDate,
		ExpiryDate:   in.ExpiryDate,
		Status:       st,
		Metadata:     in.Metadata,
	}

	if in.PIN != "" {
		hash, err := s.hashPIN(in.PIN)
		if err != nil {
			return nil, fmt.Errorf("hash pin: %w", err)
		}
		doc.PINHash = &hash
	}

	_, err := s.withUniqueCode(ctx, func(code string) error {
		doc.PublicCode = code
		_, err := s.repo.Create(ctx, doc)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncDocumentsIssued()
	s.log.Info("document issued",
		zap.Int64("document_id", doc.ID),
		zap.String("status", string(doc.Status)),
		zap.Bool("pin_protected", doc.PINHash != nil),
	)
	return doc, nil
}

// Fetch returns the public view of the document behind publicCode without
// recording a verification.
func (s *DocumentService) Fetch(ctx context.Context, publicCode, suppliedPIN string) (*models.DocumentView, error) {
	doc, err := s.lookup(ctx, publicCode, suppliedPIN)
	if err != nil {
		return nil, err
	}
	return doc.View(status.Resolve(doc, s.now())), nil
}

// Verify is Fetch plus an entry in the verification log. The entry is
// written before the view is returned, and a failed write fails the call.
func (s *DocumentService) Verify(ctx context.Context, publicCode, suppliedPIN string, client models.ClientInfo) (*models.DocumentView, error) {
	doc, err := s.lookup(ctx, publicCode, suppliedPIN)
	if err != nil {
		return nil, err
	}
	resolved := status.Resolve(doc, s.now())

	rec := models.VerificationRecord{
		ID:             uuid.New(),
		DocumentID:     doc.ID,
		PublicCodeUsed: publicCode,
		Status:         resolved,
		Client:         client,
	}
	if err := s.repo.AppendVerification(ctx, rec); err != nil {
		return nil, err
	}

	s.metrics.IncVerifications(string(resolved))
	s.log.Info("document verified",
		zap.Int64("document_id", doc.ID),
		zap.String("status", string(resolved)),
		zap.String("client_ip", client.Address),
		zap.String("client_browser", client.Browser),
		zap.String("client_os", client.OS),
		zap.Bool("client_mobile", client.Mobile),
	)
	return doc.View(resolved), nil
}

// Rotate replaces the public code of the document behind publicCode and
// returns the new code. The old code stops resolving.
func (s *DocumentService) Rotate(ctx context.Context, publicCode string) (string, error) {
	if publicCode == "" {
		return "", fmt.Errorf("%w: public_code is required", models.ErrInvalidInput)
	}
	doc, err := s.repo.FetchByCode(ctx, publicCode)
	if err != nil {
		return "", err
	}

	newCode, err := s.withUniqueCode(ctx, func(code string) error {
		return s.repo.RotateCode(ctx, doc.ID, code)
	})
	if err != nil {
		return "", err
	}

	s.metrics.IncCodesRotated()
	s.log.Info("public code rotated", zap.Int64("document_id", doc.ID))
	return newCode, nil
}

func (s *DocumentService) lookup(ctx context.Context, publicCode, suppliedPIN string) (*models.Document, error) {
	if publicCode == "" {
		return nil, fmt.Errorf("%w: public_code is required", models.ErrInvalidInput)
	}
	doc, err := s.repo.FetchByCode(ctx, publicCode)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(doc, suppliedPIN); err != nil {
		return nil, err
	}
	return doc, nil
}

// authorize lets the caller through when the document has no PIN, or when
// the supplied PIN matches. Every other case is models.ErrUnauthorized.
func (s *DocumentService) authorize(doc *models.Document, suppliedPIN string) error {
	if doc.PINHash == nil || *doc.PINHash == "" {
		return nil
	}
	if suppliedPIN == "" {
		return models.ErrUnauthorized
	}
	ok, err := pin.Verify(suppliedPIN, *doc.PINHash)
	if err != nil {
		s.log.Warn("stored pin hash is unusable", zap.Int64("document_id", doc.ID), zap.Error(err))
		return models.ErrUnauthorized
	}
	if !ok {
		return models.ErrUnauthorized
	}
	return nil
}

type nopMetrics struct{}

func (nopMetrics) IncDocumentsIssued()     {}
func (nopMetrics) IncCodesRotated()        {}
func (nopMetrics) IncCodeCollisions()      {}
func (nopMetrics) IncVerifications(string) {}
