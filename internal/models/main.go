// Package models defines the core data structures for documents and
// verification records.
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status is a document lifecycle flag. The same type carries both the raw
// value stored with a document and the resolved value shown to verifiers.
type Status string

const (
	// StatusValid marks a genuine document that is in force.
	StatusValid Status = "valid"
	// StatusWarning marks a genuine document that needs attention, either
	// set explicitly or because its expiry date is close.
	StatusWarning Status = "warning"
	// StatusInvalid marks a document that must not be trusted.
	StatusInvalid Status = "invalid"
	// StatusRevoked is a raw flag only; it always resolves to StatusInvalid.
	StatusRevoked Status = "revoked"
)

// IsRaw reports whether s is one of the flags a document may be stored with.
func (s Status) IsRaw() bool {
	switch s {
	case StatusValid, StatusWarning, StatusInvalid, StatusRevoked:
		return true
	}
	return false
}

// Document is an issued record addressed by its public code.
type Document struct {
	// ID is the store-assigned identifier. It is never exposed to verifiers.
	ID int64
	// PublicCode is the opaque, URL-safe code printed on the document.
	PublicCode string
	// InternalCode ties the document to the issuer's own records.
	InternalCode string
	DocumentType *string
	Issuer       *string
	// IssueDate and ExpiryDate are kept exactly as submitted.
	IssueDate  *string
	ExpiryDate *string
	// Status is the raw flag; empty means the flag is missing.
	Status Status
	// Metadata is an arbitrary JSON value, stored and returned untouched.
	Metadata json.RawMessage
	// PINHash is a PHC-formatted hash, nil when no PIN is required.
	PINHash   *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// View builds the public representation of the document with the given
// resolved status.
func (d *Document) View(resolved Status) *DocumentView {
	return &DocumentView{
		PublicCode:   d.PublicCode,
		DocumentType: d.DocumentType,
		Issuer:       d.Issuer,
		IssueDate:    d.IssueDate,
		ExpiryDate:   d.ExpiryDate,
		Status:       resolved,
		Metadata:     d.Metadata,
	}
}

// DocumentView is what fetch and verify return. Internal fields are left out.
type DocumentView struct {
	PublicCode   string          `json:"public_code"`
	DocumentType *string         `json:"document_type"`
	Issuer       *string         `json:"issuer"`
	IssueDate    *string         `json:"issue_date"`
	ExpiryDate   *string         `json:"expiry_date"`
	Status       Status          `json:"status"`
	Metadata     json.RawMessage `json:"metadata"`
}

// ClientInfo describes the caller of a verification.
type ClientInfo struct {
	// Address is the caller's network address without the port.
	Address   string
	UserAgent string
	// Browser, OS, Mobile and Bot are parsed from UserAgent.
	Browser string
	OS      string
	Mobile  bool
	Bot     bool
}

// VerificationRecord is one append-only entry of the verification log.
type VerificationRecord struct {
	ID             uuid.UUID
	DocumentID     int64
	PublicCodeUsed string
	// Status is the resolved status returned to the caller.
	Status Status
	Client ClientInfo
}
