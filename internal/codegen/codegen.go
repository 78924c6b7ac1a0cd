// Package codegen produces random public codes for documents.
package codegen

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

// DefaultLength is the length of codes issued when no other length is configured.
const DefaultLength = 22

// minRandomBytes keeps short codes from being sourced from too little entropy.
const minRandomBytes = 16

// ErrInvalidLength is returned for non-positive lengths.
var ErrInvalidLength = errors.New("code length must be positive")

// Generate returns a code of exactly length characters drawn from the
// URL-safe base64 alphabet. Uniqueness is up to the caller.
func Generate(length int) (string, error) {
	if length <= 0 {
		return "", ErrInvalidLength
	}

	// ceil(length * 0.75) bytes encode to at least length characters.
	n := max(minRandomBytes, (length*3+3)/4)
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	code := base64.RawURLEncoding.EncodeToString(buf)
	return code[:length], nil
}
