// Package status resolves the validity shown to verifiers from a document's
// raw flag and expiry date.
package status

import (
	"strings"
	"time"

	"github.com/atinyakov/docverify/internal/models"
)

// WarningWindowDays is how many days before expiry a valid document starts
// resolving to a warning. Both ends are inclusive.
const WarningWindowDays = 30

const secondsPerDay = 24 * 60 * 60

var dateLayouts = []string{
	time.DateOnly,
	time.RFC3339Nano,
	time.DateTime,
}

// ParseDate parses a stored calendar date. It reports false for anything
// that is not a real date, including the zero date some databases emit.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil && t.Year() > 0 {
			return t, true
		}
	}
	return time.Time{}, false
}

// Resolve maps a document to valid, warning or invalid as of now.
// Anything it cannot make sense of resolves to invalid.
func Resolve(doc *models.Document, now time.Time) models.Status {
	if doc == nil {
		return models.StatusInvalid
	}

	switch doc.Status {
	case models.StatusRevoked, models.StatusInvalid:
		return models.StatusInvalid
	case models.StatusWarning:
		return models.StatusWarning
	case models.StatusValid:
		return resolveValid(doc.ExpiryDate, now)
	default:
		return models.StatusInvalid
	}
}

func resolveValid(expiry *string, now time.Time) models.Status {
	if expiry == nil || strings.TrimSpace(*expiry) == "" {
		return models.StatusValid
	}

	date, ok := ParseDate(*expiry)
	if !ok {
		return models.StatusInvalid
	}

	days := DaysUntil(date, now)
	switch {
	case days < 0:
		return models.StatusInvalid
	case days <= WarningWindowDays:
		return models.StatusWarning
	default:
		return models.StatusValid
	}
}

// DaysUntil returns the signed number of calendar days from the date of now
// to the date of t. Time of day is ignored on both sides.
func DaysUntil(t, now time.Time) int {
	ey, em, ed := t.Date()
	ny, nm, nd := now.Date()
	expiry := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)
	today := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	return int((expiry.Unix() - today.Unix()) / secondsPerDay)
}
