package ops

import (
	"strings"
	"time"

	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/errors"
)

// Pagination limits
const (
	DefaultListLimit      = 20
	MaxListLimit          = 100
	DefaultProposalsLimit = 100
	MaxProposalsLimit     = 500
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// clampLimit applies a default and an upper bound to a requested page size.
func clampLimit(limit, def, maxLimit int) int {
	if limit <= 0 {
		return def
	}
	return min(limit, maxLimit)
}

// ValidateRunID trims id and rejects an empty one.
func ValidateRunID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errors.NewInvalidRequest("id is required")
	}
	return id, nil
}

// ParseSince accepts an RFC3339 timestamp or a Go duration such as "72h",
// which is taken relative to now. Empty means no cutoff.
func ParseSince(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return now.Add(-d), nil
	}
	return time.Time{}, errors.NewInvalidRequest("since must be an RFC3339 timestamp or a positive duration like 72h")
}
