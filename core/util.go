package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NowFunc returns the current time (UTC). mockable
var NowFunc = func() time.Time { return time.Now().UTC() }

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// NewID returns a new opaque record identifier.
func NewID() string {
	return uuid.New().String()
}

// EqualFold reports whether a and b are equal once cleaned, ignoring case.
func EqualFold(a, b string) bool {
	return strings.EqualFold(CleanString(a), CleanString(b))
}
