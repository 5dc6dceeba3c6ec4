package service

import (
	"strings"
	"time"
)

// now reads the injected clock, falling back to the wall clock. All stored
// timestamps are UTC.
func now(fn func() time.Time) time.Time {
	if fn != nil {
		return fn().UTC()
	}
	return time.Now().UTC()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
