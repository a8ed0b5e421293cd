package rlimit

import (
	"strings"
	"time"
)

// NextResetBoundary computes the next alignment point for a limit type's
// window: "daily*" limit types reset at the next UTC midnight, "*hourly*"
// at the next hour boundary, everything else (per-minute/other short
// windows) at the next minute boundary.
func NextResetBoundary(limitType string, now time.Time) time.Time {
	now = now.UTC()
	lower := strings.ToLower(limitType)
	switch {
	case strings.Contains(lower, "daily"):
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	case strings.Contains(lower, "hourly"):
		return time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, time.UTC).Add(time.Hour)
	default:
		return time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), now.Minute(), 0, 0, time.UTC).Add(time.Minute)
	}
}
