// Package rlimit holds the rate-limiting domain entity: the current
// admission state for one client/limit-type pair.
package rlimit

import (
	"strconv"
	"time"

	"kingo/internal/domain/vo"
)

// State is the current counter snapshot for a client IP against one
// configured RateLimit.
type State struct {
	ClientIP     vo.ClientIP
	LimitType    string
	CurrentCount int
	Limit        int
	ResetAt      time.Time
}

// IsExceeded reports whether the current count has reached or passed Limit.
func (s State) IsExceeded() bool { return s.CurrentCount >= s.Limit }

// Remaining returns max(0, Limit - CurrentCount).
func (s State) Remaining() int {
	remaining := s.Limit - s.CurrentCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Headers renders the standard X-RateLimit-* response headers.
func (s State) Headers() map[string]string {
	return map[string]string{
		"X-RateLimit-Limit":     strconv.Itoa(s.Limit),
		"X-RateLimit-Remaining": strconv.Itoa(s.Remaining()),
		"X-RateLimit-Reset":     strconv.FormatInt(s.ResetAt.Unix(), 10),
	}
}
