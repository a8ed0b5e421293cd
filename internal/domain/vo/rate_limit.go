package vo

import "fmt"

// RateLimit describes one admission rule: at most Limit requests per
// WindowSeconds, identified by LimitType (e.g. "per_minute", "daily_total").
type RateLimit struct {
	Limit         int
	WindowSeconds int
	LimitType     string
}

// NewRateLimit validates and constructs a RateLimit.
func NewRateLimit(limit, windowSeconds int, limitType string) (RateLimit, error) {
	if limit <= 0 {
		return RateLimit{}, fmt.Errorf("rate limit must be positive, got %d", limit)
	}
	if windowSeconds <= 0 {
		return RateLimit{}, fmt.Errorf("rate limit window must be positive, got %d", windowSeconds)
	}
	if limitType == "" {
		return RateLimit{}, fmt.Errorf("rate limit type is required")
	}
	return RateLimit{Limit: limit, WindowSeconds: windowSeconds, LimitType: limitType}, nil
}
