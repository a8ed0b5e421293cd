package services

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"kingo/internal/domain/repo"
	"kingo/internal/domain/rlimit"
	"kingo/internal/domain/vo"
	apperrors "kingo/internal/errors"
	"kingo/internal/logger"
	"kingo/internal/metrics"
)

// localBurstRate and localBurstSize bound the per-replica flood pre-filter:
// a client sending more than this many requests in a single second is
// shedding load the distributed counters don't need to see at all. This is
// deliberately far above any real RateLimit dimension (per-minute batch,
// daily quotas are all well under this) so it never substitutes for the KV
// store's admission decision — it only protects a replica from being
// hammered by one misbehaving client before Redis is ever consulted.
const (
	localBurstRate = 20
	localBurstSize = 20
)

// RateLimitManager enforces admission limits for a client request across
// whichever RateLimit dimensions apply (per-minute batch, per-type daily,
// total daily, endpoint hourly). Whitelisted clients bypass every check.
// The distributed KV counters are the sole authority for every RateLimit
// dimension; in front of them sits a per-replica, per-client
// golang.org/x/time/rate limiter that only sheds an obvious single-client
// flood before it ever reaches Redis. It is sized far looser than any real
// dimension and keyed by client alone (not by limit type or window), so it
// never shadows a dimension's actual budget and recovers on its own via
// token refill rather than needing to be reset alongside the KV counters.
type RateLimitManager struct {
	repo      repo.RateLimitRepository
	whitelist []string
	now       func() time.Time

	mu     sync.Mutex
	bursts map[string]*rate.Limiter
}

// NewRateLimitManager constructs a RateLimitManager.
func NewRateLimitManager(r repo.RateLimitRepository, whitelist []string, now func() time.Time) *RateLimitManager {
	if now == nil {
		now = time.Now
	}
	return &RateLimitManager{
		repo:      r,
		whitelist: whitelist,
		now:       now,
		bursts:    make(map[string]*rate.Limiter),
	}
}

// CheckAndIncrement enforces limit for clientIP. Whitelisted clients get a
// synthetic unlimited state. On store failure, per the graceful-degradation
// policy, the request is admitted and the failure logged — rate-limit
// enforcement must never be a single point of failure for the service.
func (m *RateLimitManager) CheckAndIncrement(ctx context.Context, clientIP vo.ClientIP, limit vo.RateLimit) (rlimit.State, error) {
	now := m.now()
	resetAt := rlimit.NextResetBoundary(limit.LimitType, now)

	if clientIP.IsWhitelisted(m.whitelist) {
		metrics.RecordRateLimitAdmitted(limit.LimitType, "whitelisted")
		return rlimit.State{
			ClientIP:  clientIP,
			LimitType: limit.LimitType,
			Limit:     limit.Limit,
			ResetAt:   resetAt,
		}, nil
	}

	if !m.localBurstLimiter(clientIP).Allow() {
		state := rlimit.State{
			ClientIP:  clientIP,
			LimitType: limit.LimitType,
			Limit:     limit.Limit,
			ResetAt:   resetAt,
		}
		metrics.RecordRateLimitRejected(limit.LimitType)
		return state, &apperrors.RateLimitExceededError{LimitType: limit.LimitType, ResetAt: resetAt}
	}

	state, err := m.repo.Increment(ctx, clientIP, limit, resetAt, now)
	if err != nil {
		logger.Log.Error().Err(err).Str("limit_type", limit.LimitType).Msg("rate limit store failure, admitting request")
		metrics.RecordRateLimitAdmitted(limit.LimitType, "degraded")
		return rlimit.State{
			ClientIP:  clientIP,
			LimitType: limit.LimitType,
			Limit:     limit.Limit,
			ResetAt:   resetAt,
		}, nil
	}
	if state.IsExceeded() {
		metrics.RecordRateLimitRejected(limit.LimitType)
		return state, &apperrors.RateLimitExceededError{LimitType: limit.LimitType, ResetAt: resetAt}
	}
	metrics.RecordRateLimitAdmitted(limit.LimitType, "normal")
	return state, nil
}

// localBurstLimiter lazily creates a per-client token bucket, shared across
// every limit type for that client, sized to localBurstRate/localBurstSize
// rather than to any individual RateLimit dimension.
func (m *RateLimitManager) localBurstLimiter(clientIP vo.ClientIP) *rate.Limiter {
	key := clientIP.HashForKey()

	m.mu.Lock()
	defer m.mu.Unlock()
	if lim, ok := m.bursts[key]; ok {
		return lim
	}
	lim := rate.NewLimiter(rate.Limit(localBurstRate), localBurstSize)
	m.bursts[key] = lim
	return lim
}
