package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"kingo/internal/domain/rlimit"
	"kingo/internal/domain/vo"
	apperrors "kingo/internal/errors"
)

const rateLimitKeyPrefix = "ratelimit:"

func rateLimitKey(limitType, ipHash string) string {
	return rateLimitKeyPrefix + limitType + ":" + ipHash
}

// RateLimitRepository is the Redis-backed repo.RateLimitRepository
// implementation. Counter keys are ratelimit:<limit_type>:<ip_hash>.
type RateLimitRepository struct {
	client *Client
}

// NewRateLimitRepository constructs a RateLimitRepository.
func NewRateLimitRepository(client *Client) *RateLimitRepository {
	return &RateLimitRepository{client: client}
}

// GetState reads the current counter without incrementing it.
func (r *RateLimitRepository) GetState(ctx context.Context, clientIP vo.ClientIP, limit vo.RateLimit, now time.Time) (rlimit.State, error) {
	key := rateLimitKey(limit.LimitType, clientIP.HashForKey())
	count, err := r.client.Raw().Get(ctx, key).Int()
	if errors.Is(err, redis.Nil) {
		count = 0
	} else if err != nil {
		return rlimit.State{}, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return rlimit.State{
		ClientIP:     clientIP,
		LimitType:    limit.LimitType,
		CurrentCount: count,
		Limit:        limit.Limit,
		ResetAt:      nextResetBoundary(limit.LimitType, now),
	}, nil
}

// Increment atomically checks-then-bumps the counter via incrScript,
// setting the TTL only on the first increment so the window self-expires.
// A result of -1 means the limit was already reached and the script
// refused to increment; the returned State reflects that (CurrentCount
// pinned at Limit) so callers can test IsExceeded without a second round
// trip.
func (r *RateLimitRepository) Increment(ctx context.Context, clientIP vo.ClientIP, limit vo.RateLimit, resetAt, now time.Time) (rlimit.State, error) {
	key := rateLimitKey(limit.LimitType, clientIP.HashForKey())
	count, err := incrScript.Run(ctx, r.client.Raw(), []string{key}, limit.Limit, limit.WindowSeconds).Int()
	if err != nil {
		return rlimit.State{}, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	if count < 0 {
		return rlimit.State{
			ClientIP:     clientIP,
			LimitType:    limit.LimitType,
			CurrentCount: limit.Limit,
			Limit:        limit.Limit,
			ResetAt:      resetAt,
		}, nil
	}
	return rlimit.State{
		ClientIP:     clientIP,
		LimitType:    limit.LimitType,
		CurrentCount: count,
		Limit:        limit.Limit,
		ResetAt:      resetAt,
	}, nil
}

// ResetCounter deletes a client's counter for one limit type.
func (r *RateLimitRepository) ResetCounter(ctx context.Context, clientIP vo.ClientIP, limitType string) error {
	key := rateLimitKey(limitType, clientIP.HashForKey())
	if err := r.client.Raw().Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return nil
}

// nextResetBoundary delegates to the domain's boundary rule so the KV
// adapter and the domain service never disagree on window alignment.
func nextResetBoundary(limitType string, now time.Time) time.Time {
	return rlimit.NextResetBoundary(limitType, now)
}
