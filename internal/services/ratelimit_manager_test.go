package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"kingo/internal/domain/vo"
	apperrors "kingo/internal/errors"
	"kingo/internal/services"
	"kingo/internal/storage/kv"
)

func newRateLimitManager(t *testing.T, whitelist []string) *services.RateLimitManager {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run() error: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	repo := kv.NewRateLimitRepository(kv.NewClientFromRedis(rdb))
	return services.NewRateLimitManager(repo, whitelist, nil)
}

func TestRateLimitManager_WhitelistedClientAlwaysAdmitted(t *testing.T) {
	ctx := context.Background()
	mgr := newRateLimitManager(t, []string{"10.0.0.1"})

	ip, err := vo.NewClientIP("10.0.0.1")
	if err != nil {
		t.Fatalf("NewClientIP() error: %v", err)
	}
	limit, err := vo.NewRateLimit(1, 60, "per_minute")
	if err != nil {
		t.Fatalf("NewRateLimit() error: %v", err)
	}

	for i := 0; i < 5; i++ {
		if _, err := mgr.CheckAndIncrement(ctx, ip, limit); err != nil {
			t.Fatalf("CheckAndIncrement() iteration %d error: %v", i, err)
		}
	}
}

func TestRateLimitManager_AdmitsUntilLimitThenRejects(t *testing.T) {
	ctx := context.Background()
	mgr := newRateLimitManager(t, nil)

	ip, err := vo.NewClientIP("192.0.2.10")
	if err != nil {
		t.Fatalf("NewClientIP() error: %v", err)
	}
	limit, err := vo.NewRateLimit(2, 60, "per_minute")
	if err != nil {
		t.Fatalf("NewRateLimit() error: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := mgr.CheckAndIncrement(ctx, ip, limit); err != nil {
			t.Fatalf("CheckAndIncrement() admission %d error: %v", i, err)
		}
	}

	_, err = mgr.CheckAndIncrement(ctx, ip, limit)
	var rlErr *apperrors.RateLimitExceededError
	if !errors.As(err, &rlErr) {
		t.Fatalf("expected RateLimitExceededError on the 3rd request, got %v", err)
	}
	if rlErr.LimitType != "per_minute" {
		t.Errorf("LimitType = %q, want per_minute", rlErr.LimitType)
	}
}

func TestRateLimitManager_DifferentClientsHaveIndependentCounters(t *testing.T) {
	ctx := context.Background()
	mgr := newRateLimitManager(t, nil)
	limit, err := vo.NewRateLimit(1, 60, "per_minute")
	if err != nil {
		t.Fatalf("NewRateLimit() error: %v", err)
	}

	a, _ := vo.NewClientIP("203.0.113.1")
	b, _ := vo.NewClientIP("203.0.113.2")

	if _, err := mgr.CheckAndIncrement(ctx, a, limit); err != nil {
		t.Fatalf("client a first request error: %v", err)
	}
	if _, err := mgr.CheckAndIncrement(ctx, b, limit); err != nil {
		t.Fatalf("client b first request should not be rate-limited by a's usage: %v", err)
	}
}
