package kv_test

import (
	"context"
	"testing"
	"time"

	"kingo/internal/storage/kv"
)

func TestLock_AcquireThenSecondAttemptFails(t *testing.T) {
	ctx := context.Background()
	lock := kv.NewLock(newTestClient(t))

	release, ok, err := lock.Acquire(ctx, "reaper:sweep", time.Minute)
	if err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	if !ok || release == nil {
		t.Fatal("expected the first Acquire() to succeed")
	}
	defer release(ctx)

	_, ok2, err := lock.Acquire(ctx, "reaper:sweep", time.Minute)
	if err != nil {
		t.Fatalf("second Acquire() error: %v", err)
	}
	if ok2 {
		t.Error("expected the second Acquire() on the same key to fail while the first holds it")
	}
}

func TestLock_ReleaseAllowsReacquisition(t *testing.T) {
	ctx := context.Background()
	lock := kv.NewLock(newTestClient(t))

	release, ok, err := lock.Acquire(ctx, "reaper:sweep", time.Minute)
	if err != nil || !ok {
		t.Fatalf("Acquire() = %v, %v, %v", release, ok, err)
	}
	release(ctx)

	_, ok2, err := lock.Acquire(ctx, "reaper:sweep", time.Minute)
	if err != nil {
		t.Fatalf("Acquire() after release error: %v", err)
	}
	if !ok2 {
		t.Error("expected reacquisition to succeed after release")
	}
}
