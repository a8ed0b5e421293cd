package job_test

import (
	"errors"
	"testing"
	"time"

	"kingo/internal/domain/job"
	"kingo/internal/domain/vo"
	apperrors "kingo/internal/errors"
)

func TestCreate_StartsPendingWithInitialProgress(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	j := job.Create("job-1", "https://example.com/watch", "", now)

	if j.Status != vo.JobPending {
		t.Errorf("Status = %q, want %q", j.Status, vo.JobPending)
	}
	if j.Progress.Percentage != 0 || j.Progress.Phase != "initializing" {
		t.Errorf("unexpected initial progress: %+v", j.Progress)
	}
	if !j.FormatID.IsAuto() {
		t.Error("expected empty format_id to default to auto")
	}
}

func TestStart_PendingToProcessingEmitsEvent(t *testing.T) {
	now := time.Now()
	j := job.Create("job-1", "https://example.com", "", now)

	ev, err := j.Start(now.Add(time.Second))
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if ev == nil {
		t.Fatal("expected a JobStarted event")
	}
	if j.Status != vo.JobProcessing {
		t.Errorf("Status = %q, want processing", j.Status)
	}
	if j.Progress.Phase != "extracting metadata" {
		t.Errorf("Phase = %q, want 'extracting metadata'", j.Progress.Phase)
	}
}

func TestStart_AlreadyProcessingIsNoOp(t *testing.T) {
	now := time.Now()
	j := job.Create("job-1", "https://example.com", "", now)
	if _, err := j.Start(now); err != nil {
		t.Fatalf("first Start() error: %v", err)
	}

	ev, err := j.Start(now.Add(time.Second))
	if err != nil {
		t.Fatalf("second Start() error: %v", err)
	}
	if ev != nil {
		t.Error("expected no event on idempotent Start")
	}
}

func TestStart_FromTerminalStateIsIllegal(t *testing.T) {
	now := time.Now()
	j := job.Create("job-1", "https://example.com", "", now)
	j.Fail("boom", "system_error", now)

	_, err := j.Start(now)
	if !errors.Is(err, apperrors.ErrJobState) {
		t.Fatalf("expected ErrJobState, got %v", err)
	}
}

func TestUpdateProgress_OnlyLegalWhileProcessing(t *testing.T) {
	now := time.Now()
	j := job.Create("job-1", "https://example.com", "", now)

	progress := vo.Downloading(50, "1MiB/s", 10, true)
	if _, err := j.UpdateProgress(progress, now); !errors.Is(err, apperrors.ErrJobState) {
		t.Fatalf("expected ErrJobState before Start, got %v", err)
	}

	if _, err := j.Start(now); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	ev, err := j.UpdateProgress(progress, now.Add(time.Second))
	if err != nil {
		t.Fatalf("UpdateProgress() error: %v", err)
	}
	if ev == nil {
		t.Fatal("expected a JobProgressUpdated event")
	}
	if j.Progress.Percentage != 50 {
		t.Errorf("Percentage = %d, want 50", j.Progress.Percentage)
	}
}

func TestComplete_ForcesProgressTo100(t *testing.T) {
	now := time.Now()
	j := job.Create("job-1", "https://example.com", "", now)
	if _, err := j.Start(now); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if _, err := j.UpdateProgress(vo.Downloading(40, "", 0, false), now); err != nil {
		t.Fatalf("UpdateProgress() error: %v", err)
	}

	token, err := vo.GenerateDownloadToken()
	if err != nil {
		t.Fatalf("GenerateDownloadToken() error: %v", err)
	}
	expireAt := now.Add(10 * time.Minute)
	ev, err := j.Complete("https://host/file/tok", token, expireAt, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if ev == nil {
		t.Fatal("expected a JobCompleted event")
	}
	if j.Status != vo.JobCompleted {
		t.Errorf("Status = %q, want completed", j.Status)
	}
	if j.Progress.Percentage != 100 {
		t.Errorf("Percentage = %d, want 100", j.Progress.Percentage)
	}
	if !j.HasExpireAt() || !j.ExpireAt.Equal(expireAt) {
		t.Errorf("ExpireAt not recorded correctly: %+v hasExpireAt=%v", j.ExpireAt, j.HasExpireAt())
	}
}

func TestComplete_IllegalFromPending(t *testing.T) {
	now := time.Now()
	j := job.Create("job-1", "https://example.com", "", now)
	token, _ := vo.GenerateDownloadToken()
	if _, err := j.Complete("url", token, now, now); !errors.Is(err, apperrors.ErrJobState) {
		t.Fatalf("expected ErrJobState, got %v", err)
	}
}

func TestFail_AlwaysLegal(t *testing.T) {
	now := time.Now()
	pending := job.Create("job-1", "https://example.com", "", now)
	ev := pending.Fail("network error", "network_error", now)
	if ev == nil {
		t.Fatal("expected a JobFailed event")
	}
	if pending.Status != vo.JobFailed {
		t.Errorf("Status = %q, want failed", pending.Status)
	}

	processing := job.Create("job-2", "https://example.com", "", now)
	if _, err := processing.Start(now); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	processing.Fail("disk full", "system_error", now)
	if processing.Status != vo.JobFailed {
		t.Errorf("Status = %q, want failed", processing.Status)
	}
}

func TestToMapFromMap_RoundTrips(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	j := job.Create("job-1", "https://example.com", "137", now)
	if _, err := j.Start(now); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	token, _ := vo.GenerateDownloadToken()
	expireAt := now.Add(time.Hour)
	if _, err := j.UpdateProgress(vo.Downloading(60, "2MiB/s", 5, true), now); err != nil {
		t.Fatalf("UpdateProgress() error: %v", err)
	}
	if _, err := j.Complete("https://host/f", token, expireAt, now); err != nil {
		t.Fatalf("Complete() error: %v", err)
	}

	m := j.ToMap()
	restored, err := job.FromMap(m)
	if err != nil {
		t.Fatalf("FromMap() error: %v", err)
	}

	if restored.JobID != j.JobID || restored.URL != j.URL || restored.Status != j.Status {
		t.Errorf("round-trip mismatch: %+v vs %+v", restored, j)
	}
	if restored.Progress.Percentage != 100 {
		t.Errorf("restored progress percentage = %d, want 100", restored.Progress.Percentage)
	}
	if !restored.DownloadToken.Equal(token) {
		t.Error("restored download token does not match")
	}
	if !restored.HasExpireAt() || !restored.ExpireAt.Equal(expireAt) {
		t.Error("restored expire_at does not match")
	}
}

func TestFromMap_RejectsInvalidStatus(t *testing.T) {
	_, err := job.FromMap(map[string]any{
		"job_id":     "job-1",
		"url":        "https://example.com",
		"status":     "bogus",
		"created_at": time.Now().UTC().Format(time.RFC3339),
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err == nil {
		t.Fatal("expected an error for an invalid status")
	}
}
