package archive_test

import (
	"testing"
	"time"

	"kingo/internal/domain/archive"
	"kingo/internal/domain/job"
	"kingo/internal/domain/vo"
)

func TestFromJob_RejectsNonTerminalJob(t *testing.T) {
	now := time.Now()
	j := job.Create("job-1", "https://example.com", "", now)
	if _, err := archive.FromJob(j, now); err == nil {
		t.Fatal("expected error archiving a pending job")
	}

	if _, err := j.Start(now); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if _, err := archive.FromJob(j, now); err == nil {
		t.Fatal("expected error archiving a processing job")
	}
}

func TestFromJob_SnapshotsCompletedJob(t *testing.T) {
	now := time.Now()
	j := job.Create("job-1", "https://example.com", "137", now)
	if _, err := j.Start(now); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	token, _ := vo.GenerateDownloadToken()
	if _, err := j.Complete("https://host/f", token, now.Add(time.Hour), now); err != nil {
		t.Fatalf("Complete() error: %v", err)
	}

	archivedAt := now.Add(2 * time.Hour)
	a, err := archive.FromJob(j, archivedAt)
	if err != nil {
		t.Fatalf("FromJob() error: %v", err)
	}
	if a.JobID != j.JobID || a.Status != vo.JobCompleted {
		t.Errorf("unexpected archive: %+v", a)
	}
	if a.DownloadToken != token.String() {
		t.Errorf("DownloadToken = %q, want %q", a.DownloadToken, token.String())
	}
	if !a.ArchivedAt.Equal(archivedAt) {
		t.Errorf("ArchivedAt = %v, want %v", a.ArchivedAt, archivedAt)
	}
}

func TestFromJob_SnapshotsFailedJobWithErrorDetail(t *testing.T) {
	now := time.Now()
	j := job.Create("job-2", "https://example.com", "", now)
	j.Fail("network timeout", "network_error", now)

	a, err := archive.FromJob(j, now)
	if err != nil {
		t.Fatalf("FromJob() error: %v", err)
	}
	if a.ErrorMessage != "network timeout" || a.ErrorCategory != "network_error" {
		t.Errorf("unexpected error fields: %+v", a)
	}
	if a.DownloadToken != "" {
		t.Errorf("expected empty DownloadToken for a failed job, got %q", a.DownloadToken)
	}
}
