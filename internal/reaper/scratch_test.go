package reaper

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSweepScratch_RemovesOldFilesKeepsFresh(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "job-old.mp4")
	fresh := filepath.Join(dir, "job-fresh.mp4")
	if err := os.WriteFile(old, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(fresh, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	oldTime := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(old, oldTime, oldTime); err != nil {
		t.Fatal(err)
	}

	removed, errs := sweepScratch(dir, time.Now())
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("expected old file removed")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Error("expected fresh file kept")
	}
}

func TestSweepScratch_PrunesEmptySubdirRegardlessOfAge(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "job-1")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	_, errs := sweepScratch(dir, time.Now())
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if _, err := os.Stat(sub); !os.IsNotExist(err) {
		t.Error("expected empty subdirectory pruned")
	}
}

func TestSweepScratch_MissingDirIsNotError(t *testing.T) {
	removed, errs := sweepScratch(filepath.Join(t.TempDir(), "does-not-exist"), time.Now())
	if removed != 0 || len(errs) != 0 {
		t.Errorf("expected no-op on missing dir, got removed=%d errs=%v", removed, errs)
	}
}
