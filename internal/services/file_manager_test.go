package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"kingo/internal/domain/vo"
	apperrors "kingo/internal/errors"
	"kingo/internal/services"
	"kingo/internal/storage/filestore"
	"kingo/internal/storage/kv"
)

func newFileManager(t *testing.T) *services.FileManager {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run() error: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	files := kv.NewFileRepository(kv.NewClientFromRedis(rdb))

	store, err := filestore.New(t.TempDir())
	if err != nil {
		t.Fatalf("filestore.New() error: %v", err)
	}
	return services.NewFileManager(files, store, nil)
}

func TestFileManager_RegisterAndReadBytes(t *testing.T) {
	ctx := context.Background()
	mgr := newFileManager(t)

	entry, err := mgr.RegisterFile(ctx, "job-1/video.mp4", "job-1", "video.mp4", time.Hour)
	if err != nil {
		t.Fatalf("RegisterFile() error: %v", err)
	}
	if entry.HasFilesize() {
		t.Error("expected no filesize for a file that was never written")
	}

	_, _, err = mgr.ReadBytes(ctx, entry.Token)
	if err == nil {
		t.Fatal("expected an error reading bytes for a file never written to storage")
	}
}

func TestFileManager_GetByToken_ExpiredIsDeletedAndErrors(t *testing.T) {
	ctx := context.Background()
	mgr := newFileManager(t)

	entry, err := mgr.RegisterFile(ctx, "job-2/video.mp4", "job-2", "video.mp4", time.Millisecond)
	if err != nil {
		t.Fatalf("RegisterFile() error: %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	_, err = mgr.GetByToken(ctx, entry.Token)
	if !errors.Is(err, apperrors.ErrFileExpired) {
		t.Fatalf("expected ErrFileExpired, got %v", err)
	}
}

func TestFileManager_GetByJobID_ReplacesPriorEntry(t *testing.T) {
	ctx := context.Background()
	mgr := newFileManager(t)

	first, err := mgr.RegisterFile(ctx, "job-3/v1.mp4", "job-3", "v1.mp4", time.Hour)
	if err != nil {
		t.Fatalf("RegisterFile() error: %v", err)
	}
	second, err := mgr.RegisterFile(ctx, "job-3/v2.mp4", "job-3", "v2.mp4", time.Hour)
	if err != nil {
		t.Fatalf("RegisterFile() error: %v", err)
	}

	entry, ok, err := mgr.GetByJobID(ctx, "job-3")
	if err != nil || !ok {
		t.Fatalf("GetByJobID() = %v, %v, %v", entry, ok, err)
	}
	if entry.Token.String() != second.Token.String() {
		t.Errorf("GetByJobID() returned stale entry %q, want %q", entry.Token, second.Token)
	}

	if _, err := mgr.GetByToken(ctx, first.Token); err == nil {
		t.Error("expected the superseded token to have been removed")
	}
}

func TestFileManager_DeleteByToken_RemovesEntry(t *testing.T) {
	ctx := context.Background()
	mgr := newFileManager(t)

	entry, err := mgr.RegisterFile(ctx, "job-4/v.mp4", "job-4", "v.mp4", time.Hour)
	if err != nil {
		t.Fatalf("RegisterFile() error: %v", err)
	}

	if err := mgr.DeleteByToken(ctx, entry.Token, true); err != nil {
		t.Fatalf("DeleteByToken() error: %v", err)
	}
	if _, err := mgr.GetByToken(ctx, entry.Token); err == nil {
		t.Error("expected entry to be gone after DeleteByToken")
	}
}

func TestDownloadURLFor(t *testing.T) {
	tok, err := vo.GenerateDownloadToken()
	if err != nil {
		t.Fatalf("GenerateDownloadToken() error: %v", err)
	}
	want := "https://host.example" + "/api/v1/downloads/file/" + tok.String()
	if got := services.DownloadURLFor("https://host.example", tok); got != want {
		t.Errorf("DownloadURLFor() = %q, want %q", got, want)
	}
}
