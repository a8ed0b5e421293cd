// Package repo defines the persistence-contract interfaces domain and
// application services depend on. Concrete adapters (internal/storage/kv,
// internal/storage/filestore) implement these against a real backing store.
package repo

import (
	"context"
	"time"

	"kingo/internal/domain/archive"
	"kingo/internal/domain/file"
	"kingo/internal/domain/job"
	"kingo/internal/domain/rlimit"
	"kingo/internal/domain/vo"
)

// JobRepository persists DownloadJob aggregates. UpdateProgress and
// SaveExisting must be atomic read-modify-write operations at the store —
// callers never blind-save a full record without first confirming it still
// exists, to avoid resurrecting a job a concurrent cancellation deleted.
type JobRepository interface {
	Save(ctx context.Context, j job.DownloadJob) error
	SaveExisting(ctx context.Context, j job.DownloadJob) error
	Get(ctx context.Context, jobID string) (job.DownloadJob, error)
	Delete(ctx context.Context, jobID string) error
	Exists(ctx context.Context, jobID string) (bool, error)
	UpdateProgress(ctx context.Context, jobID string, progress vo.JobProgress, now time.Time) error
	ExpiredJobIDs(ctx context.Context, olderThan time.Duration, now time.Time) ([]string, error)
}

// FileRepository persists DownloadedFile metadata (token/job_id mapping,
// TTL). It never touches raw bytes — that's FileStorageRepository's job.
type FileRepository interface {
	Save(ctx context.Context, f file.DownloadedFile) error
	GetByToken(ctx context.Context, token vo.DownloadToken) (file.DownloadedFile, error)
	GetByJobID(ctx context.Context, jobID string) (file.DownloadedFile, bool, error)
	Delete(ctx context.Context, token vo.DownloadToken) error
	ExpiredTokens(ctx context.Context, now time.Time) ([]vo.DownloadToken, error)
}

// JobArchiveRepository persists terminal-job snapshots for audit/history.
type JobArchiveRepository interface {
	Save(ctx context.Context, a archive.JobArchive) error
	Get(ctx context.Context, jobID string) (archive.JobArchive, error)
}

// RateLimitRepository persists per-client-IP admission counters. Increment
// is the admission mutation and must be atomic: read-check-bump-expire as
// one script. ResetCounter deletes a client's counter outright.
type RateLimitRepository interface {
	GetState(ctx context.Context, clientIP vo.ClientIP, limit vo.RateLimit, now time.Time) (rlimit.State, error)
	Increment(ctx context.Context, clientIP vo.ClientIP, limit vo.RateLimit, resetAt, now time.Time) (rlimit.State, error)
	ResetCounter(ctx context.Context, clientIP vo.ClientIP, limitType string) error
}

// FileStorageRepository abstracts physical byte storage so the domain core
// stays backend-agnostic (filesystem today, conceivably an object store).
type FileStorageRepository interface {
	Save(ctx context.Context, path string, content []byte) error
	Get(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
	GetSize(ctx context.Context, path string) (int64, bool, error)
	BasePath() string
}
