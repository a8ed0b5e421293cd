package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"kingo/internal/domain/archive"
	"kingo/internal/domain/vo"
	apperrors "kingo/internal/errors"
)

const (
	archiveJobKeyPrefix      = "archive:job:"
	archiveStatusIndexPrefix = "archive:index:status:"
	archiveDateIndexPrefix   = "archive:index:date:"
	archiveTTL               = 30 * 24 * time.Hour
)

func archiveJobKey(jobID string) string { return archiveJobKeyPrefix + jobID }

// ArchiveRepository is the Redis-backed repo.JobArchiveRepository
// implementation.
type ArchiveRepository struct {
	client *Client
}

// NewArchiveRepository constructs an ArchiveRepository.
func NewArchiveRepository(client *Client) *ArchiveRepository {
	return &ArchiveRepository{client: client}
}

// Save writes the archive record plus its two secondary indexes as a
// single script, per the archive-save atomicity requirement.
func (r *ArchiveRepository) Save(ctx context.Context, a archive.JobArchive) error {
	data, err := json.Marshal(a.ToMap())
	if err != nil {
		return fmt.Errorf("%w: marshal archive: %v", apperrors.ErrPersistence, err)
	}
	statusIndexKey := archiveStatusIndexPrefix + string(a.Status)
	dateIndexKey := archiveDateIndexPrefix + a.ArchivedAt.UTC().Format("2006-01-02")

	err = archiveSaveScript.Run(ctx, r.client.Raw(),
		[]string{archiveJobKey(a.JobID), statusIndexKey, dateIndexKey},
		string(data), int(archiveTTL.Seconds()), a.ArchivedAt.Unix(), a.JobID,
	).Err()
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return nil
}

// Get loads an archived job snapshot by id.
func (r *ArchiveRepository) Get(ctx context.Context, jobID string) (archive.JobArchive, error) {
	raw, err := r.client.Raw().Get(ctx, archiveJobKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return archive.JobArchive{}, fmt.Errorf("%w: archive %s", apperrors.ErrJobNotFound, jobID)
	}
	if err != nil {
		return archive.JobArchive{}, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return archive.JobArchive{}, fmt.Errorf("%w: unmarshal archive: %v", apperrors.ErrPersistence, err)
	}
	return archiveFromMap(m)
}

func archiveFromMap(m map[string]any) (archive.JobArchive, error) {
	get := func(k string) string { s, _ := m[k].(string); return s }
	createdAt, err := time.Parse(time.RFC3339, get("created_at"))
	if err != nil {
		return archive.JobArchive{}, fmt.Errorf("invalid created_at: %w", err)
	}
	completedAt, err := time.Parse(time.RFC3339, get("completed_at"))
	if err != nil {
		return archive.JobArchive{}, fmt.Errorf("invalid completed_at: %w", err)
	}
	archivedAt, err := time.Parse(time.RFC3339, get("archived_at"))
	if err != nil {
		return archive.JobArchive{}, fmt.Errorf("invalid archived_at: %w", err)
	}
	return archive.JobArchive{
		JobID:         get("job_id"),
		URL:           get("url"),
		FormatID:      get("format_id"),
		Status:        vo.JobStatus(get("status")),
		CreatedAt:     createdAt,
		CompletedAt:   completedAt,
		ArchivedAt:    archivedAt,
		ErrorMessage:  get("error_message"),
		ErrorCategory: get("error_category"),
		DownloadToken: get("download_token"),
	}, nil
}
