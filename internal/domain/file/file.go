// Package file holds the DownloadedFile entity: the record binding a
// download token to the bytes produced by a completed job.
package file

import (
	"fmt"
	"time"

	"kingo/internal/domain/vo"
)

// DownloadedFile is indexed both by Token and by JobID; registering a new
// file for a JobID that already has one replaces the prior entry.
type DownloadedFile struct {
	Token     vo.DownloadToken
	FilePath  string
	JobID     string
	Filename  string
	Filesize  int64
	hasSize   bool
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Register constructs a DownloadedFile, requiring the expiry to be strictly
// after creation.
func Register(token vo.DownloadToken, filePath, jobID, filename string, filesize int64, hasSize bool, createdAt, expiresAt time.Time) (DownloadedFile, error) {
	if !expiresAt.After(createdAt) {
		return DownloadedFile{}, fmt.Errorf("file expiry %s must be after creation %s", expiresAt, createdAt)
	}
	return DownloadedFile{
		Token:     token,
		FilePath:  filePath,
		JobID:     jobID,
		Filename:  filename,
		Filesize:  filesize,
		hasSize:   hasSize,
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
	}, nil
}

// HasFilesize reports whether Filesize was known at registration time.
func (f DownloadedFile) HasFilesize() bool { return f.hasSize }

// IsExpired reports whether the entry's TTL has elapsed as of now.
func (f DownloadedFile) IsExpired(now time.Time) bool { return !now.Before(f.ExpiresAt) }

// TimeRemaining returns max(0, ExpiresAt - now).
func (f DownloadedFile) TimeRemaining(now time.Time) time.Duration {
	remaining := f.ExpiresAt.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ToMap renders the entry for KV-store persistence.
func (f DownloadedFile) ToMap() map[string]any {
	m := map[string]any{
		"token":      f.Token.String(),
		"file_path":  f.FilePath,
		"job_id":     f.JobID,
		"filename":   f.Filename,
		"created_at": f.CreatedAt.UTC().Format(time.RFC3339),
		"expires_at": f.ExpiresAt.UTC().Format(time.RFC3339),
	}
	if f.hasSize {
		m["filesize"] = f.Filesize
	} else {
		m["filesize"] = nil
	}
	return m
}

// FromMap reconstructs a DownloadedFile from its persisted form.
func FromMap(m map[string]any) (DownloadedFile, error) {
	tokenStr, _ := m["token"].(string)
	token, err := vo.NewDownloadToken(tokenStr)
	if err != nil {
		return DownloadedFile{}, fmt.Errorf("invalid stored token: %w", err)
	}
	filePath, _ := m["file_path"].(string)
	jobID, _ := m["job_id"].(string)
	filename, _ := m["filename"].(string)

	createdAt, err := time.Parse(time.RFC3339, stringOf(m["created_at"]))
	if err != nil {
		return DownloadedFile{}, fmt.Errorf("invalid created_at: %w", err)
	}
	expiresAt, err := time.Parse(time.RFC3339, stringOf(m["expires_at"]))
	if err != nil {
		return DownloadedFile{}, fmt.Errorf("invalid expires_at: %w", err)
	}

	var filesize int64
	hasSize := false
	switch v := m["filesize"].(type) {
	case float64:
		filesize, hasSize = int64(v), true
	case int64:
		filesize, hasSize = v, true
	case int:
		filesize, hasSize = int64(v), true
	}

	return DownloadedFile{
		Token:     token,
		FilePath:  filePath,
		JobID:     jobID,
		Filename:  filename,
		Filesize:  filesize,
		hasSize:   hasSize,
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
	}, nil
}

func stringOf(v any) string {
	s, _ := v.(string)
	return s
}
