package services

import (
	"context"
	"fmt"
	"time"

	"kingo/internal/domain/file"
	"kingo/internal/domain/repo"
	"kingo/internal/domain/vo"
	apperrors "kingo/internal/errors"
)

// FileManager manages the token <-> file_path mapping with TTL and bytes
// lifecycle. It never touches the filesystem directly, delegating all
// physical storage to a FileStorageRepository so the core stays
// backend-agnostic.
type FileManager struct {
	files   repo.FileRepository
	storage repo.FileStorageRepository
	now     func() time.Time
}

// NewFileManager constructs a FileManager.
func NewFileManager(files repo.FileRepository, storage repo.FileStorageRepository, now func() time.Time) *FileManager {
	if now == nil {
		now = time.Now
	}
	return &FileManager{files: files, storage: storage, now: now}
}

// RegisterFile mints a fresh DownloadToken, persists the metadata entry,
// and returns the entity with expires_at = now + ttl. Any existing entry
// for the same job id is replaced by FileRepository.Save.
func (m *FileManager) RegisterFile(ctx context.Context, filePath, jobID, filename string, ttl time.Duration) (file.DownloadedFile, error) {
	token, err := vo.GenerateDownloadToken()
	if err != nil {
		return file.DownloadedFile{}, fmt.Errorf("%w: generate token: %v", apperrors.ErrPersistence, err)
	}
	now := m.now()
	size, hasSize, _ := m.storage.GetSize(ctx, filePath)
	entry, err := file.Register(token, filePath, jobID, filename, size, hasSize, now, now.Add(ttl))
	if err != nil {
		return file.DownloadedFile{}, err
	}
	if err := m.files.Save(ctx, entry); err != nil {
		return file.DownloadedFile{}, err
	}
	return entry, nil
}

// GetByToken validates existence and non-expiry. An expired entry is
// deleted (metadata, then best-effort bytes) before raising ErrFileExpired,
// so an observer never receives an expired token.
func (m *FileManager) GetByToken(ctx context.Context, token vo.DownloadToken) (file.DownloadedFile, error) {
	entry, err := m.files.GetByToken(ctx, token)
	if err != nil {
		return file.DownloadedFile{}, err
	}
	if entry.IsExpired(m.now()) {
		_ = m.files.Delete(ctx, token)
		_ = m.storage.Delete(ctx, entry.FilePath)
		return file.DownloadedFile{}, fmt.Errorf("%w: %s", apperrors.ErrFileExpired, token.String())
	}
	return entry, nil
}

// ReadBytes validates token the same way GetByToken does, then reads the
// underlying artifact through the storage adapter. Callers (the HTTP
// download handler) never touch FileStorageRepository directly.
func (m *FileManager) ReadBytes(ctx context.Context, token vo.DownloadToken) (file.DownloadedFile, []byte, error) {
	entry, err := m.GetByToken(ctx, token)
	if err != nil {
		return file.DownloadedFile{}, nil, err
	}
	content, err := m.storage.Get(ctx, entry.FilePath)
	if err != nil {
		return file.DownloadedFile{}, nil, err
	}
	return entry, content, nil
}

// GetByJobID returns the file entry for jobID, if one has been registered.
func (m *FileManager) GetByJobID(ctx context.Context, jobID string) (file.DownloadedFile, bool, error) {
	return m.files.GetByJobID(ctx, jobID)
}

// DeleteByToken removes the metadata record and, if deletePhysical, the
// underlying bytes.
func (m *FileManager) DeleteByToken(ctx context.Context, token vo.DownloadToken, deletePhysical bool) error {
	entry, err := m.files.GetByToken(ctx, token)
	hasEntry := err == nil
	if err := m.files.Delete(ctx, token); err != nil {
		return err
	}
	if deletePhysical && hasEntry {
		_ = m.storage.Delete(ctx, entry.FilePath)
	}
	return nil
}

// CleanupExpired sweeps all expired entries, deleting metadata and bytes,
// returning the count removed.
func (m *FileManager) CleanupExpired(ctx context.Context) (int, []error) {
	tokens, err := m.files.ExpiredTokens(ctx, m.now())
	if err != nil {
		return 0, []error{err}
	}
	var errs []error
	removed := 0
	for _, token := range tokens {
		if err := m.DeleteByToken(ctx, token, true); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errs
}

// FileInfo projects a file entry into a wire-friendly map.
func (m *FileManager) FileInfo(ctx context.Context, token vo.DownloadToken) (map[string]any, error) {
	entry, err := m.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	info := map[string]any{
		"token":          entry.Token.String(),
		"filename":       entry.Filename,
		"job_id":         entry.JobID,
		"expires_at":     entry.ExpiresAt.UTC().Format(time.RFC3339),
		"time_remaining": int(entry.TimeRemaining(m.now()).Seconds()),
	}
	if entry.HasFilesize() {
		info["filesize"] = entry.Filesize
	}
	return info, nil
}

// DownloadURLFor composes the public download URL for a token given a
// base URL, e.g. "https://host" + "/api/v1/downloads/file/<token>".
func DownloadURLFor(base string, token vo.DownloadToken) string {
	return base + "/api/v1/downloads/file/" + token.String()
}
