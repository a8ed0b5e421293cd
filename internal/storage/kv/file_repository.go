package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"kingo/internal/domain/file"
	"kingo/internal/domain/vo"
	apperrors "kingo/internal/errors"
)

const (
	fileTokenKeyPrefix = "file_token:"
	fileJobKeyPrefix   = "file_job:"
)

func fileTokenKey(token string) string { return fileTokenKeyPrefix + token }
func fileJobKey(jobID string) string   { return fileJobKeyPrefix + jobID }

// FileRepository is the Redis-backed repo.FileRepository implementation.
// It maintains a secondary index (file_job:<job_id> -> token) so a
// registration for an existing job id replaces rather than duplicates.
type FileRepository struct {
	client *Client
}

// NewFileRepository constructs a FileRepository.
func NewFileRepository(client *Client) *FileRepository {
	return &FileRepository{client: client}
}

// Save writes the file record, replacing any prior entry for the same
// JobID by first deleting its old token mapping.
func (r *FileRepository) Save(ctx context.Context, f file.DownloadedFile) error {
	if prior, ok, err := r.GetByJobID(ctx, f.JobID); err == nil && ok && prior.Token.String() != f.Token.String() {
		_ = r.Delete(ctx, prior.Token)
	}

	ttl := f.ExpiresAt.Sub(f.CreatedAt)
	if ttl <= 0 {
		return fmt.Errorf("%w: file ttl must be positive", apperrors.ErrPersistence)
	}

	data, err := json.Marshal(f.ToMap())
	if err != nil {
		return fmt.Errorf("%w: marshal file: %v", apperrors.ErrPersistence, err)
	}

	pipe := r.client.Raw().TxPipeline()
	pipe.Set(ctx, fileTokenKey(f.Token.String()), data, ttl)
	pipe.Set(ctx, fileJobKey(f.JobID), f.Token.String(), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return nil
}

// GetByToken loads a file record. Callers apply lazy-expiry: this method
// returns whatever is stored even if logically expired so FileManager can
// decide whether to delete-then-raise.
func (r *FileRepository) GetByToken(ctx context.Context, token vo.DownloadToken) (file.DownloadedFile, error) {
	raw, err := r.client.Raw().Get(ctx, fileTokenKey(token.String())).Bytes()
	if errors.Is(err, redis.Nil) {
		return file.DownloadedFile{}, fmt.Errorf("%w: %s", apperrors.ErrFileNotFound, token.String())
	}
	if err != nil {
		return file.DownloadedFile{}, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return file.DownloadedFile{}, fmt.Errorf("%w: unmarshal file: %v", apperrors.ErrPersistence, err)
	}
	return file.FromMap(m)
}

// GetByJobID follows the secondary index to load the file record for jobID,
// if one exists.
func (r *FileRepository) GetByJobID(ctx context.Context, jobID string) (file.DownloadedFile, bool, error) {
	token, err := r.client.Raw().Get(ctx, fileJobKey(jobID)).Result()
	if errors.Is(err, redis.Nil) {
		return file.DownloadedFile{}, false, nil
	}
	if err != nil {
		return file.DownloadedFile{}, false, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	dt, err := vo.NewDownloadToken(token)
	if err != nil {
		return file.DownloadedFile{}, false, fmt.Errorf("%w: stored token invalid: %v", apperrors.ErrPersistence, err)
	}
	f, err := r.GetByToken(ctx, dt)
	if err != nil {
		return file.DownloadedFile{}, false, nil
	}
	return f, true, nil
}

// Delete removes both the token-keyed record and its job-id secondary
// index entry. Idempotent: deleting an absent token is not an error.
func (r *FileRepository) Delete(ctx context.Context, token vo.DownloadToken) error {
	f, err := r.GetByToken(ctx, token)
	if err != nil {
		return nil
	}
	pipe := r.client.Raw().TxPipeline()
	pipe.Del(ctx, fileTokenKey(token.String()))
	pipe.Del(ctx, fileJobKey(f.JobID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return nil
}

// ExpiredTokens scans token keys and returns those whose stored ExpiresAt
// has already passed, for the reaper's sweep step.
func (r *FileRepository) ExpiredTokens(ctx context.Context, now time.Time) ([]vo.DownloadToken, error) {
	var cursor uint64
	var tokens []vo.DownloadToken
	for {
		keys, next, err := r.client.Raw().Scan(ctx, cursor, fileTokenKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: scan files: %v", apperrors.ErrPersistence, err)
		}
		for _, key := range keys {
			tokenStr := key[len(fileTokenKeyPrefix):]
			token, err := vo.NewDownloadToken(tokenStr)
			if err != nil {
				continue
			}
			f, err := r.GetByToken(ctx, token)
			if err != nil {
				continue
			}
			if f.IsExpired(now) {
				tokens = append(tokens, token)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return tokens, nil
}
