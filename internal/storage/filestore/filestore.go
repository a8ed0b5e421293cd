// Package filestore is the local-filesystem implementation of
// repo.FileStorageRepository, the only storage backend the core ships with.
package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	apperrors "kingo/internal/errors"
)

// Store saves download artifacts under a base directory, keyed by the
// caller-supplied relative path (typically <job_id>/<filename>).
type Store struct {
	basePath string
}

// New constructs a Store rooted at basePath, creating it if absent.
func New(basePath string) (*Store, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create base path: %v", apperrors.ErrPersistence, err)
	}
	return &Store{basePath: basePath}, nil
}

func (s *Store) resolve(path string) string {
	return filepath.Join(s.basePath, filepath.FromSlash(path))
}

// Save writes content to path, creating parent directories as needed.
func (s *Store) Save(ctx context.Context, path string, content []byte) error {
	full := s.resolve(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("%w: create directory: %v", apperrors.ErrPersistence, err)
	}
	if err := os.WriteFile(full, content, 0o644); err != nil {
		return fmt.Errorf("%w: write file: %v", apperrors.ErrPersistence, err)
	}
	return nil
}

// Get reads the bytes at path.
func (s *Store) Get(ctx context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(s.resolve(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("%w: read file: %v", apperrors.ErrPersistence, err)
	}
	return data, nil
}

// Delete removes path. Deleting an absent path is not an error.
func (s *Store) Delete(ctx context.Context, path string) error {
	if err := os.Remove(s.resolve(path)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: delete file: %v", apperrors.ErrPersistence, err)
	}
	return nil
}

// Exists reports whether path is present.
func (s *Store) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(s.resolve(path))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("%w: stat file: %v", apperrors.ErrPersistence, err)
}

// GetSize reports the size of path if it exists.
func (s *Store) GetSize(ctx context.Context, path string) (int64, bool, error) {
	info, err := os.Stat(s.resolve(path))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("%w: stat file: %v", apperrors.ErrPersistence, err)
	}
	return info.Size(), true, nil
}

// BasePath returns the root directory this store writes under.
func (s *Store) BasePath() string { return s.basePath }
