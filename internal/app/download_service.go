package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"kingo/internal/domain/repo"
	"kingo/internal/domain/vo"
	apperrors "kingo/internal/errors"
	"kingo/internal/extractor"
	"kingo/internal/logger"
	"kingo/internal/services"
)

// Downloader is the subset of the extractor adapter DownloadService needs,
// narrowed to the boundary this package actually calls.
type Downloader interface {
	Download(ctx context.Context, opts extractor.DownloadOptions, onProgress extractor.ProgressCallback, onLog extractor.LogCallback) error
}

// DownloadService drives the end-to-end workflow for one job: start,
// extract, save the artifact, register a download token, complete — or
// classify and fail on any error along the way.
type DownloadService struct {
	jobs       *services.JobManager
	files      *services.FileManager
	storage    repo.FileStorageRepository
	downloader Downloader
	scratchDir string
	fileTTL    time.Duration
	baseURL    string
	now        func() time.Time
}

// NewDownloadService constructs a DownloadService. scratchDir is where the
// extractor writes its output before the artifact is handed to storage;
// baseURL is prefixed onto minted download tokens to build the public URL.
func NewDownloadService(jobs *services.JobManager, files *services.FileManager, storage repo.FileStorageRepository, downloader Downloader, scratchDir, baseURL string, fileTTL time.Duration, now func() time.Time) *DownloadService {
	if now == nil {
		now = time.Now
	}
	return &DownloadService{
		jobs:       jobs,
		files:      files,
		storage:    storage,
		downloader: downloader,
		scratchDir: scratchDir,
		fileTTL:    fileTTL,
		baseURL:    baseURL,
		now:        now,
	}
}

// Execute runs the full workflow for jobID, given the request that created
// it. Errors are never returned to the caller as a failure signal for the
// job itself — once JobManager.Start has succeeded, every error path
// classifies and calls JobManager.Fail before returning; a Start error is
// returned as is, without marking the job failed. The returned error is
// purely for the worker pool's own logging.
func (s *DownloadService) Execute(ctx context.Context, jobID string, req DownloadRequest) error {
	if _, err := s.jobs.Start(ctx, jobID); err != nil {
		return fmt.Errorf("start job %s: %w", jobID, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	outputTemplate := filepath.Join(s.scratchDir, jobID+".%(ext)s")
	opts := extractor.DownloadOptions{
		URL:             req.URL,
		FormatSelector:  FormatSelector(req),
		OutputTemplate:  outputTemplate,
		ContainerFormat: ContainerFor(req),
	}
	if req.HasTrim() {
		opts.StartTime = req.StartTime
		opts.EndTime = req.EndTime
	}

	onProgress := func(p extractor.DownloadProgress) {
		if exists, err := s.jobs.Exists(runCtx, jobID); err != nil || !exists {
			cancel()
			return
		}
		progress := translateProgress(p)
		if err := s.jobs.UpdateProgress(runCtx, jobID, progress); err != nil {
			logger.Log.Warn().Err(err).Str("job_id", jobID).Msg("progress update failed")
		}
	}
	onLog := func(line string) {
		logger.Log.Debug().Str("job_id", jobID).Str("line", line).Msg("extractor output")
	}

	if err := s.downloader.Download(runCtx, opts, onProgress, onLog); err != nil {
		if errors.Is(err, context.Canceled) {
			s.cleanupScratch(jobID)
			return nil
		}
		return s.fail(ctx, jobID, err)
	}

	if exists, err := s.jobs.Exists(ctx, jobID); err != nil || !exists {
		s.cleanupScratch(jobID)
		return nil
	}

	outputPath, err := findOutputFile(s.scratchDir, jobID)
	if err != nil {
		return s.fail(ctx, jobID, fmt.Errorf("%w: %v", apperrors.ErrDownloadFailed, err))
	}

	content, err := os.ReadFile(outputPath)
	if err != nil {
		return s.fail(ctx, jobID, fmt.Errorf("%w: read artifact: %v", apperrors.ErrPersistence, err))
	}
	defer os.Remove(outputPath)

	filename := filepath.Base(outputPath)
	storedPath := filepath.Join("downloads", jobID, filename)
	if err := s.storage.Save(ctx, storedPath, content); err != nil {
		return s.fail(ctx, jobID, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err))
	}

	entry, err := s.files.RegisterFile(ctx, storedPath, jobID, filename, s.fileTTL)
	if err != nil {
		return s.fail(ctx, jobID, err)
	}

	downloadURL := services.DownloadURLFor(s.baseURL, entry.Token)
	if _, err := s.jobs.Complete(ctx, jobID, downloadURL, entry.Token, entry.ExpiresAt); err != nil {
		return s.fail(ctx, jobID, err)
	}
	return nil
}

func (s *DownloadService) fail(ctx context.Context, jobID string, cause error) error {
	category := extractor.CategorizeError(cause)
	if err := s.jobs.Fail(ctx, jobID, cause.Error(), string(category)); err != nil {
		logger.Log.Error().Err(err).Str("job_id", jobID).Msg("failed to record job failure")
	}
	s.cleanupScratch(jobID)
	return cause
}

func (s *DownloadService) cleanupScratch(jobID string) {
	matches, _ := filepath.Glob(filepath.Join(s.scratchDir, jobID+".*"))
	for _, m := range matches {
		_ = os.Remove(m)
	}
}

func findOutputFile(scratchDir, jobID string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(scratchDir, jobID+".*"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no output file produced for job %s", jobID)
	}
	return matches[0], nil
}

// translateProgress maps one extractor tick into a JobProgress snapshot,
// honoring the spec's asymmetric clamp: downloading is pinned to [10,95],
// the extractor's own "completed"/"merging" signals land at 95, and 100 is only
// ever reached through JobManager.Complete.
func translateProgress(p extractor.DownloadProgress) vo.JobProgress {
	etaSeconds, hasETA := parseETASeconds(p.ETA)
	switch p.Status {
	case "merging":
		return vo.Merging(95)
	case "completed":
		return vo.Processing(95)
	default:
		return vo.Downloading(int(p.Percent), p.Speed, etaSeconds, hasETA)
	}
}

func parseETASeconds(eta string) (int, bool) {
	if eta == "" {
		return 0, false
	}
	var h, m, s int
	switch {
	case count(eta, ':') == 2:
		if _, err := fmt.Sscanf(eta, "%d:%d:%d", &h, &m, &s); err == nil {
			return h*3600 + m*60 + s, true
		}
	case count(eta, ':') == 1:
		if _, err := fmt.Sscanf(eta, "%d:%d", &m, &s); err == nil {
			return m*60 + s, true
		}
	}
	return 0, false
}

func count(s string, b byte) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			n++
		}
	}
	return n
}
