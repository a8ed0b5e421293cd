// Package httpapi implements the HTTP surface of §6 as thin chi handlers:
// deserialize the request, call an application service, shape the
// response. No business logic lives here, matching the teacher's
// handlers package deferring everything to internal/app.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"kingo/internal/app"
	"kingo/internal/domain/vo"
	apperrors "kingo/internal/errors"
	"kingo/internal/services"
)

// Services bundles the application/domain services the HTTP handlers call
// into. It is constructed once at startup in cmd/server and handed to
// NewRouter by explicit parameter, per §9's "no service locator" note.
type Services struct {
	Jobs   *app.JobService
	Videos *app.VideoService
	Files  *services.FileManager
	Health HealthChecker
}

// parseToken validates a path-parameter token against the DownloadToken
// alphabet/length rules before ever touching the file repository.
func parseToken(raw string) (vo.DownloadToken, error) {
	return vo.NewDownloadToken(raw)
}

// HealthChecker is the subset of the KV client the /health endpoint needs.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type resolutionsRequest struct {
	URL string `json:"url"`
}

func (s *Services) handleResolutions(w http.ResponseWriter, r *http.Request) {
	var req resolutionsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, apperrors.Categorize(apperrors.CategoryInvalidRequest, err))
		return
	}
	if req.URL == "" {
		writeError(w, apperrors.Categorize(apperrors.CategoryInvalidRequest, errors.New("url is required")))
		return
	}
	result, err := s.Videos.Resolutions(r.Context(), req.URL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type createDownloadRequest struct {
	URL       string `json:"url"`
	FormatID  string `json:"format_id"`
	MuteVideo bool   `json:"mute_video"`
	MuteAudio bool   `json:"mute_audio"`
	Quality   int    `json:"quality"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Container string `json:"container"`
}

func (s *Services) handleCreateDownload(w http.ResponseWriter, r *http.Request) {
	var body createDownloadRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, apperrors.Categorize(apperrors.CategoryInvalidRequest, err))
		return
	}
	req := app.DownloadRequest{
		URL:           body.URL,
		FormatID:      body.FormatID,
		MuteVideo:     body.MuteVideo,
		MuteAudio:     body.MuteAudio,
		QualityCap:    body.Quality,
		HasQualityCap: body.Quality > 0,
		StartTime:     body.StartTime,
		EndTime:       body.EndTime,
		Container:     body.Container,
	}
	j, err := s.Jobs.CreateJob(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":  j.JobID,
		"status":  string(j.Status),
		"message": "download queued",
	})
}

func (s *Services) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	info, err := s.Jobs.GetJob(r.Context(), jobID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Services) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if err := s.Jobs.DeleteJob(r.Context(), jobID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Services) handleDownloadFile(w http.ResponseWriter, r *http.Request) {
	tokenStr := chi.URLParam(r, "token")
	token, err := parseToken(tokenStr)
	if err != nil {
		writeError(w, apperrors.Categorize(apperrors.CategoryFileNotFound, err))
		return
	}
	entry, content, err := s.Files.ReadBytes(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", "attachment; filename=\""+entry.Filename+"\"")
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

func (s *Services) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.Health.HealthCheck(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func decodeJSON(r *http.Request, v any) error {
	defer func() { _, _ = io.Copy(io.Discard, r.Body) }()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && err != io.EOF {
		return err
	}
	return nil
}
