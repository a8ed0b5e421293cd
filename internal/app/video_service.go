package app

import (
	"context"

	"kingo/internal/services"
)

// VideoService is the thin orchestrator behind POST
// /api/v1/videos/resolutions: fetch metadata and the classified,
// height-sorted format list for a URL in one call.
type VideoService struct {
	processor *services.VideoProcessor
}

// NewVideoService constructs a VideoService.
func NewVideoService(processor *services.VideoProcessor) *VideoService {
	return &VideoService{processor: processor}
}

// Resolutions returns the wire-ready {meta, formats} payload for rawURL.
func (s *VideoService) Resolutions(ctx context.Context, rawURL string) (map[string]any, error) {
	meta, err := s.processor.ExtractMetadata(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	formats, err := s.processor.AvailableFormats(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"meta":    meta.ToMap(),
		"formats": services.FormatsToClientList(formats),
	}, nil
}
