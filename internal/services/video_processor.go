package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"kingo/internal/domain/video"
	apperrors "kingo/internal/errors"
	"kingo/internal/validate"
)

// ExtractedFormat is the raw, unclassified format data the Extractor port
// reports for one stream. Filesize fields are reported separately because
// yt-dlp-style extractors routinely omit the exact size and only provide an
// approximation or a bitrate to estimate from.
type ExtractedFormat struct {
	FormatID       string
	Extension      string
	Height         int
	Width          int
	HasWidth       bool
	VideoCodec     string
	AudioCodec     string
	FormatNote     string
	FilesizeExact  int64
	FilesizeApprox int64
	BitrateKbps    float64
	DurationSecs   float64
}

// ExtractedInfo is the raw metadata+formats payload the Extractor port
// returns for a URL.
type ExtractedInfo struct {
	ID        string
	Title     string
	Uploader  string
	Duration  int
	Thumbnail string
	Formats   []ExtractedFormat
}

// Extractor is the port VideoProcessor depends on to talk to the external
// download tool. internal/extractor provides the concrete adapter.
type Extractor interface {
	FetchInfo(ctx context.Context, url string) (ExtractedInfo, error)
}

// VideoProcessor validates source URLs and turns raw extractor output into
// domain Metadata/Format entities, including the filesize-fallback and
// quality-grouping logic the extractor itself does not provide.
type VideoProcessor struct {
	extractor Extractor
	now       func() time.Time
}

// NewVideoProcessor constructs a VideoProcessor.
func NewVideoProcessor(extractor Extractor, now func() time.Time) *VideoProcessor {
	if now == nil {
		now = time.Now
	}
	return &VideoProcessor{extractor: extractor, now: now}
}

// ValidateURL reports whether url points at a supported media platform.
func (p *VideoProcessor) ValidateURL(rawURL string) bool {
	_, err := validate.MediaURL(rawURL)
	return err == nil
}

// ExtractMetadata validates url and fetches its video metadata.
func (p *VideoProcessor) ExtractMetadata(ctx context.Context, rawURL string) (video.Metadata, error) {
	parsed, err := validate.MediaURL(rawURL)
	if err != nil {
		return video.Metadata{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidRequest, err)
	}

	info, err := p.extractor.FetchInfo(ctx, parsed.String())
	if err != nil {
		return video.Metadata{}, fmt.Errorf("%w: %v", apperrors.ErrMetadataExtraction, err)
	}

	meta, err := video.NewMetadata(info.ID, info.Title, info.Uploader, info.Duration, info.Thumbnail, parsed.String(), p.now())
	if err != nil {
		return video.Metadata{}, fmt.Errorf("%w: %v", apperrors.ErrMetadataExtraction, err)
	}
	return meta, nil
}

// AvailableFormats validates url, fetches its formats, and returns them
// sorted by height descending. Malformed entries are skipped rather than
// failing the whole request.
func (p *VideoProcessor) AvailableFormats(ctx context.Context, rawURL string) ([]video.Format, error) {
	parsed, err := validate.MediaURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidRequest, err)
	}

	info, err := p.extractor.FetchInfo(ctx, parsed.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMetadataExtraction, err)
	}

	formats := parseFormats(info.Formats)
	sortByHeightDesc(formats)
	return formats, nil
}

func parseFormats(raw []ExtractedFormat) []video.Format {
	formats := make([]video.Format, 0, len(raw))
	for _, f := range raw {
		filesize, hasFilesize := extractFilesize(f)
		vf, err := video.NewFormat(f.FormatID, orDefault(f.Extension, "mp4"), f.Height, f.Width, f.HasWidth, filesize, hasFilesize, orDefault(f.VideoCodec, "none"), orDefault(f.AudioCodec, "none"), f.FormatNote)
		if err != nil {
			// Skip malformed formats rather than failing the whole list.
			continue
		}
		formats = append(formats, vf)
	}
	return formats
}

// extractFilesize applies the fallback precedence: exact size, then
// approximate size, then an estimate from bitrate * duration.
func extractFilesize(f ExtractedFormat) (int64, bool) {
	if f.FilesizeExact > 0 {
		return f.FilesizeExact, true
	}
	if f.FilesizeApprox > 0 {
		return f.FilesizeApprox, true
	}
	if f.BitrateKbps > 0 && f.DurationSecs > 0 {
		estimated := int64((f.BitrateKbps * f.DurationSecs * 1024) / 8)
		return estimated, true
	}
	return 0, false
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// sortByHeightDesc orders by height descending, then — for ties — puts
// combined video+audio streams ahead of video-only/audio-only ones, per
// §4.3's "sorted by height descending, then by availability of combined
// video+audio first".
func sortByHeightDesc(formats []video.Format) {
	sort.SliceStable(formats, func(i, j int) bool {
		if formats[i].Height != formats[j].Height {
			return formats[i].Height > formats[j].Height
		}
		return formats[i].Type == video.FormatVideoAudio && formats[j].Type != video.FormatVideoAudio
	})
}

// FormatsToClientList groups formats into video+audio, video-only, and
// audio-only buckets (each sorted by height descending) and concatenates
// them in that order for the HTTP response body.
func FormatsToClientList(formats []video.Format) []map[string]any {
	var videoAudio, videoOnly, audioOnly []map[string]any
	for _, f := range formats {
		m := f.ToMap()
		switch f.Type {
		case video.FormatVideoAudio:
			videoAudio = append(videoAudio, m)
		case video.FormatVideoOnly:
			videoOnly = append(videoOnly, m)
		case video.FormatAudioOnly:
			audioOnly = append(audioOnly, m)
		}
	}
	out := make([]map[string]any, 0, len(videoAudio)+len(videoOnly)+len(audioOnly))
	out = append(out, videoAudio...)
	out = append(out, videoOnly...)
	out = append(out, audioOnly...)
	return out
}
