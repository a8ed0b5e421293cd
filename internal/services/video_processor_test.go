package services_test

import (
	"context"
	"errors"
	"testing"

	"kingo/internal/domain/video"
	apperrors "kingo/internal/errors"
	"kingo/internal/services"
)

type stubExtractor struct {
	info ExtractorResult
	err  error
}

// ExtractorResult lets tests compose a services.ExtractedInfo without
// importing the package twice under different names.
type ExtractorResult = services.ExtractedInfo

func (s stubExtractor) FetchInfo(ctx context.Context, url string) (services.ExtractedInfo, error) {
	if s.err != nil {
		return services.ExtractedInfo{}, s.err
	}
	return s.info, nil
}

func TestVideoProcessor_ValidateURL(t *testing.T) {
	p := services.NewVideoProcessor(stubExtractor{}, nil)
	if !p.ValidateURL("https://www.youtube.com/watch?v=abc123") {
		t.Error("expected a youtube.com URL to validate")
	}
	if p.ValidateURL("https://example.com/video") {
		t.Error("expected an unsupported platform URL to fail validation")
	}
}

func TestVideoProcessor_ExtractMetadata_RejectsUnsupportedPlatform(t *testing.T) {
	p := services.NewVideoProcessor(stubExtractor{}, nil)
	_, err := p.ExtractMetadata(context.Background(), "https://example.com/video")
	if !errors.Is(err, apperrors.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestVideoProcessor_ExtractMetadata_Success(t *testing.T) {
	extractor := stubExtractor{info: services.ExtractedInfo{
		ID: "abc123", Title: "A Title", Uploader: "someone", Duration: 125,
	}}
	p := services.NewVideoProcessor(extractor, nil)

	meta, err := p.ExtractMetadata(context.Background(), "https://www.youtube.com/watch?v=abc123")
	if err != nil {
		t.Fatalf("ExtractMetadata() error: %v", err)
	}
	if meta.ID != "abc123" || meta.Title != "A Title" {
		t.Errorf("unexpected metadata: %+v", meta)
	}
	if got := meta.DurationFormatted(); got != "02:05" {
		t.Errorf("DurationFormatted() = %q, want 02:05", got)
	}
}

func TestVideoProcessor_AvailableFormats_SortedByHeightDescending(t *testing.T) {
	extractor := stubExtractor{info: services.ExtractedInfo{
		ID: "abc123",
		Formats: []services.ExtractedFormat{
			{FormatID: "a", Height: 480, VideoCodec: "avc1", AudioCodec: "mp4a"},
			{FormatID: "b", Height: 1080, VideoCodec: "avc1", AudioCodec: "mp4a"},
			{FormatID: "c", Height: 720, VideoCodec: "avc1", AudioCodec: "mp4a"},
		},
	}}
	p := services.NewVideoProcessor(extractor, nil)

	formats, err := p.AvailableFormats(context.Background(), "https://www.youtube.com/watch?v=abc123")
	if err != nil {
		t.Fatalf("AvailableFormats() error: %v", err)
	}
	if len(formats) != 3 {
		t.Fatalf("len(formats) = %d, want 3", len(formats))
	}
	if formats[0].Height != 1080 || formats[1].Height != 720 || formats[2].Height != 480 {
		t.Errorf("formats not sorted by height descending: %+v", formats)
	}
}

func TestVideoProcessor_AvailableFormats_FilesizeFallback(t *testing.T) {
	extractor := stubExtractor{info: services.ExtractedInfo{
		ID: "abc123",
		Formats: []services.ExtractedFormat{
			{FormatID: "exact", Height: 1080, FilesizeExact: 1000, VideoCodec: "avc1", AudioCodec: "mp4a"},
			{FormatID: "approx", Height: 720, FilesizeApprox: 2000, VideoCodec: "avc1", AudioCodec: "mp4a"},
			{FormatID: "estimate", Height: 480, BitrateKbps: 1000, DurationSecs: 8, VideoCodec: "avc1", AudioCodec: "mp4a"},
			{FormatID: "unknown", Height: 240, VideoCodec: "avc1", AudioCodec: "mp4a"},
		},
	}}
	p := services.NewVideoProcessor(extractor, nil)

	formats, err := p.AvailableFormats(context.Background(), "https://www.youtube.com/watch?v=abc123")
	if err != nil {
		t.Fatalf("AvailableFormats() error: %v", err)
	}
	byID := make(map[string]video.Format, len(formats))
	for _, f := range formats {
		byID[f.FormatID] = f
	}
	if !byID["exact"].HasFilesize || byID["exact"].Filesize != 1000 {
		t.Errorf("exact format filesize = %+v, want 1000", byID["exact"])
	}
	if !byID["approx"].HasFilesize || byID["approx"].Filesize != 2000 {
		t.Errorf("approx format filesize = %+v, want 2000", byID["approx"])
	}
	if !byID["estimate"].HasFilesize || byID["estimate"].Filesize <= 0 {
		t.Errorf("estimate format should derive a positive filesize from bitrate*duration, got %+v", byID["estimate"])
	}
	if byID["unknown"].HasFilesize {
		t.Errorf("unknown format should report no filesize, got %+v", byID["unknown"])
	}
}

func TestFormatsToClientList_GroupsByType(t *testing.T) {
	formats := []video.Format{
		{FormatID: "a1", Type: video.FormatAudioOnly, Height: 0},
		{FormatID: "va1", Type: video.FormatVideoAudio, Height: 1080},
		{FormatID: "vo1", Type: video.FormatVideoOnly, Height: 1080},
	}
	out := services.FormatsToClientList(formats)
	if len(out) != 3 {
		t.Fatalf("len(out) = %d, want 3", len(out))
	}
	if out[0]["format_id"] != "va1" {
		t.Errorf("expected video+audio format first, got %v", out[0]["format_id"])
	}
	if out[1]["format_id"] != "vo1" {
		t.Errorf("expected video-only format second, got %v", out[1]["format_id"])
	}
	if out[2]["format_id"] != "a1" {
		t.Errorf("expected audio-only format last, got %v", out[2]["format_id"])
	}
}
