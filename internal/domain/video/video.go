// Package video holds the read-only entities describing a source video and
// its available formats, as reported by the external extractor.
package video

import (
	"fmt"
	"math"
	"time"
)

// Metadata is the essential information about a video, independent of any
// particular format choice.
type Metadata struct {
	ID          string
	Title       string
	Uploader    string
	Duration    int // seconds
	Thumbnail   string
	URL         string
	ExtractedAt time.Time
}

// NewMetadata validates and constructs a Metadata value.
func NewMetadata(id, title, uploader string, duration int, thumbnail, url string, extractedAt time.Time) (Metadata, error) {
	if id == "" {
		return Metadata{}, fmt.Errorf("video id is required")
	}
	if title == "" {
		title = "Unknown"
	}
	if duration < 0 {
		return Metadata{}, fmt.Errorf("duration must be non-negative, got %d", duration)
	}
	return Metadata{
		ID:          id,
		Title:       title,
		Uploader:    uploader,
		Duration:    duration,
		Thumbnail:   thumbnail,
		URL:         url,
		ExtractedAt: extractedAt,
	}, nil
}

// DurationFormatted renders Duration as HH:MM:SS, or MM:SS under an hour.
func (m Metadata) DurationFormatted() string {
	hours := m.Duration / 3600
	minutes := (m.Duration % 3600) / 60
	seconds := m.Duration % 60
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// ToMap renders Metadata for the HTTP resolutions endpoint's "meta" field.
func (m Metadata) ToMap() map[string]any {
	return map[string]any{
		"id":        m.ID,
		"title":     m.Title,
		"uploader":  m.Uploader,
		"duration":  m.Duration,
		"thumbnail": m.Thumbnail,
	}
}

// FormatType classifies a Format by which streams it carries.
type FormatType string

const (
	FormatVideoAudio FormatType = "video+audio"
	FormatVideoOnly  FormatType = "video_only"
	FormatAudioOnly  FormatType = "audio_only"
)

// Format describes one downloadable rendition of a video.
type Format struct {
	FormatID     string
	Extension    string
	Resolution   string
	Height       int
	Width        int
	HasWidth     bool
	Filesize     int64
	HasFilesize  bool
	VideoCodec   string
	AudioCodec   string
	QualityLabel string
	FormatNote   string
	Type         FormatType
}

// NewFormat validates and constructs a Format, deriving Type from the codec
// pair and QualityLabel from Height the same way the original classifier
// does.
func NewFormat(formatID, extension string, height int, width int, hasWidth bool, filesize int64, hasFilesize bool, videoCodec, audioCodec, formatNote string) (Format, error) {
	if formatID == "" {
		return Format{}, fmt.Errorf("format id is required")
	}
	if extension == "" {
		return Format{}, fmt.Errorf("extension is required")
	}

	f := Format{
		FormatID:    formatID,
		Extension:   extension,
		Height:      height,
		Width:       width,
		HasWidth:    hasWidth,
		Filesize:    filesize,
		HasFilesize: hasFilesize,
		VideoCodec:  videoCodec,
		AudioCodec:  audioCodec,
		FormatNote:  formatNote,
	}
	f.Type = classifyFormatType(videoCodec, audioCodec)
	f.Resolution = f.determineResolution()
	f.QualityLabel = f.calculateQualityLabel()
	return f, nil
}

func classifyFormatType(videoCodec, audioCodec string) FormatType {
	hasVideo := videoCodec != "" && videoCodec != "none"
	hasAudio := audioCodec != "" && audioCodec != "none"
	switch {
	case hasVideo && hasAudio:
		return FormatVideoAudio
	case videoCodec == "none" || (videoCodec == "" && hasAudio):
		return FormatAudioOnly
	default:
		return FormatVideoOnly
	}
}

func (f Format) determineResolution() string {
	switch {
	case f.Height > 0 && f.HasWidth && f.Width > 0:
		return fmt.Sprintf("%dx%d", f.Width, f.Height)
	case f.Height > 0:
		return fmt.Sprintf("%dp", f.Height)
	case f.VideoCodec == "none":
		return "audio only"
	case f.FormatNote != "":
		return f.FormatNote
	default:
		return "unknown"
	}
}

// calculateQualityLabel grades a format by height: Ultra (4K+), Excellent
// (1440p+), Great (1080p+), Good (720p+), Standard otherwise.
func (f Format) calculateQualityLabel() string {
	switch {
	case f.Height >= 2160:
		return "Ultra"
	case f.Height >= 1440:
		return "Excellent"
	case f.Height >= 1080:
		return "Great"
	case f.Height >= 720:
		return "Good"
	default:
		return "Standard"
	}
}

// IsVideoOnly reports whether the format carries video with no audio track.
func (f Format) IsVideoOnly() bool { return f.Type == FormatVideoOnly }

// IsAudioOnly reports whether the format carries audio with no video track.
func (f Format) IsAudioOnly() bool { return f.Type == FormatAudioOnly }

// HasBothCodecs reports whether the format is a combined video+audio stream.
func (f Format) HasBothCodecs() bool { return f.Type == FormatVideoAudio }

// FilesizeMB returns Filesize in megabytes, rounded to two decimals.
func (f Format) FilesizeMB() (float64, bool) {
	if !f.HasFilesize || f.Filesize <= 0 {
		return 0, false
	}
	mb := float64(f.Filesize) / (1024 * 1024)
	return math.Round(mb*100) / 100, true
}

// FilesizeFormatted renders Filesize as a human-readable MB/GB string, or
// "Unknown" when no size estimate is available.
func (f Format) FilesizeFormatted() string {
	mb, ok := f.FilesizeMB()
	if !ok {
		return "Unknown"
	}
	if mb < 1024 {
		return fmt.Sprintf("%.1f MB", mb)
	}
	return fmt.Sprintf("%.2f GB", mb/1024)
}

// ToMap renders a Format for the HTTP client-facing format list.
func (f Format) ToMap() map[string]any {
	var filesize any
	if f.HasFilesize {
		filesize = f.Filesize
	}
	return map[string]any{
		"format_id":     f.FormatID,
		"ext":           f.Extension,
		"resolution":    f.Resolution,
		"height":        f.Height,
		"note":          f.FormatNote,
		"filesize":      filesize,
		"vcodec":        f.VideoCodec,
		"acodec":        f.AudioCodec,
		"quality_label": f.QualityLabel,
		"type":          string(f.Type),
	}
}
