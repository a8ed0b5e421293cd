// Package app holds the application services that orchestrate a use case
// across the domain services and the extractor adapter: JobService,
// VideoService, DownloadService.
package app

import "fmt"

// DownloadRequest is the full set of inputs a job-creation request may
// carry. FormatID and the HTTP-compatible {url, format_id} pair are the
// only fields spec.md's HTTP table requires; everything else is optional
// tuning accepted for parity with the original's richer request shape.
type DownloadRequest struct {
	URL      string
	FormatID string // verbatim format selector, used as-is when non-empty

	MuteVideo bool
	MuteAudio bool

	QualityCap    int
	HasQualityCap bool

	StartTime string // trim window start, e.g. "00:00:10"
	EndTime   string // trim window end

	Container string // explicit post-processing container override
}

// HasTrim reports whether both trim bounds were supplied.
func (r DownloadRequest) HasTrim() bool {
	return r.StartTime != "" && r.EndTime != ""
}

// FormatSelector computes the yt-dlp-style format expression per the
// documented precedence: an explicit FormatID wins verbatim; otherwise it
// is built from the mute/quality flags.
func FormatSelector(r DownloadRequest) string {
	if r.FormatID != "" {
		return r.FormatID
	}
	if r.MuteVideo {
		return "bestaudio/best"
	}

	video := "bestvideo"
	if r.HasQualityCap {
		video = fmt.Sprintf("bestvideo[height<=%d]", r.QualityCap)
	}
	if r.MuteAudio {
		if r.HasQualityCap {
			return fmt.Sprintf("%s/best[height<=%d]", video, r.QualityCap)
		}
		return video + "/best"
	}

	audio := "bestaudio"
	combined := video + "+" + audio
	if r.HasQualityCap {
		return fmt.Sprintf("%s/best[height<=%d]", combined, r.QualityCap)
	}
	return combined + "/best"
}

// ContainerFor resolves the post-processing container: an explicit override
// wins; otherwise trimming defaults to webm and a plain download to mp4.
func ContainerFor(r DownloadRequest) string {
	if r.Container != "" {
		return r.Container
	}
	if r.HasTrim() {
		return "webm"
	}
	return "mp4"
}
