package vo

import (
	"fmt"
)

// JobProgress is an immutable snapshot of how far a download job has come.
// Percentage is always within [0,100] (NewJobProgress rejects values
// outside it); Phase is never empty.
type JobProgress struct {
	Percentage int
	Phase      string
	Speed      string
	ETASeconds int
	hasSpeed   bool
	hasETA     bool
}

// HasSpeed reports whether Speed was set (distinguishes "" from unset).
func (p JobProgress) HasSpeed() bool { return p.hasSpeed }

// HasETA reports whether ETASeconds was set.
func (p JobProgress) HasETA() bool { return p.hasETA }

// NewJobProgress validates and constructs a JobProgress.
func NewJobProgress(percentage int, phase string, speed string, hasSpeed bool, eta int, hasETA bool) (JobProgress, error) {
	if percentage < 0 || percentage > 100 {
		return JobProgress{}, fmt.Errorf("percentage must be between 0 and 100, got %d", percentage)
	}
	if phase == "" {
		return JobProgress{}, fmt.Errorf("phase is required")
	}
	return JobProgress{
		Percentage: percentage,
		Phase:      phase,
		Speed:      speed,
		hasSpeed:   hasSpeed,
		ETASeconds: eta,
		hasETA:     hasETA,
	}, nil
}

// Initial is the progress of a freshly created, not-yet-started job.
func Initial() JobProgress {
	p, _ := NewJobProgress(0, "initializing", "", false, 0, false)
	return p
}

// MetadataExtraction is the progress phase entered by DownloadJob.Start.
func MetadataExtraction() JobProgress {
	p, _ := NewJobProgress(5, "extracting metadata", "", false, 0, false)
	return p
}

// Downloading builds the progress for an in-flight download tick.
func Downloading(percentage int, speed string, etaSeconds int, hasETA bool) JobProgress {
	clamped := percentage
	if clamped < 10 {
		clamped = 10
	}
	if clamped > 95 {
		clamped = 95
	}
	p, _ := NewJobProgress(clamped, "downloading", speed, speed != "", etaSeconds, hasETA)
	return p
}

// Processing is the generic post-download phase (merge, remux, subtitle burn-in, ...).
func Processing(percentage int) JobProgress {
	p, _ := NewJobProgress(percentage, "processing", "", false, 0, false)
	return p
}

// Merging is the FFmpegMerger post-processor phase.
func Merging(percentage int) JobProgress {
	p, _ := NewJobProgress(percentage, "merging", "", false, 0, false)
	return p
}

// Converting is the FFmpegVideoConvertor post-processor phase.
func Converting(percentage int) JobProgress {
	p, _ := NewJobProgress(percentage, "converting", "", false, 0, false)
	return p
}

// Completed is the terminal progress forced by DownloadJob.Complete.
func Completed() JobProgress {
	p, _ := NewJobProgress(100, "completed", "", false, 0, false)
	return p
}

// ToMap renders the progress for JSON/event serialization.
func (p JobProgress) ToMap() map[string]any {
	m := map[string]any{
		"percentage": p.Percentage,
		"phase":      p.Phase,
	}
	if p.hasSpeed {
		m["speed"] = p.Speed
	} else {
		m["speed"] = nil
	}
	if p.hasETA {
		m["eta"] = p.ETASeconds
	} else {
		m["eta"] = nil
	}
	return m
}

// JobProgressFromMap reconstructs a JobProgress from its serialized form.
func JobProgressFromMap(m map[string]any) JobProgress {
	percentage, _ := toInt(m["percentage"])
	phase, _ := m["phase"].(string)
	if phase == "" {
		phase = "initializing"
	}
	speed, hasSpeed := m["speed"].(string)
	eta, hasETA := toInt(m["eta"])
	p, _ := NewJobProgress(percentage, phase, speed, hasSpeed, eta, hasETA)
	return p
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
