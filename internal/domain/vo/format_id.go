package vo

import "strings"

// FormatId is a validated format selector string, either an explicit
// extractor format expression ("best", "bestvideo+bestaudio", ...) or
// the literal "auto" meaning "compute a selector from flags".
type FormatId struct {
	value string
}

// NewFormatId trims and wraps a raw format string. Empty defaults to "auto".
func NewFormatId(raw string) FormatId {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = "auto"
	}
	return FormatId{value: trimmed}
}

// String returns the underlying selector text.
func (f FormatId) String() string { return f.value }

// IsAuto reports whether the caller left format selection to the service.
func (f FormatId) IsAuto() bool { return f.value == "" || f.value == "auto" }
