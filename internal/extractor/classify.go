package extractor

import (
	"strings"

	apperrors "kingo/internal/errors"
)

// CategorizeError classifies an extractor failure into a stable wire
// category. message is the lowercased combination of the Go error and any
// captured stderr output — the extractor's text is the only signal
// available for most of these distinctions (geo vs login vs generic 403).
// Rules are applied in order; the first match wins.
func CategorizeError(err error) apperrors.Category {
	if err == nil {
		return apperrors.CategorySystemError
	}
	message := strings.ToLower(err.Error())

	if isDownloadErrorMessage(message) {
		return categorizeDownloadError(message)
	}
	if isExtractorErrorMessage(message) {
		return categorizeExtractorError(message)
	}
	return categorizeGenericMessage(message)
}

// isDownloadErrorMessage recognizes the extractor's own "download error"
// framing, as opposed to an extraction-stage error.
func isDownloadErrorMessage(message string) bool {
	return strings.Contains(message, "unable to download") ||
		strings.Contains(message, "http error") ||
		strings.Contains(message, "requested format")
}

func isExtractorErrorMessage(message string) bool {
	return strings.Contains(message, "unsupported url") ||
		strings.Contains(message, "unable to extract") ||
		strings.Contains(message, "is not a valid url")
}

func categorizeExtractorError(message string) apperrors.Category {
	switch {
	case containsAny(message, "unsupported url", "invalid url"):
		return apperrors.CategoryInvalidURL
	case containsAny(message, "private video", "members-only", "not available"):
		return apperrors.CategoryVideoUnavailable
	default:
		return apperrors.CategoryDownloadFailed
	}
}

func categorizeDownloadError(message string) apperrors.Category {
	switch {
	case containsAny(message, "http error 404", "not found"):
		return apperrors.CategoryVideoUnavailable
	case strings.Contains(message, "http error 403"):
		switch {
		case containsAny(message, "geo", "region", "location"):
			return apperrors.CategoryGeoBlocked
		case containsAny(message, "login", "sign in", "authenticate"):
			return apperrors.CategoryLoginRequired
		default:
			return apperrors.CategoryVideoUnavailable
		}
	case containsAny(message, "http error 429", "too many requests"):
		return apperrors.CategoryPlatformRateLimited
	case containsAny(message, "format") && containsAny(message, "not available", "not found"):
		return apperrors.CategoryFormatNotSupported
	case containsAny(message, "network", "connection", "timeout"):
		return apperrors.CategoryNetworkError
	default:
		return apperrors.CategoryDownloadFailed
	}
}

// categorizeGenericMessage applies the same substring heuristics against an
// arbitrary lowercased error message when the extractor's own error
// typing can't be determined (e.g. a panic, an os/exec start failure).
func categorizeGenericMessage(message string) apperrors.Category {
	switch {
	case strings.Contains(message, "url") && containsAny(message, "invalid", "unsupported"):
		return apperrors.CategoryInvalidURL
	case containsAny(message, "unavailable", "private", "deleted"):
		return apperrors.CategoryVideoUnavailable
	case strings.Contains(message, "format") && strings.Contains(message, "not"):
		return apperrors.CategoryFormatNotSupported
	case containsAny(message, "too large", "file size"):
		return apperrors.CategoryFileTooLarge
	case containsAny(message, "network", "connection", "timeout"):
		return apperrors.CategoryNetworkError
	case containsAny(message, "rate limit", "too many"):
		return apperrors.CategoryPlatformRateLimited
	case containsAny(message, "geo", "region", "location"):
		return apperrors.CategoryGeoBlocked
	case containsAny(message, "login", "sign in", "authenticate"):
		return apperrors.CategoryLoginRequired
	default:
		return apperrors.CategorySystemError
	}
}

func containsAny(message string, substrings ...string) bool {
	for _, s := range substrings {
		if strings.Contains(message, s) {
			return true
		}
	}
	return false
}
