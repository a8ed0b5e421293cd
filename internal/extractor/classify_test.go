package extractor

import (
	"errors"
	"testing"

	apperrors "kingo/internal/errors"
)

func TestCategorizeError_NilIsSystemError(t *testing.T) {
	if got := CategorizeError(nil); got != apperrors.CategorySystemError {
		t.Errorf("CategorizeError(nil) = %q, want %q", got, apperrors.CategorySystemError)
	}
}

func TestCategorizeError_DownloadErrors(t *testing.T) {
	tests := []struct {
		message string
		want    apperrors.Category
	}{
		{"ERROR: unable to download webpage: HTTP Error 404: Not Found", apperrors.CategoryVideoUnavailable},
		{"unable to download: HTTP Error 403: geo restricted region", apperrors.CategoryGeoBlocked},
		{"unable to download: HTTP Error 403: please sign in to confirm", apperrors.CategoryLoginRequired},
		{"unable to download: HTTP Error 403: forbidden", apperrors.CategoryVideoUnavailable},
		{"unable to download: HTTP Error 429: too many requests", apperrors.CategoryPlatformRateLimited},
		{"requested format is not available for this video", apperrors.CategoryFormatNotSupported},
		{"unable to download due to network connection timeout", apperrors.CategoryNetworkError},
		{"unable to download: some unrecognized failure", apperrors.CategoryDownloadFailed},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			if got := CategorizeError(errors.New(tt.message)); got != tt.want {
				t.Errorf("CategorizeError(%q) = %q, want %q", tt.message, got, tt.want)
			}
		})
	}
}

func TestCategorizeError_ExtractorErrors(t *testing.T) {
	tests := []struct {
		message string
		want    apperrors.Category
	}{
		{"ERROR: Unsupported URL: https://example.com/x", apperrors.CategoryInvalidURL},
		{"ERROR: unable to extract video data: private video", apperrors.CategoryVideoUnavailable},
		{"ERROR: unable to extract video data: unexpected error", apperrors.CategoryDownloadFailed},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			if got := CategorizeError(errors.New(tt.message)); got != tt.want {
				t.Errorf("CategorizeError(%q) = %q, want %q", tt.message, got, tt.want)
			}
		})
	}
}

func TestCategorizeError_GenericFallback(t *testing.T) {
	tests := []struct {
		message string
		want    apperrors.Category
	}{
		{"invalid url supplied", apperrors.CategoryInvalidURL},
		{"this video is unavailable", apperrors.CategoryVideoUnavailable},
		{"video format not supported", apperrors.CategoryFormatNotSupported},
		{"resulting file size too large", apperrors.CategoryFileTooLarge},
		{"connection timeout while fetching", apperrors.CategoryNetworkError},
		{"rate limit exceeded", apperrors.CategoryPlatformRateLimited},
		{"content blocked in your region", apperrors.CategoryGeoBlocked},
		{"please sign in to continue", apperrors.CategoryLoginRequired},
		{"completely unexpected failure", apperrors.CategorySystemError},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			if got := CategorizeError(errors.New(tt.message)); got != tt.want {
				t.Errorf("CategorizeError(%q) = %q, want %q", tt.message, got, tt.want)
			}
		})
	}
}
