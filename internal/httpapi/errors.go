package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	apperrors "kingo/internal/errors"
)

// errorBody is the canonical error shape §6/§7 require on every non-2xx
// response: {error, title, message, action[, error_category, limit_type,
// reset_at]}.
type errorBody struct {
	Error         string `json:"error"`
	Title         string `json:"title"`
	Message       string `json:"message"`
	Action        string `json:"action"`
	ErrorCategory string `json:"error_category,omitempty"`
	LimitType     string `json:"limit_type,omitempty"`
	ResetAt       string `json:"reset_at,omitempty"`
}

// writeError classifies err into a stable category, composes the frozen
// (title, message, action) triple from apperrors.Taxonomy, and writes the
// canonical body at the status that category maps to. Internal detail
// (the Go error string) is logged by the caller, never placed here.
func writeError(w http.ResponseWriter, err error) {
	category := classify(err)
	detail, ok := apperrors.Taxonomy[category]
	if !ok {
		detail = apperrors.Taxonomy[apperrors.CategorySystemError]
	}
	status := apperrors.StatusCode(category)

	body := errorBody{
		Error:         string(category),
		Title:         detail.Title,
		Message:       detail.Message,
		Action:        detail.Action,
		ErrorCategory: string(category),
	}

	var rle *apperrors.RateLimitExceededError
	if errors.As(err, &rle) {
		body.LimitType = rle.LimitType
		body.ResetAt = rle.ResetAt.UTC().Format(time.RFC3339)
	}

	writeJSON(w, status, body)
}

// classify maps a domain error to its stable wire category. Errors that
// already carry a CategorizedError win outright; otherwise the sentinel
// chain (errors.Is) picks the closest taxonomy entry.
func classify(err error) apperrors.Category {
	var rle *apperrors.RateLimitExceededError
	if errors.As(err, &rle) {
		return apperrors.CategoryRateLimited
	}
	var ce *apperrors.CategorizedError
	if errors.As(err, &ce) {
		return ce.Category
	}
	switch {
	case errors.Is(err, apperrors.ErrJobNotFound):
		return apperrors.CategoryJobNotFound
	case errors.Is(err, apperrors.ErrFileNotFound):
		return apperrors.CategoryFileNotFound
	case errors.Is(err, apperrors.ErrFileExpired):
		return apperrors.CategoryFileExpired
	case errors.Is(err, apperrors.ErrInvalidRequest):
		return apperrors.CategoryInvalidRequest
	case errors.Is(err, apperrors.ErrUnsupportedPlatform), errors.Is(err, apperrors.ErrInvalidURL):
		return apperrors.CategoryInvalidURL
	case errors.Is(err, apperrors.ErrMetadataExtraction):
		return apperrors.CategoryInvalidURL
	case errors.Is(err, apperrors.ErrJobState):
		return apperrors.CategoryInvalidRequest
	default:
		return apperrors.CategorySystemError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
