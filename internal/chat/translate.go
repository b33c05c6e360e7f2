package chat

import (
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/ai-photo-landing/internal/apperr"
)

// Upstream error text matched by TranslateError. These substrings are a
// contract with the Gemini API's error messages; if the wording changes the
// error falls through as a generic failure.
const (
	upstreamModelNotFound  = "model not found"
	upstreamPermission     = "PERMISSION_DENIED"
	upstreamQuota          = "RESOURCE_EXHAUSTED"
	upstreamInvalidRequest = "invalid_request"
)

// User-presentable messages for translated upstream failures.
const (
	MsgServiceUnavailable = "The image enhancement service is currently unavailable. Please try again later."
	MsgPermissionDenied   = "API key is invalid or has insufficient permissions."
	MsgQuotaExceeded      = "API quota exceeded. Please try again later."
	MsgInvalidRequest     = "Invalid request format. Please check your image format and try again."
)

// TranslateError maps an upstream model error to a categorized *apperr.Error
// by matching its message. Errors that already carry a kind, and errors that
// match nothing, are returned unchanged.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	if apperr.KindOf(err) != apperr.KindGeneric {
		return err
	}

	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		log.Debug().
			Int("code", apiErr.Code).
			Str("status", apiErr.Status).
			Msg("Gemini API error")
	}

	// APIError.Error() carries the status string, so one match covers both
	// SDK errors and plain transport errors.
	msg := err.Error()
	switch {
	case strings.Contains(msg, upstreamModelNotFound):
		return apperr.Wrap(apperr.KindUpstreamUnavailable, MsgServiceUnavailable, err)
	case strings.Contains(msg, upstreamPermission):
		return apperr.Wrap(apperr.KindPermission, MsgPermissionDenied, err)
	case strings.Contains(msg, upstreamQuota):
		return apperr.Wrap(apperr.KindQuota, MsgQuotaExceeded, err)
	case strings.Contains(msg, upstreamInvalidRequest):
		return apperr.Wrap(apperr.KindInvalidRequest, MsgInvalidRequest, err)
	default:
		return err
	}
}
