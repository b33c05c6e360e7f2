package auth

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/ai-photo-landing/internal/metrics"
)

// ValidationError represents a specific type of API key validation failure.
type ValidationError struct {
	Type    ValidationErrorType
	Message string
	Err     error
}

// ValidationErrorType categorizes validation failures.
type ValidationErrorType int

const (
	// ErrTypeNoKey indicates no API key was found.
	ErrTypeNoKey ValidationErrorType = iota
	// ErrTypeInvalidKey indicates the API key is invalid or revoked.
	ErrTypeInvalidKey
	// ErrTypeNetworkError indicates a network connectivity issue.
	ErrTypeNetworkError
	// ErrTypeQuotaExceeded indicates the API quota has been exceeded.
	ErrTypeQuotaExceeded
	// ErrTypeUnknown indicates an unknown error occurred.
	ErrTypeUnknown
)

var validationResults = map[ValidationErrorType]string{
	ErrTypeNoKey:         "no_key",
	ErrTypeInvalidKey:    "invalid",
	ErrTypeNetworkError:  "network_error",
	ErrTypeQuotaExceeded: "quota",
	ErrTypeUnknown:       "unknown",
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// contentGenerator is the subset of *genai.Models used for validation.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// ValidateAPIKey verifies the API key with a minimal text request to model.
// It returns nil if the key works, or a *ValidationError describing why not.
func ValidateAPIKey(ctx context.Context, models contentGenerator, model string) error {
	if models == nil {
		return &ValidationError{Type: ErrTypeNoKey, Message: "no API key configured"}
	}
	log.Debug().Str("model", model).Msg("Validating API key with Gemini API")

	start := time.Now()
	resp, err := models.GenerateContent(ctx, model, genai.Text("hi"), &genai.GenerateContentConfig{MaxOutputTokens: 1})
	elapsed := time.Since(start)

	var valErr *ValidationError
	switch {
	case err != nil:
		valErr = classifyError(err)
	case resp == nil || len(resp.Candidates) == 0:
		log.Warn().Msg("API key validation returned empty response")
		valErr = &ValidationError{Type: ErrTypeUnknown, Message: "API returned empty response"}
	}

	result := "success"
	if valErr != nil {
		result = validationResults[valErr.Type]
	}
	metrics.New(metrics.Namespace).
		Dimension("Result", result).
		Duration("ApiKeyValidationMs", elapsed).
		Count("ApiKeyValidationResult").
		Flush()

	if valErr != nil {
		return valErr
	}
	log.Info().Dur("duration", elapsed).Msg("API key validated successfully")
	return nil
}

// textPatterns classify errors that carry no *genai.APIError, such as
// transport failures. The first matching row wins.
var textPatterns = []struct {
	typ     ValidationErrorType
	message string
	needles []string
}{
	{ErrTypeInvalidKey, "Gemini rejected the API key; check GEMINI_API_KEY or the SSM parameter",
		[]string{"api key not valid", "invalid api key", "api_key_invalid", "permission denied"}},
	{ErrTypeQuotaExceeded, "Gemini quota exhausted or rate limited",
		[]string{"quota", "resource exhausted", "rate limit"}},
	{ErrTypeNetworkError, "Could not reach the Gemini API",
		[]string{"connection", "network", "timeout", "dial", "no such host", "unreachable"}},
}

// classifyError maps a validation call failure to a ValidationError.
func classifyError(err error) *ValidationError {
	if err == nil {
		return nil
	}

	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		return classifyAPIError(apiErr)
	}

	errLower := strings.ToLower(err.Error())
	for _, p := range textPatterns {
		for _, needle := range p.needles {
			if strings.Contains(errLower, needle) {
				log.Error().Err(err).Str("result", validationResults[p.typ]).Msg("API key validation failed")
				return &ValidationError{Type: p.typ, Message: p.message, Err: err}
			}
		}
	}
	log.Error().Err(err).Msg("API key validation failed for an unrecognized reason")
	return &ValidationError{Type: ErrTypeUnknown, Message: "Failed to validate API key", Err: err}
}

// classifyAPIError maps a Gemini API status code to a ValidationError.
func classifyAPIError(err *genai.APIError) *ValidationError {
	valErr := &ValidationError{Type: ErrTypeUnknown, Message: err.Message, Err: err}
	switch {
	case err.Code == 400 || err.Code == 401 || err.Code == 403:
		valErr.Type = ErrTypeInvalidKey
		valErr.Message = "Gemini rejected the API key (HTTP " + strconv.Itoa(err.Code) + ")"
	case err.Code == 429:
		valErr.Type = ErrTypeQuotaExceeded
		valErr.Message = "Gemini rate limit exceeded; try again later"
	case err.Code >= 500:
		valErr.Type = ErrTypeNetworkError
		valErr.Message = "Gemini API server error; try again later"
	}
	log.Error().
		Int("code", err.Code).
		Str("status", err.Status).
		Str("result", validationResults[valErr.Type]).
		Msg("Gemini API error during key validation")
	return valErr
}
