// Package apperr defines the error taxonomy shared by the enhancement and
// contact pipelines. Every failure that needs a specific HTTP translation is
// an *Error with a Kind; anything else is treated as a generic failure.
package apperr

import (
	"errors"
	"net/http"
)

// Kind categorizes a pipeline failure.
type Kind int

const (
	// KindGeneric is any failure without a more specific category.
	KindGeneric Kind = iota
	// KindValidation indicates a missing or malformed required field.
	KindValidation
	// KindConfiguration indicates a required upstream credential is absent.
	KindConfiguration
	// KindTimeout indicates a fetch or model call exceeded its bound.
	KindTimeout
	// KindContentType indicates a fetched resource is not an image.
	KindContentType
	// KindSizeLimit indicates decoded image bytes exceed the ceiling.
	KindSizeLimit
	// KindUpstreamUnavailable indicates the model reports it is unavailable.
	KindUpstreamUnavailable
	// KindPermission indicates an invalid or insufficient upstream credential.
	KindPermission
	// KindQuota indicates upstream quota exhaustion.
	KindQuota
	// KindInvalidRequest indicates the upstream rejected the request format.
	KindInvalidRequest
	// KindMalformedResponse indicates the model output is not usable image data.
	KindMalformedResponse
	// KindProvisioning indicates the document store is not yet provisioned.
	KindProvisioning
)

var kindNames = map[Kind]string{
	KindGeneric:             "generic",
	KindValidation:          "validation",
	KindConfiguration:       "configuration",
	KindTimeout:             "timeout",
	KindContentType:         "content_type",
	KindSizeLimit:           "size_limit",
	KindUpstreamUnavailable: "upstream_unavailable",
	KindPermission:          "permission",
	KindQuota:               "quota",
	KindInvalidRequest:      "invalid_request",
	KindMalformedResponse:   "malformed_response",
	KindProvisioning:        "provisioning",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Error is a categorized pipeline failure. Message is user-presentable.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an Error of the given kind that keeps err as its cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindGeneric.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindGeneric
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps a kind to the status code used at the route boundary.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUpstreamUnavailable, KindProvisioning:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
