// Package api is the HTTP boundary: route handlers for enhancement, contact
// and health, the JSON error envelope, and the middleware chain shared by the
// local server and the Lambda function.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/fpang/ai-photo-landing/internal/apperr"
	"github.com/fpang/ai-photo-landing/internal/contact"
	"github.com/fpang/ai-photo-landing/internal/enhance"
	"github.com/fpang/ai-photo-landing/internal/imagedata"
)

// Client-facing messages.
const (
	msgMissingAPIKey       = "Server configuration error - Missing API key"
	msgImageRequired       = "Image data is required"
	msgProcessFailed       = "Failed to process image"
	msgUnavailable         = "Service temporarily unavailable"
	msgEnhanceUnavailable  = "The image enhancement service is currently unavailable. Please try again later."
	msgMethodNotAllowed    = "method not allowed"
	msgInternalServerError = "Internal server error"
	msgTooManyRequests     = "Too many requests"
	statusSuccess          = "success"
)

// Request body ceilings.
const (
	maxEnhanceBodyBytes = 8 << 20 // base64 of a 4 MiB image plus JSON framing
	maxContactBodyBytes = 64 << 10
)

// VersionInfo identifies the running build.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
}

type enhanceRequest struct {
	ImageURL string `json:"imageUrl"`
}

type enhanceResponse struct {
	Status string `json:"status"`
	Output string `json:"output"`
}

type contactResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

type healthResponse struct {
	Status string `json:"status"`
	VersionInfo
}

// Handler serves the API routes. Contact may be nil when no store is
// available yet; contact submissions then report the service as initializing.
type Handler struct {
	gateway *enhance.Gateway
	contact *contact.Service
	version VersionInfo
}

// NewHandler creates a Handler.
func NewHandler(gateway *enhance.Gateway, contactSvc *contact.Service, version VersionInfo) *Handler {
	return &Handler{
		gateway: gateway,
		contact: contactSvc,
		version: version,
	}
}

// handleEnhance serves POST /api/enhance.
func (h *Handler) handleEnhance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	// Checked before the body is read so a misconfigured deployment makes no
	// outbound calls at all.
	if h.gateway == nil || !h.gateway.Configured() {
		log.Error().Str("requestId", RequestIDFrom(r.Context())).Msg("GEMINI_API_KEY is not configured")
		httpError(w, http.StatusInternalServerError, msgMissingAPIKey)
		return
	}

	var req enhanceRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEnhanceBodyBytes)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpErrorDetails(w, http.StatusInternalServerError, msgProcessFailed, imagedata.ServerSizeMessage)
			return
		}
		httpError(w, http.StatusBadRequest, msgImageRequired, err.Error())
		return
	}

	result, err := h.gateway.Enhance(r.Context(), req.ImageURL)
	if err != nil {
		writeEnhanceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, enhanceResponse{Status: statusSuccess, Output: result.Output})
}

// writeEnhanceError translates a gateway failure into the response envelope.
func writeEnhanceError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	log.Error().
		Err(err).
		Str("kind", kind.String()).
		Str("requestId", RequestIDFrom(r.Context())).
		Msg("Enhancement failed")

	switch {
	case kind == apperr.KindConfiguration:
		httpError(w, http.StatusInternalServerError, msgMissingAPIKey)
	case apperr.HTTPStatus(kind) == http.StatusBadRequest:
		httpError(w, http.StatusBadRequest, err.Error())
	case apperr.HTTPStatus(kind) == http.StatusServiceUnavailable:
		httpErrorDetails(w, http.StatusServiceUnavailable, msgUnavailable, msgEnhanceUnavailable)
	default:
		httpErrorDetails(w, http.StatusInternalServerError, msgProcessFailed, err.Error())
	}
}

// handleContact serves POST /api/contact.
func (h *Handler) handleContact(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	var req contact.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxContactBodyBytes)).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, contact.MsgMissingFields, err.Error())
		return
	}

	if h.contact == nil {
		// Validation still runs so callers get a 400 for bad input first.
		if err := req.Validate(); err != nil {
			httpError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Warn().Msg("Contact submission received but no contact store is configured")
		httpErrorDetails(w, http.StatusServiceUnavailable, msgUnavailable, contact.MsgNotProvisioned)
		return
	}

	id, err := h.contact.Submit(r.Context(), req)
	if err != nil {
		switch apperr.HTTPStatus(apperr.KindOf(err)) {
		case http.StatusBadRequest:
			httpError(w, http.StatusBadRequest, err.Error())
		case http.StatusServiceUnavailable:
			httpErrorDetails(w, http.StatusServiceUnavailable, msgUnavailable, contact.MsgNotProvisioned)
		default:
			log.Error().Err(err).Str("requestId", RequestIDFrom(r.Context())).Msg("Contact submission failed")
			httpErrorDetails(w, http.StatusInternalServerError, contact.MsgSubmitFailed, err.Error())
		}
		return
	}

	respondJSON(w, http.StatusOK, contactResponse{Message: contact.MsgSubmitSucceeded, ID: id})
}

// handleHealth serves GET /api/health.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		httpError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}
	respondJSON(w, http.StatusOK, healthResponse{Status: "ok", VersionInfo: h.version})
}
