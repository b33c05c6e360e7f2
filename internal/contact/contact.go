// Package contact validates contact form submissions and hands them to a
// store.ContactStore.
package contact

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/fpang/ai-photo-landing/internal/apperr"
	"github.com/fpang/ai-photo-landing/internal/store"
)

// Validation and failure messages returned to clients.
const (
	MsgMissingFields   = "Missing required fields"
	MsgInvalidEmail    = "Invalid email format"
	MsgNotProvisioned  = "The service is being initialized. Please try again in a few minutes."
	MsgSubmitFailed    = "Failed to send message"
	MsgSubmitSucceeded = "Message sent successfully"
)

var emailPattern = regexp.MustCompile(`(?i)^[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}$`)

// Request is the body of a contact form submission.
type Request struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// ValidEmail reports whether s looks like a deliverable email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// Validate trims the request fields and checks them. It returns a Validation
// error on failure.
func (r *Request) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Message = strings.TrimSpace(r.Message)

	if r.Name == "" || r.Email == "" || r.Message == "" {
		return apperr.New(apperr.KindValidation, MsgMissingFields)
	}
	if !ValidEmail(r.Email) {
		return apperr.New(apperr.KindValidation, MsgInvalidEmail)
	}
	return nil
}

// Service accepts contact submissions.
type Service struct {
	store store.ContactStore
}

// NewService returns a Service writing to s.
func NewService(s store.ContactStore) *Service {
	return &Service{store: s}
}

// Submit validates req and writes one submission with status "new". It
// returns the stored record's ID. Invalid input never reaches the store.
func (s *Service) Submit(ctx context.Context, req Request) (string, error) {
	if err := req.Validate(); err != nil {
		log.Debug().Err(err).Msg("Contact submission rejected")
		return "", err
	}

	submission := &store.ContactSubmission{
		Name:    req.Name,
		Email:   req.Email,
		Message: req.Message,
		Status:  store.StatusNew,
	}
	id, err := s.store.PutContact(ctx, submission)
	if err != nil {
		if IsProvisioningError(err) {
			log.Warn().Err(err).Msg("Contact store not provisioned yet")
			return "", apperr.Wrap(apperr.KindProvisioning, MsgNotProvisioned, err)
		}
		log.Error().Err(err).Msg("Failed to store contact submission")
		return "", err
	}

	log.Info().Str("contactId", id).Msg("Contact submission stored")
	return id, nil
}

// IsProvisioningError reports whether err means the store exists but is not
// ready to accept writes yet.
func IsProvisioningError(err error) bool {
	return errors.Is(err, store.ErrNotProvisioned) || apperr.Is(err, apperr.KindProvisioning)
}
