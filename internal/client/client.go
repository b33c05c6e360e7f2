// Package client calls the landing API from Go: it encodes local photos,
// submits them for enhancement, and sends contact messages. After the
// contact endpoint reports the service as initializing, further contact
// submissions are refused locally for a cooldown period.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/ai-photo-landing/internal/imagedata"
)

// DefaultContactCooldown is how long contact submissions are held back
// after a 503 from the contact endpoint.
const DefaultContactCooldown = 30 * time.Second

// DefaultTimeout bounds one API call; the server itself allows up to 60 s
// for an enhancement.
const DefaultTimeout = 90 * time.Second

// maxResponseBytes bounds a response body: an enhanced 4 MiB image as
// base64 plus JSON framing.
var maxResponseBytes int64 = 8 << 20

// ErrCoolingDown is returned when a contact submission is attempted during
// the cooldown window.
var ErrCoolingDown = errors.New("contact service is initializing; please wait before retrying")

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (HTTP %d)", e.Message, e.Details, e.StatusCode)
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
}

// Client is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cooldown   time.Duration
	now        func() time.Time

	mu            sync.Mutex
	retryNotUntil time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithContactCooldown overrides DefaultContactCooldown.
func WithContactCooldown(d time.Duration) Option {
	return func(c *Client) { c.cooldown = d }
}

// New creates a Client for the API rooted at baseURL (e.g.
// "http://localhost:8080").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		cooldown:   DefaultContactCooldown,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EnhanceFile encodes a local image (refusing files over 4 MB before reading
// them) and submits it for enhancement. It returns the enhanced data URL.
func (c *Client) EnhanceFile(ctx context.Context, path string) (string, error) {
	dataURL, err := imagedata.EncodeFile(ctx, path)
	if err != nil {
		return "", err
	}
	return c.Enhance(ctx, dataURL)
}

// Enhance submits an image reference (data URL or http(s) URL) and returns
// the enhanced image as a data URL.
func (c *Client) Enhance(ctx context.Context, imageURL string) (string, error) {
	var out struct {
		Status string `json:"status"`
		Output string `json:"output"`
	}
	if err := c.post(ctx, "/api/enhance", map[string]string{"imageUrl": imageURL}, &out); err != nil {
		return "", err
	}
	if out.Output == "" {
		return "", errors.New("enhancement response contained no output")
	}
	return out.Output, nil
}

// ContactRequest is a contact form message.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// SubmitContact sends a contact message and returns the stored ID. After a
// 503 it returns ErrCoolingDown without calling the API until the cooldown
// has elapsed.
func (c *Client) SubmitContact(ctx context.Context, req ContactRequest) (string, error) {
	if wait := c.CooldownRemaining(); wait > 0 {
		log.Debug().Dur("remaining", wait).Msg("Contact submission held back during cooldown")
		return "", ErrCoolingDown
	}

	var out struct {
		Message string `json:"message"`
		ID      string `json:"id"`
	}
	err := c.post(ctx, "/api/contact", req, &out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusServiceUnavailable {
		c.mu.Lock()
		c.retryNotUntil = c.now().Add(c.cooldown)
		c.mu.Unlock()
		log.Warn().Dur("cooldown", c.cooldown).Msg("Contact service unavailable; cooling down")
	}
	if err != nil {
		return "", err
	}
	return out.ID, nil
}

// CooldownRemaining returns how long contact submissions are still held back.
func (c *Client) CooldownRemaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if remaining := c.retryNotUntil.Sub(c.now()); remaining > 0 {
		return remaining
	}
	return 0
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if int64(len(data)) > maxResponseBytes {
		return fmt.Errorf("POST %s: response too large: exceeds %d bytes", path, maxResponseBytes)
	}
	log.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("API call complete")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var envelope struct {
			Error   string `json:"error"`
			Details string `json:"details"`
		}
		if json.Unmarshal(data, &envelope) == nil && envelope.Error != "" {
			apiErr.Message = envelope.Error
			apiErr.Details = envelope.Details
		}
		return apiErr
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
