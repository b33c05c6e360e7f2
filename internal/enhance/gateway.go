// Package enhance implements the enhancement gateway: it normalizes an image
// reference (inline data URL or remote http(s) URL) into an inline payload,
// hands it to the model adapter, and returns the enhanced data URL.
package enhance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/ai-photo-landing/internal/apperr"
	"github.com/fpang/ai-photo-landing/internal/imagedata"
)

// DefaultFetchTimeout bounds a remote image fetch, body included.
const DefaultFetchTimeout = 30 * time.Second

// Gateway failure messages.
const (
	MsgMissingAPIKey      = "Server configuration error - Missing API key"
	MsgFetchTimeout       = "Image fetch timeout"
	MsgInvalidContentType = "Invalid content type: URL does not point to an image"
	MsgNoOutput           = "Failed to enhance image - No output received"
)

// Enhancer turns one inline image into an enhanced inline image.
// *chat.ImageEnhancer is the production implementation.
type Enhancer interface {
	Enhance(ctx context.Context, dataURL string) (string, error)
}

// Result is a successful enhancement. Output is always an inline data URL.
type Result struct {
	Output string `json:"output"`
}

// Options configures a Gateway. Zero values select defaults.
type Options struct {
	HTTPClient   *http.Client
	FetchTimeout time.Duration
}

// Gateway coordinates one enhancement: at most one fetch and exactly one
// model call per request. It is safe for concurrent use.
type Gateway struct {
	enhancer     Enhancer
	httpClient   *http.Client
	fetchTimeout time.Duration
}

// NewGateway creates a Gateway. A nil enhancer means no model credential is
// configured; every request then fails with a Configuration error.
func NewGateway(enhancer Enhancer, opts Options) *Gateway {
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	return &Gateway{
		enhancer:     enhancer,
		httpClient:   opts.HTTPClient,
		fetchTimeout: opts.FetchTimeout,
	}
}

// Configured reports whether the gateway has a model adapter.
func (g *Gateway) Configured() bool {
	return g.enhancer != nil
}

// Enhance resolves imageURL to inline data and returns the enhanced image.
func (g *Gateway) Enhance(ctx context.Context, imageURL string) (*Result, error) {
	if !g.Configured() {
		return nil, apperr.New(apperr.KindConfiguration, MsgMissingAPIKey)
	}

	payload, err := imagedata.ParsePayload(imageURL)
	if err != nil {
		return nil, err
	}

	dataURL := payload.DataURL
	if payload.Source == imagedata.SourceRemote {
		dataURL, err = g.fetch(ctx, payload.URL)
		if err != nil {
			return nil, err
		}
	}

	output, err := g.enhancer.Enhance(ctx, dataURL)
	if err != nil {
		return nil, err
	}
	if output == "" {
		return nil, errors.New(MsgNoOutput)
	}
	return &Result{Output: output}, nil
}

// fetch downloads a remote image and returns it as a data URL using the
// media type the server declared.
func (g *Gateway) fetch(ctx context.Context, url string) (string, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, g.fetchTimeout)
	defer cancel()

	start := time.Now()
	log.Debug().Str("url", url).Dur("timeout", g.fetchTimeout).Msg("Fetching remote image")

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, url, nil)
	if err != nil {
		return "", apperr.Wrap(apperr.KindValidation, "Invalid image URL", err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		if errors.Is(fetchCtx.Err(), context.DeadlineExceeded) {
			return "", apperr.Wrap(apperr.KindTimeout, MsgFetchTimeout, err)
		}
		return "", fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", apperr.New(apperr.KindContentType, "Failed to fetch image: "+statusText(resp))
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		log.Warn().Str("url", url).Str("content_type", contentType).Msg("Remote URL is not an image")
		return "", apperr.New(apperr.KindContentType, MsgInvalidContentType)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, imagedata.MaxImageBytes+1))
	if err != nil {
		if errors.Is(fetchCtx.Err(), context.DeadlineExceeded) {
			return "", apperr.Wrap(apperr.KindTimeout, MsgFetchTimeout, err)
		}
		return "", fmt.Errorf("failed to read image body: %w", err)
	}
	if err := imagedata.CheckSize(len(data)); err != nil {
		return "", err
	}

	log.Info().
		Str("url", url).
		Str("media_type", mediaType).
		Int("bytes", len(data)).
		Dur("duration", time.Since(start)).
		Msg("Remote image fetched")

	return imagedata.Encode(data, mediaType), nil
}

// statusText returns the reason phrase of resp, e.g. "Not Found".
func statusText(resp *http.Response) string {
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprint(resp.StatusCode)))
}
