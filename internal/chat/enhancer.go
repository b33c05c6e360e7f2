package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/ai-photo-landing/internal/apperr"
	"github.com/fpang/ai-photo-landing/internal/assets"
	"github.com/fpang/ai-photo-landing/internal/imagedata"
	"github.com/fpang/ai-photo-landing/internal/llmtext"
	"github.com/fpang/ai-photo-landing/internal/metrics"
)

// DefaultEnhanceTimeout bounds a single model call.
const DefaultEnhanceTimeout = 30 * time.Second

// Adapter failure messages.
const (
	MsgMissingAPIKey     = "GEMINI_API_KEY is not configured"
	MsgRequestTimeout    = "Request timeout"
	MsgInvalidResponse   = "Invalid response format from the model"
	MsgNoOutput          = "Failed to enhance image - No output received"
	MsgInvalidImageInput = "Invalid image data"
)

// ContentGenerator is the subset of *genai.Models used by ImageEnhancer.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// EnhancerOptions configures an ImageEnhancer. Zero values select defaults.
type EnhancerOptions struct {
	Model           string
	Timeout         time.Duration
	Temperature     float32
	MaxOutputTokens int32
	// HTTPClient is passed to the genai SDK; nil uses its default.
	HTTPClient *http.Client
}

// ImageEnhancer sends photos to Gemini with a fixed enhancement instruction
// and turns the textual answer back into a data URL. It holds no per-request
// state and is safe for concurrent use.
type ImageEnhancer struct {
	models      ContentGenerator
	model       string
	timeout     time.Duration
	config      *genai.GenerateContentConfig
	instruction string
}

// NewImageEnhancer creates an enhancer backed by the Gemini API. A missing
// API key is reported here as a configuration error rather than on first use.
func NewImageEnhancer(ctx context.Context, apiKey string, opts EnhancerOptions) (*ImageEnhancer, error) {
	if apiKey == "" {
		return nil, apperr.New(apperr.KindConfiguration, MsgMissingAPIKey)
	}
	client, err := NewGeminiClient(ctx, apiKey, opts.HTTPClient)
	if err != nil {
		return nil, err
	}
	return NewImageEnhancerWithModels(client.Models, opts), nil
}

// NewImageEnhancerWithModels creates an enhancer over an existing
// ContentGenerator, such as the Models service of a shared genai client.
func NewImageEnhancerWithModels(models ContentGenerator, opts EnhancerOptions) *ImageEnhancer {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultEnhanceTimeout
	}
	if opts.Temperature == 0 {
		opts.Temperature = DefaultTemperature
	}
	if opts.MaxOutputTokens <= 0 {
		opts.MaxOutputTokens = DefaultMaxOutputTokens
	}
	return &ImageEnhancer{
		models:  models,
		model:   ResolveModelName(opts.Model),
		timeout: opts.Timeout,
		config: &genai.GenerateContentConfig{
			Temperature:     genai.Ptr(opts.Temperature),
			MaxOutputTokens: opts.MaxOutputTokens,
		},
		instruction: assets.EnhanceInstruction(),
	}
}

// Model returns the Gemini model ID used for enhancement.
func (e *ImageEnhancer) Model() string {
	return e.model
}

// Enhance sends one inline image (data URL) to the model and returns the
// enhanced image as a data URL. Upstream failures are translated by
// TranslateError; nothing is retried.
func (e *ImageEnhancer) Enhance(ctx context.Context, dataURL string) (string, error) {
	start := time.Now()
	output, err := e.enhance(ctx, dataURL)
	elapsed := time.Since(start)

	if err != nil {
		err = TranslateError(err)
		log.Error().
			Err(err).
			Str("kind", apperr.KindOf(err).String()).
			Dur("duration", elapsed).
			Msg("Image enhancement failed")
	}

	outcome := "success"
	if err != nil {
		outcome = apperr.KindOf(err).String()
	}
	metrics.New(metrics.Namespace).
		Dimension("Outcome", outcome).
		Duration("EnhanceLatencyMs", elapsed).
		Count("EnhanceCount").
		Property("model", e.model).
		Flush()

	return output, err
}

func (e *ImageEnhancer) enhance(ctx context.Context, dataURL string) (string, error) {
	mimeType, data, err := imagedata.ParseDataURL(dataURL)
	if err != nil {
		return "", apperr.Wrap(apperr.KindValidation, MsgInvalidImageInput, err)
	}
	// Checked again here even though the gateway has already seen the payload.
	if err := imagedata.CheckSize(len(data)); err != nil {
		return "", err
	}
	if mimeType == "" {
		mimeType = imagedata.DefaultMIMEType
	}

	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{Text: e.instruction},
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
		},
	}}

	log.Info().
		Str("model", e.model).
		Int("image_bytes", len(data)).
		Str("image_mime", mimeType).
		Msg("Sending image to Gemini for enhancement")

	resp, err := e.generate(ctx, contents)
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", errors.New(MsgNoOutput)
	}

	enhanced, err := CleanModelOutput(resp.Text())
	if err != nil {
		return "", err
	}

	log.Info().
		Int("output_bytes", len(enhanced)).
		Msg("Gemini image enhancement complete")

	return imagedata.DataURL(enhanced), nil
}

var errNotAnImage = errors.New("decoded output is not a recognized image format")

type generateResult struct {
	resp *genai.GenerateContentResponse
	err  error
}

// generate races the model call against the enhancer timeout. When the timer
// fires first the call's context is cancelled and its result is discarded.
func (e *ImageEnhancer) generate(ctx context.Context, contents []*genai.Content) (*genai.GenerateContentResponse, error) {
	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan generateResult, 1)
	go func() {
		resp, err := e.models.GenerateContent(callCtx, e.model, contents, e.config)
		done <- generateResult{resp: resp, err: err}
	}()

	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("failed to generate content: %w", res.err)
		}
		return res.resp, nil
	case <-timer.C:
		cancel()
		log.Warn().Dur("timeout", e.timeout).Msg("Gemini call timed out; abandoning request")
		return nil, apperr.New(apperr.KindTimeout, MsgRequestTimeout)
	case <-ctx.Done():
		return nil, fmt.Errorf("enhancement canceled: %w", ctx.Err())
	}
}

// CleanModelOutput strips markdown fences, wrapping quotes and any data URL
// prefix from the model's text answer and decodes the remaining base64. The
// decoded bytes must be a recognizable image; prose that happens to decode
// as base64 is rejected.
func CleanModelOutput(text string) ([]byte, error) {
	cleaned := llmtext.StripMarkdownFences(text)
	cleaned = strings.TrimSpace(llmtext.StripQuotes(cleaned))
	_, body := imagedata.SplitDataURL(cleaned)
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, errors.New(MsgNoOutput)
	}

	data, err := imagedata.DecodeBase64(body)
	if err != nil {
		log.Debug().
			Str("response", llmtext.Truncate(text, 200)).
			Msg("Model response is not base64 image data")
		return nil, apperr.Wrap(apperr.KindMalformedResponse, MsgInvalidResponse, err)
	}
	if _, ok := imagedata.SniffMIME(data); !ok {
		log.Debug().
			Str("response", llmtext.Truncate(text, 200)).
			Int("decoded_bytes", len(data)).
			Msg("Model response decoded but is not an image")
		return nil, apperr.Wrap(apperr.KindMalformedResponse, MsgInvalidResponse, errNotAnImage)
	}
	return data, nil
}
