package chat

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
	"pgregory.net/rapid"

	"github.com/fpang/ai-photo-landing/internal/apperr"
	"github.com/fpang/ai-photo-landing/internal/imagedata"
)

// fakeGenerator returns a canned response (or error) after an optional delay.
type fakeGenerator struct {
	text  string
	err   error
	delay time.Duration
	calls atomic.Int32

	gotModel    string
	gotContents []*genai.Content
	gotConfig   *genai.GenerateContentConfig
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls.Add(1)
	f.gotModel = model
	f.gotContents = contents
	f.gotConfig = config
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return textResponse(f.text), nil
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Role:  "model",
				Parts: []*genai.Part{{Text: text}},
			},
		}},
	}
}

// fataler is satisfied by both *testing.T and *rapid.T.
type fataler interface {
	Helper()
	Fatalf(format string, args ...any)
}

func testPNG(t fataler, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 200, G: 10, B: 10, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestNewImageEnhancer_MissingAPIKey(t *testing.T) {
	_, err := NewImageEnhancer(context.Background(), "", EnhancerOptions{})
	require.Error(t, err)
	assert.Equal(t, apperr.KindConfiguration, apperr.KindOf(err))
}

func TestImageEnhancer_Defaults(t *testing.T) {
	e := NewImageEnhancerWithModels(&fakeGenerator{}, EnhancerOptions{})
	assert.Equal(t, DefaultModelName, e.Model())
	assert.Equal(t, DefaultEnhanceTimeout, e.timeout)
	require.NotNil(t, e.config.Temperature)
	assert.Equal(t, DefaultTemperature, *e.config.Temperature)
	assert.Equal(t, DefaultMaxOutputTokens, e.config.MaxOutputTokens)
	assert.NotEmpty(t, e.instruction)
}

func TestImageEnhancer_Enhance(t *testing.T) {
	original := testPNG(t, 4, 4)
	enhanced := testPNG(t, 8, 8)
	gen := &fakeGenerator{text: "```\n" + base64.StdEncoding.EncodeToString(enhanced) + "\n```"}
	e := NewImageEnhancerWithModels(gen, EnhancerOptions{Model: ModelGemini25FlashLite})

	out, err := e.Enhance(context.Background(), imagedata.Encode(original, "image/png"))
	require.NoError(t, err)
	assert.Equal(t, imagedata.DataURL(enhanced), out)
	assert.True(t, strings.HasPrefix(out, "data:image/png;base64,"))

	assert.Equal(t, int32(1), gen.calls.Load())
	assert.Equal(t, ModelGemini25FlashLite, gen.gotModel)
	require.Len(t, gen.gotContents, 1)
	parts := gen.gotContents[0].Parts
	require.Len(t, parts, 2)
	assert.Equal(t, e.instruction, parts[0].Text)
	require.NotNil(t, parts[1].InlineData)
	assert.Equal(t, "image/png", parts[1].InlineData.MIMEType)
	assert.Equal(t, original, parts[1].InlineData.Data)
}

func TestImageEnhancer_RejectsOversizedImage(t *testing.T) {
	gen := &fakeGenerator{text: "unused"}
	e := NewImageEnhancerWithModels(gen, EnhancerOptions{})

	big := make([]byte, imagedata.MaxImageBytes+1)
	_, err := e.Enhance(context.Background(), imagedata.Encode(big, "image/jpeg"))
	require.Error(t, err)
	assert.Equal(t, apperr.KindSizeLimit, apperr.KindOf(err))
	assert.Zero(t, gen.calls.Load(), "model must not be called for oversized input")
}

func TestImageEnhancer_RejectsInvalidDataURL(t *testing.T) {
	gen := &fakeGenerator{text: "unused"}
	e := NewImageEnhancerWithModels(gen, EnhancerOptions{})

	_, err := e.Enhance(context.Background(), "data:image/png;base64,@@@not-base64@@@")
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Zero(t, gen.calls.Load())
}

func TestImageEnhancer_Timeout(t *testing.T) {
	gen := &fakeGenerator{text: "unused", delay: time.Second}
	e := NewImageEnhancerWithModels(gen, EnhancerOptions{Timeout: 20 * time.Millisecond})

	start := time.Now()
	_, err := e.Enhance(context.Background(), imagedata.Encode(testPNG(t, 2, 2), "image/png"))
	require.Error(t, err)
	assert.Equal(t, apperr.KindTimeout, apperr.KindOf(err))
	assert.Equal(t, MsgRequestTimeout, err.Error())
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestImageEnhancer_MalformedOutput(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"apology with punctuation", "I'm sorry, I can't edit images."},
		{"refusal that decodes as base64", "I cannot enhance images"},
		{"unpadded sentence", "Sorry I cannot do that"},
		{"description instead of data", "Here is the enhanced image"},
		{"fenced refusal", "```\nI cannot enhance images\n```"},
		{"data url around prose", "data:image/png;base64,Sorry I cannot do that"},
		{"base64 of non-image bytes", base64.StdEncoding.EncodeToString([]byte("hello image"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{text: tt.text}
			e := NewImageEnhancerWithModels(gen, EnhancerOptions{})

			out, err := e.Enhance(context.Background(), imagedata.Encode(testPNG(t, 2, 2), "image/png"))
			require.Error(t, err, "got output %q", out)
			assert.Empty(t, out)
			assert.Equal(t, apperr.KindMalformedResponse, apperr.KindOf(err))
			assert.Equal(t, MsgInvalidResponse, err.Error())
		})
	}
}

func TestImageEnhancer_EmptyOutput(t *testing.T) {
	gen := &fakeGenerator{text: "   "}
	e := NewImageEnhancerWithModels(gen, EnhancerOptions{})

	_, err := e.Enhance(context.Background(), imagedata.Encode(testPNG(t, 2, 2), "image/png"))
	require.Error(t, err)
	assert.Equal(t, apperr.KindGeneric, apperr.KindOf(err))
	assert.Equal(t, MsgNoOutput, err.Error())
}

func TestImageEnhancer_TranslatesUpstreamErrors(t *testing.T) {
	tests := []struct {
		upstream string
		kind     apperr.Kind
		message  string
	}{
		{"rpc error: model not found: gemini-x", apperr.KindUpstreamUnavailable, MsgServiceUnavailable},
		{"Error 403, PERMISSION_DENIED", apperr.KindPermission, MsgPermissionDenied},
		{"Error 429, RESOURCE_EXHAUSTED", apperr.KindQuota, MsgQuotaExceeded},
		{"invalid_request: bad inline data", apperr.KindInvalidRequest, MsgInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			gen := &fakeGenerator{err: errors.New(tt.upstream)}
			e := NewImageEnhancerWithModels(gen, EnhancerOptions{})

			_, err := e.Enhance(context.Background(), imagedata.Encode(testPNG(t, 2, 2), "image/png"))
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestImageEnhancer_UnmatchedUpstreamErrorIsGeneric(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("connection reset by peer")}
	e := NewImageEnhancerWithModels(gen, EnhancerOptions{})

	_, err := e.Enhance(context.Background(), imagedata.Encode(testPNG(t, 2, 2), "image/png"))
	require.Error(t, err)
	assert.Equal(t, apperr.KindGeneric, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "connection reset by peer")
}

func TestTranslateError(t *testing.T) {
	assert.NoError(t, TranslateError(nil))

	timeout := apperr.New(apperr.KindTimeout, "model not found in time")
	assert.Same(t, timeout, TranslateError(timeout), "errors with a kind pass through")

	apiErr := &genai.APIError{Code: 429, Message: "Quota exceeded", Status: "RESOURCE_EXHAUSTED"}
	assert.Equal(t, apperr.KindQuota, apperr.KindOf(TranslateError(apiErr)))

	// Matching is case-sensitive.
	lower := errors.New("permission_denied")
	assert.Equal(t, apperr.KindGeneric, apperr.KindOf(TranslateError(lower)))
}

func TestCleanModelOutput(t *testing.T) {
	payload := testPNG(t, 3, 3)
	b64 := base64.StdEncoding.EncodeToString(payload)

	tests := []struct {
		name string
		in   string
	}{
		{"bare", b64},
		{"fenced", "```\n" + b64 + "\n```"},
		{"fenced with language", "```base64\n" + b64 + "\n```"},
		{"quoted", `"` + b64 + `"`},
		{"data url", "data:image/jpeg;base64," + b64},
		{"fenced quoted data url", "```\n\"data:image/png;base64," + b64 + "\"\n```"},
		{"surrounding whitespace", "\n\n  " + b64 + "  \n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CleanModelOutput(tt.in)
			require.NoError(t, err)
			assert.Equal(t, payload, got)
		})
	}
}

// Whatever wrapping the model adds around the base64 body of an image, the
// enhancer's output is the data URL of the decoded bytes.
func TestImageEnhancer_RoundTripProperty(t *testing.T) {
	input := imagedata.Encode(testPNG(t, 2, 2), "image/png")

	rapid.Check(t, func(t *rapid.T) {
		w := rapid.IntRange(1, 32).Draw(t, "width")
		h := rapid.IntRange(1, 32).Draw(t, "height")
		data := testPNG(t, w, h)
		b64 := base64.StdEncoding.EncodeToString(data)

		text := b64
		if rapid.Bool().Draw(t, "prefix") {
			text = "data:image/webp;base64," + text
		}
		if rapid.Bool().Draw(t, "quote") {
			text = `"` + text + `"`
		}
		if rapid.Bool().Draw(t, "fence") {
			text = "```\n" + text + "\n```"
		}

		e := NewImageEnhancerWithModels(&fakeGenerator{text: text}, EnhancerOptions{})
		out, err := e.Enhance(context.Background(), input)
		if err != nil {
			t.Fatalf("enhance: %v", err)
		}
		if want := imagedata.DataURL(data); out != want {
			t.Fatalf("got %q, want %q", out, want)
		}
	})
}
