// Package imagedata converts images to and from the inline data URL form used
// on the wire (data:<media type>;base64,<bytes>) and enforces the image size
// ceiling shared by the client, the gateway and the model adapter.
package imagedata

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/fpang/ai-photo-landing/internal/apperr"
)

// MaxImageBytes is the largest decoded image accepted anywhere in the
// pipeline. Gemini rejects inline data above 4 MB.
const MaxImageBytes = 4 * 1024 * 1024

// DefaultMIMEType is used when a media type cannot be determined.
const DefaultMIMEType = "image/jpeg"

// Size limit messages. The client-side message is shown before upload; the
// server-side message is returned when decoded bytes exceed the ceiling.
const (
	ClientSizeMessage = "File size should be less than 4MB"
	ServerSizeMessage = "Image size exceeds 4MB limit. Please use a smaller image."
)

// Source tags the two shapes an ImagePayload can take.
type Source int

const (
	// SourceInline is base64 image data carried in a data URL.
	SourceInline Source = iota
	// SourceRemote is an http(s) URL that must be fetched first.
	SourceRemote
)

// Payload is an image reference received from a client: either a remote
// locator or an inline data URL. It is consumed once per request.
type Payload struct {
	Source Source
	// URL holds the remote locator when Source is SourceRemote.
	URL string
	// DataURL holds the original inline string when Source is SourceInline.
	DataURL string
}

// ParsePayload classifies the imageUrl string sent by a client.
func ParsePayload(s string) (Payload, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return Payload{}, apperr.New(apperr.KindValidation, "Image data is required")
	case strings.HasPrefix(s, "data:image/"):
		return Payload{Source: SourceInline, DataURL: s}, nil
	case strings.HasPrefix(s, "https://"), strings.HasPrefix(s, "http://"):
		return Payload{Source: SourceRemote, URL: s}, nil
	default:
		return Payload{}, apperr.New(apperr.KindValidation, "Image must be a data:image URL or an http(s) URL")
	}
}

// CheckSize returns a SizeLimit error if n decoded bytes exceed MaxImageBytes.
func CheckSize(n int) error {
	if n > MaxImageBytes {
		return apperr.New(apperr.KindSizeLimit, ServerSizeMessage)
	}
	return nil
}

// Encode builds a data URL for data using the given media type.
func Encode(data []byte, mimeType string) string {
	if mimeType == "" {
		mimeType = DefaultMIMEType
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DataURL builds a data URL for data, detecting the media type from its bytes.
func DataURL(data []byte) string {
	return Encode(data, DetectMIME(data))
}

// SplitDataURL separates a data URL into its media type and base64 body.
// A string without a data URL prefix is returned unchanged as the body.
func SplitDataURL(s string) (mimeType, body string) {
	if !strings.HasPrefix(s, "data:") {
		return "", s
	}
	comma := strings.IndexByte(s, ',')
	if comma < 0 {
		return "", s
	}
	meta := s[len("data:"):comma]
	if !strings.HasSuffix(meta, ";base64") {
		return "", s
	}
	mimeType, _, _ = strings.Cut(strings.TrimSuffix(meta, ";base64"), ";")
	return strings.ToLower(strings.TrimSpace(mimeType)), s[comma+1:]
}

// ParseDataURL decodes a data URL (or bare base64) into its media type and
// bytes. The media type is empty when s carried no prefix.
func ParseDataURL(s string) (string, []byte, error) {
	mimeType, body := SplitDataURL(strings.TrimSpace(s))
	data, err := DecodeBase64(body)
	if err != nil {
		return "", nil, fmt.Errorf("invalid base64 image data: %w", err)
	}
	return mimeType, data, nil
}

// DecodeBase64 decodes standard base64, ignoring embedded whitespace and
// accepting unpadded input.
func DecodeBase64(s string) ([]byte, error) {
	s = stripWhitespace(s)
	if s == "" {
		return nil, fmt.Errorf("empty base64 data")
	}
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}

func stripWhitespace(s string) string {
	if !strings.ContainsAny(s, " \t\r\n") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case ' ', '\t', '\r', '\n':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
