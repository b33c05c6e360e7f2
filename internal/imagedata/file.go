package imagedata

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/fpang/ai-photo-landing/internal/apperr"
)

// EncodeFile converts a user-selected image file into a data URL.
//
// Files larger than MaxImageBytes are rejected from their size on disk before
// any bytes are read, so an oversized selection never reaches the network.
// A read failure is terminal for the attempt.
func EncodeFile(ctx context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to access file: %w", err)
	}
	if info.IsDir() {
		return "", apperr.New(apperr.KindValidation, "path is a directory")
	}
	if info.Size() > MaxImageBytes {
		log.Warn().
			Str("path", path).
			Int64("size", info.Size()).
			Msg("Selected file exceeds image size limit")
		return "", apperr.New(apperr.KindSizeLimit, ClientSizeMessage)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	// The file may have grown between Stat and ReadFile.
	if len(data) > MaxImageBytes {
		return "", apperr.New(apperr.KindSizeLimit, ClientSizeMessage)
	}

	mimeType, ok := SniffMIME(data)
	if !ok {
		mimeType = MIMEFromExtension(path)
	}
	if mimeType == "" {
		return "", apperr.New(apperr.KindValidation, "unsupported file type")
	}

	log.Debug().
		Str("path", path).
		Int("bytes", len(data)).
		Str("mime", mimeType).
		Msg("Encoded image file")

	return Encode(data, mimeType), nil
}
