package imagedata

import (
	"bytes"
	"image"
	_ "image/gif"  // register GIF decoder for image.DecodeConfig
	_ "image/jpeg" // register JPEG decoder for image.DecodeConfig
	_ "image/png"  // register PNG decoder for image.DecodeConfig
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"  // register BMP decoder for image.DecodeConfig
	_ "golang.org/x/image/tiff" // register TIFF decoder for image.DecodeConfig
	_ "golang.org/x/image/webp" // register WebP decoder for image.DecodeConfig
)

// formatMIMETypes maps image.DecodeConfig format names to media types.
var formatMIMETypes = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
}

// SupportedImageExtensions maps file extensions accepted by EncodeFile to
// their media types.
var SupportedImageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
}

// DetectMIME returns the media type of an encoded image by reading its
// header. Unrecognized data is reported as DefaultMIMEType.
func DetectMIME(data []byte) string {
	if mimeType, ok := SniffMIME(data); ok {
		return mimeType
	}
	return DefaultMIMEType
}

// SniffMIME reports the media type of data when its header decodes as a
// supported image format.
func SniffMIME(data []byte) (string, bool) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", false
	}
	mimeType, ok := formatMIMETypes[format]
	return mimeType, ok
}

// MIMEFromExtension returns the media type for a file path, or "" when the
// extension is not a supported image type.
func MIMEFromExtension(path string) string {
	return SupportedImageExtensions[strings.ToLower(filepath.Ext(path))]
}
