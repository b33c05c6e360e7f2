package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input, mimeType, want string
	}{
		{filepath.Join("photos", "me.jpeg"), "image/jpeg", filepath.Join("photos", "me-enhanced.jpg")},
		{"shot.png", "image/png", "shot-enhanced.png"},
		{"shot.heic", "image/webp", "shot-enhanced.webp"},
		{"noext", "application/octet-stream", "noext-enhanced.jpg"},
		{"https://example.com/a/b/photo.gif?x=1", "image/gif", "photo-enhanced.gif"},
		{"https://example.com/", "image/png", "image-enhanced.png"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, outputPath(tt.input, tt.mimeType), tt.input)
	}
}

func TestImagePatterns(t *testing.T) {
	patterns := imagePatterns()
	assert.Contains(t, patterns, "*.jpg")
	assert.Contains(t, patterns, "*.webp")
	assert.IsIncreasing(t, patterns)
}
