// Package llmtext cleans up free-form text returned by LLMs: markdown code
// fences, wrapping quotes, and oversized strings destined for logs.
package llmtext

import "strings"

// StripMarkdownFences removes a ```lang ... ``` wrapper from text.
// Returns the trimmed content between the fences, or the trimmed original
// text if it does not start with a fence.
func StripMarkdownFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	// Drop the opening fence line, including any language tag.
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	} else {
		text = strings.TrimPrefix(text, "```")
	}

	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// StripQuotes removes one pair of wrapping double quotes, if present.
func StripQuotes(text string) string {
	if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' {
		return text[1 : len(text)-1]
	}
	return text
}

// Truncate shortens s to maxLen bytes, appending "..." if truncated.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
