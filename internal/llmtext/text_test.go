package llmtext

import "testing"

func TestStripMarkdownFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no fences", "  QUJD  ", "QUJD"},
		{"plain fence", "```\nQUJD\n```", "QUJD"},
		{"language tag", "```base64\nQUJD\n```", "QUJD"},
		{"closing on same line", "```\nQUJD```", "QUJD"},
		{"single line", "```QUJD```", "QUJD"},
		{"multi line body", "```\nQU\nJD\n```\n", "QU\nJD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripMarkdownFences(tt.input); got != tt.want {
				t.Errorf("StripMarkdownFences(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestStripQuotes(t *testing.T) {
	if got := StripQuotes(`"QUJD"`); got != "QUJD" {
		t.Errorf("got %q", got)
	}
	if got := StripQuotes(`"`); got != `"` {
		t.Errorf("single quote char should be untouched, got %q", got)
	}
	if got := StripQuotes(`QUJD"`); got != `QUJD"` {
		t.Errorf("unbalanced quote should be untouched, got %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("abcdef", 3); got != "abc..." {
		t.Errorf("got %q", got)
	}
	if got := Truncate("abc", 3); got != "abc" {
		t.Errorf("got %q", got)
	}
}
