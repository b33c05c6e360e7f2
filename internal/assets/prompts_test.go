package assets

import (
	"strings"
	"testing"
)

func TestEnhanceInstruction(t *testing.T) {
	got := EnhanceInstruction()
	for _, want := range []string{"sharpness", "colors", "noise", "natural-looking", "base64"} {
		if !strings.Contains(got, want) {
			t.Errorf("instruction missing %q:\n%s", want, got)
		}
	}
	if got != strings.TrimSpace(got) {
		t.Error("instruction should not carry leading or trailing whitespace")
	}
}
