package assets

import (
	_ "embed"
	"strings"
)

//go:embed prompts/enhance-instruction.txt
var enhanceInstruction string

// EnhanceInstruction is the fixed natural-language instruction sent to the
// model with every photo: improve sharpness, optimize colors, reduce noise,
// stay natural-looking, and answer with base64 image data only.
func EnhanceInstruction() string {
	return strings.TrimSpace(enhanceInstruction)
}
