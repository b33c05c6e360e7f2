package chat

// Gemini Model IDs
//
// | Model Name                  | API Model ID                | Use Case                      |
// |-----------------------------|-----------------------------|-------------------------------|
// | Gemini 2.5 Flash            | gemini-2.5-flash            | Stable, balanced performance  |
// | Gemini 2.5 Flash-Lite       | gemini-2.5-flash-lite       | High-throughput, lowest cost  |
// | Gemini 2.5 Flash Image      | gemini-2.5-flash-image      | Image generation/edit         |
// | Gemini 3 Pro Image          | gemini-3-pro-image-preview  | Advanced image generation     |
const (
	// ModelGemini25Flash is stable, balanced performance.
	ModelGemini25Flash = "gemini-2.5-flash"

	// ModelGemini25FlashLite is for high-throughput, lowest cost.
	ModelGemini25FlashLite = "gemini-2.5-flash-lite"

	// ModelGemini25FlashImage is for image generation/edit.
	ModelGemini25FlashImage = "gemini-2.5-flash-image"

	// ModelGemini3ProImage is for advanced image generation/edit.
	ModelGemini3ProImage = "gemini-3-pro-image-preview"
)

// DefaultModelName is the Gemini model used for enhancement when none is
// configured. Overridden via GEMINI_MODEL or --model.
const DefaultModelName = ModelGemini25Flash

// Generation defaults for the enhancement call.
const (
	DefaultTemperature     float32 = 0.4
	DefaultMaxOutputTokens int32   = 2048
)

// ResolveModelName returns name, or DefaultModelName when name is empty.
func ResolveModelName(name string) string {
	if name == "" {
		return DefaultModelName
	}
	return name
}
