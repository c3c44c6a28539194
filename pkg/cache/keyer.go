package cache

// Keyer builds cache keys. Implementations must be deterministic: equal
// inputs always yield equal keys.
type Keyer interface {
	// OCRKey identifies the recognition result for an image region.
	OCRKey(imageHash string, opts OCRKeyOpts) string

	// UpscaleKey identifies the upscaled version of a layer image.
	UpscaleKey(imageHash string, opts UpscaleKeyOpts) string
}

// OCRKeyOpts are the recognition options that change the result.
type OCRKeyOpts struct {
	Engine    string   `json:"engine"`
	Languages []string `json:"languages,omitempty"`
}

// UpscaleKeyOpts are the upscale options that change the result.
type UpscaleKeyOpts struct {
	Engine string `json:"engine"`
	Model  string `json:"model,omitempty"`
	Scale  int    `json:"scale"`
}

// DefaultKeyer is the standard [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// OCRKey returns "ocr:<sha256>" over the image hash and options.
func (DefaultKeyer) OCRKey(imageHash string, opts OCRKeyOpts) string {
	return hashKey("ocr", imageHash, opts)
}

// UpscaleKey returns "upscale:<sha256>" over the image hash and options.
func (DefaultKeyer) UpscaleKey(imageHash string, opts UpscaleKeyOpts) string {
	return hashKey("upscale", imageHash, opts)
}
