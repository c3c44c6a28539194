package cache

// ScopedKeyer wraps a Keyer with a prefix so that several deployments can
// share one Redis instance without seeing each other's entries.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "studio-a:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// A nil inner keyer defaults to [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// OCRKey returns the prefixed OCR key.
func (k *ScopedKeyer) OCRKey(imageHash string, opts OCRKeyOpts) string {
	return k.prefix + k.inner.OCRKey(imageHash, opts)
}

// UpscaleKey returns the prefixed upscale key.
func (k *ScopedKeyer) UpscaleKey(imageHash string, opts UpscaleKeyOpts) string {
	return k.prefix + k.inner.UpscaleKey(imageHash, opts)
}
