package errors

import (
	"strings"
	"unicode"
)

// Canvas limits. No document may grow beyond MaxCanvasSize pixels on a side
// or MaxCanvasPixels in total.
const (
	MaxCanvasSize   = 32768
	MaxCanvasPixels = 1 << 28
)

// ValidateMargins validates a bleed margin spec.
// Every side must be in [0, MaxCanvasSize]; zero disables bleed on that side.
func ValidateMargins(left, right, top, bottom int) error {
	sides := []struct {
		name  string
		value int
	}{
		{"left", left},
		{"right", right},
		{"top", top},
		{"bottom", bottom},
	}
	for _, s := range sides {
		if s.value < 0 {
			return New(ErrCodeInvalidMargins, "%s margin must be >= 0, got %d", s.name, s.value)
		}
		if s.value > MaxCanvasSize {
			return New(ErrCodeInvalidMargins, "%s margin must be <= %d, got %d", s.name, MaxCanvasSize, s.value)
		}
	}
	return nil
}

// ValidateCanvasSize reports whether a width x height canvas is within the
// canvas limits. Both sides must be positive.
func ValidateCanvasSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return New(ErrCodeInvalidInput, "canvas must be at least 1x1, got %dx%d", width, height)
	}
	if width > MaxCanvasSize || height > MaxCanvasSize {
		return New(ErrCodeInvalidInput, "canvas %dx%d exceeds %d pixels on a side", width, height, MaxCanvasSize)
	}
	if int64(width)*int64(height) > MaxCanvasPixels {
		return New(ErrCodeInvalidInput, "canvas %dx%d exceeds %d pixels", width, height, MaxCanvasPixels)
	}
	return nil
}

// Upscale factors accepted by the upscaler.
const (
	MinScale = 2
	MaxScale = 4
)

// ValidateScale validates an upscale factor.
func ValidateScale(scale int) error {
	if scale < MinScale || scale > MaxScale {
		return New(ErrCodeInvalidScale, "scale must be between %d and %d, got %d", MinScale, MaxScale, scale)
	}
	return nil
}

// ValidateLayerName validates a layer or group name supplied by a user.
//
// Validation rules:
//   - Name cannot be empty
//   - Maximum length of 256 characters
//   - No control characters
func ValidateLayerName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidLayer, "layer name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidLayer, "layer name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidLayer, "layer name contains invalid control characters")
		}
	}

	return nil
}

// ValidatePath validates an input or output file path.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	if strings.ContainsRune(path, '\x00') {
		return New(ErrCodeInvalidPath, "path contains invalid characters")
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}
