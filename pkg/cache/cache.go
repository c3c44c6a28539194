// Package cache provides the result cache shared by the CLI and the HTTP
// server.
//
// OCR and upscale results depend only on the input pixels and a handful of
// options, so they are cached under content-addressed keys built by a
// [Keyer]. Three backends implement [Cache]:
//
//   - [FileCache]: one JSON file per entry under a directory (CLI default)
//   - [RedisCache]: a shared Redis instance (server deployments)
//   - [NullCache]: never stores anything (caching disabled)
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the value for key. A miss is reported by hit=false and a
	// nil error.
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)

	// Set stores data under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default time-to-live values per entry kind.
const (
	// TTLOCR is how long recognised ALTO documents are kept.
	TTLOCR = 30 * 24 * time.Hour

	// TTLUpscale is how long upscaled layer images are kept. Upscaled PNGs
	// are large, so they expire sooner than OCR results.
	TTLUpscale = 7 * 24 * time.Hour
)
