// Package observability provides hooks for metrics, tracing, and logging.
//
// Libraries emit events through package-level hook registries; main
// registers implementations at startup. The defaults are no-ops, so
// libraries never depend on a particular backend.
//
// Three event categories exist:
//   - [OperationHooks]: bleed, OCR and upscale runs
//   - [CacheHooks]: result cache hits, misses and writes
//   - [ToolHooks]: external binaries (tesseract, realesrgan, rsvg-convert)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetOperationHooks(observability.NewLogHooks(logger))
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Operation().OnOperationStart(ctx, "bleed")
//	// ... run ...
//	observability.Operation().OnOperationComplete(ctx, "bleed", time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// OperationHooks receives events for document operations.
type OperationHooks interface {
	OnOperationStart(ctx context.Context, op string)
	OnOperationComplete(ctx context.Context, op string, duration time.Duration, err error)
}

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// ToolHooks receives events for external tool invocations.
type ToolHooks interface {
	// OnToolStart records a subprocess launch.
	OnToolStart(ctx context.Context, tool string, args []string)

	// OnToolComplete records a subprocess exit. err is nil on exit status 0.
	OnToolComplete(ctx context.Context, tool string, duration time.Duration, err error)
}

// NoopOperationHooks is a no-op implementation of OperationHooks.
type NoopOperationHooks struct{}

func (NoopOperationHooks) OnOperationStart(context.Context, string)                          {}
func (NoopOperationHooks) OnOperationComplete(context.Context, string, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopToolHooks is a no-op implementation of ToolHooks.
type NoopToolHooks struct{}

func (NoopToolHooks) OnToolStart(context.Context, string, []string)                {}
func (NoopToolHooks) OnToolComplete(context.Context, string, time.Duration, error) {}

var (
	operationHooks OperationHooks = NoopOperationHooks{}
	cacheHooks     CacheHooks     = NoopCacheHooks{}
	toolHooks      ToolHooks      = NoopToolHooks{}
	hooksMu        sync.RWMutex
)

// SetOperationHooks registers custom operation hooks. Nil is ignored.
func SetOperationHooks(h OperationHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		operationHooks = h
	}
}

// SetCacheHooks registers custom cache hooks. Nil is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetToolHooks registers custom tool hooks. Nil is ignored.
func SetToolHooks(h ToolHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		toolHooks = h
	}
}

// Operation returns the registered operation hooks.
func Operation() OperationHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return operationHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Tool returns the registered tool hooks.
func Tool() ToolHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return toolHooks
}

// Reset restores all hooks to their no-op defaults.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	operationHooks = NoopOperationHooks{}
	cacheHooks = NoopCacheHooks{}
	toolHooks = NoopToolHooks{}
}
