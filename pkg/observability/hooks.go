// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers register hooks at startup
// to receive events about extraction, rendering, and cache operations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetExtractHooks(&myExtractHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Extract().OnExtractStart(ctx, len(chunks))
//	// ... scan, repair, classify ...
//	observability.Extract().OnExtractComplete(ctx, positive, negative, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Extract Hooks
// =============================================================================

// ExtractHooks receives events from workflow extraction.
type ExtractHooks interface {
	// OnExtractStart is called once per image with the number of candidate text chunks.
	OnExtractStart(ctx context.Context, candidates int)

	// OnChunkSkipped is called for each candidate chunk that did not yield a workflow.
	OnChunkSkipped(ctx context.Context, index int, reason string)

	// OnExtractComplete is called once per image. err is nil on success.
	OnExtractComplete(ctx context.Context, positive, negative int, duration time.Duration, err error)
}

// =============================================================================
// Render Hooks
// =============================================================================

// RenderHooks receives events from artifact rendering.
type RenderHooks interface {
	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopExtractHooks is a no-op implementation of ExtractHooks.
type NoopExtractHooks struct{}

func (NoopExtractHooks) OnExtractStart(context.Context, int)                                {}
func (NoopExtractHooks) OnChunkSkipped(context.Context, int, string)                        {}
func (NoopExtractHooks) OnExtractComplete(context.Context, int, int, time.Duration, error) {}

// NoopRenderHooks is a no-op implementation of RenderHooks.
type NoopRenderHooks struct{}

func (NoopRenderHooks) OnRenderStart(context.Context, []string)                          {}
func (NoopRenderHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	extractHooks ExtractHooks = NoopExtractHooks{}
	renderHooks  RenderHooks  = NoopRenderHooks{}
	cacheHooks   CacheHooks   = NoopCacheHooks{}
	hooksMu      sync.RWMutex
)

// SetExtractHooks registers custom extraction hooks.
// This should be called once at application startup before any extraction.
func SetExtractHooks(h ExtractHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		extractHooks = h
	}
}

// SetRenderHooks registers custom render hooks.
func SetRenderHooks(h RenderHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		renderHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Extract returns the registered extraction hooks.
func Extract() ExtractHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return extractHooks
}

// Render returns the registered render hooks.
func Render() RenderHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return renderHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	extractHooks = NoopExtractHooks{}
	renderHooks = NoopRenderHooks{}
	cacheHooks = NoopCacheHooks{}
}
