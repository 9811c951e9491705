// Package observability lets a binary attach metrics or tracing to scans,
// cache lookups, and API queries without the libraries importing a
// metrics framework.
//
// Hooks are registered once by main and read by the libraries:
//
//	observability.SetScanHooks(myScanMetrics{})
//
//	// inside the scanner
//	observability.Scan().OnFileParsed(ctx, path, dur, err)
//
// Every category defaults to a no-op implementation.
package observability

import (
	"context"
	"sync"
	"time"
)

// ScanHooks receives events from repository scans.
type ScanHooks interface {
	// OnScanStart is called once the recipe files are discovered.
	OnScanStart(ctx context.Context, root string, files int)

	// OnFileParsed is called for every recipe, cached or not. err is the
	// parse error, if any.
	OnFileParsed(ctx context.Context, path string, duration time.Duration, err error)

	// OnScanComplete is called when the scan returns.
	OnScanComplete(ctx context.Context, packages, failed int, duration time.Duration)
}

// CacheHooks receives events from parse-cache lookups.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
}

// QueryHooks receives events from API queries.
type QueryHooks interface {
	// OnQueryStart is called before a query runs. The returned func is
	// called with the outcome when it finishes.
	OnQueryStart(ctx context.Context, query, pkg string) func(err error)
}

// NoopScanHooks ignores all scan events.
type NoopScanHooks struct{}

func (NoopScanHooks) OnScanStart(context.Context, string, int)                   {}
func (NoopScanHooks) OnFileParsed(context.Context, string, time.Duration, error) {}
func (NoopScanHooks) OnScanComplete(context.Context, int, int, time.Duration)    {}

// NoopCacheHooks ignores all cache events.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)  {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string) {}

// NoopQueryHooks ignores all query events.
type NoopQueryHooks struct{}

func (NoopQueryHooks) OnQueryStart(context.Context, string, string) func(error) {
	return func(error) {}
}

var (
	scanHooks  ScanHooks  = NoopScanHooks{}
	cacheHooks CacheHooks = NoopCacheHooks{}
	queryHooks QueryHooks = NoopQueryHooks{}
	hooksMu    sync.RWMutex
)

// SetScanHooks registers scan hooks. A nil argument is ignored.
func SetScanHooks(h ScanHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		scanHooks = h
	}
}

// SetCacheHooks registers cache hooks. A nil argument is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetQueryHooks registers query hooks. A nil argument is ignored.
func SetQueryHooks(h QueryHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		queryHooks = h
	}
}

// Scan returns the registered scan hooks.
func Scan() ScanHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return scanHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Query returns the registered query hooks.
func Query() QueryHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return queryHooks
}

// Reset restores all hooks to their no-op defaults.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	scanHooks = NoopScanHooks{}
	cacheHooks = NoopCacheHooks{}
	queryHooks = NoopQueryHooks{}
}
