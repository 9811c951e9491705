package cli

import (
	"context"
	"sync/atomic"

	"github.com/matzehuels/depmap/pkg/observability"
)

// cacheCounter counts parse-cache hits and misses during a scan.
type cacheCounter struct {
	hits   atomic.Int64
	misses atomic.Int64
}

var _ observability.CacheHooks = (*cacheCounter)(nil)

func (c *cacheCounter) OnCacheHit(context.Context, string)  { c.hits.Add(1) }
func (c *cacheCounter) OnCacheMiss(context.Context, string) { c.misses.Add(1) }

// track installs c as the cache hooks until restore is called.
func (c *cacheCounter) track() (restore func()) {
	prev := observability.Cache()
	observability.SetCacheHooks(c)
	return func() { observability.SetCacheHooks(prev) }
}
