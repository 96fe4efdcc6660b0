package cache

import (
	"context"
	"time"
)

// NullCache stands in for a real backend when comfyscope runs uncached:
// cache.backend = "none", the --no-cache flag, or a file cache directory
// that could not be created. Every extraction then decodes the image anew.
type NullCache struct{}

// NewNullCache returns a cache that drops every write.
func NewNullCache() Cache {
	return &NullCache{}
}

// Get reports a miss for every image digest.
func (c *NullCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set discards the extraction result.
func (c *NullCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return nil
}

func (c *NullCache) Delete(ctx context.Context, key string) error {
	return nil
}

func (c *NullCache) Close() error {
	return nil
}

var _ Cache = (*NullCache)(nil)
