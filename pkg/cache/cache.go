// Package cache stores extraction results and rendered artifacts.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under a local directory (CLI)
//   - [RedisCache]: a shared Redis instance (server deployments)
//   - [NullCache]: stores nothing (caching disabled)
//
// # Keys
//
// Keys are derived by a [Keyer] from the SHA-256 of the image bytes plus every
// option that changes the cached value, so a changed classification setting
// never returns a stale result:
//
//	keyer := cache.NewDefaultKeyer()
//	key := keyer.ExtractKey(cache.Hash(img), cache.ExtractKeyOpts{NegativeSlot: "negative"})
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
//
// Get reports a miss with ok == false and a nil error. Implementations must be
// safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Key types reported to observability hooks.
const (
	KeyTypeExtract  = "extract"
	KeyTypeArtifact = "artifact"
)

// Default time-to-live values.
const (
	DefaultExtractTTL  = 7 * 24 * time.Hour
	DefaultArtifactTTL = 7 * 24 * time.Hour
)

// ExtractKeyOpts holds the options that change an extraction result.
type ExtractKeyOpts struct {
	TextEncodeTypes []string
	NegativeSlot    string
}

// ArtifactKeyOpts holds the options that change a rendered artifact.
type ArtifactKeyOpts struct {
	Format   string
	Detailed bool
	Polarity bool
}

// Keyer derives cache keys.
type Keyer interface {
	// ExtractKey returns the key for the extraction of the image with the given hash.
	ExtractKey(imageHash string, opts ExtractKeyOpts) string

	// ArtifactKey returns the key for an artifact rendered from an extraction.
	ArtifactKey(extractKey string, opts ArtifactKeyOpts) string
}

// keyVersion is bumped whenever the cached encoding changes.
const keyVersion = "v1"

// DefaultKeyer hashes every option into the key.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a [DefaultKeyer].
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ExtractKey implements [Keyer].
func (DefaultKeyer) ExtractKey(imageHash string, opts ExtractKeyOpts) string {
	return hashKey(KeyTypeExtract, keyVersion, imageHash, opts.TextEncodeTypes, opts.NegativeSlot)
}

// ArtifactKey implements [Keyer].
func (DefaultKeyer) ArtifactKey(extractKey string, opts ArtifactKeyOpts) string {
	return hashKey(KeyTypeArtifact, keyVersion, extractKey, opts.Format, opts.Detailed, opts.Polarity)
}
