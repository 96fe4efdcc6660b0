package cache

// ScopedKeyer wraps a Keyer with a prefix so several deployments can share
// one Redis instance without colliding.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "comfyscope:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ExtractKey generates a prefixed key for extraction results.
func (k *ScopedKeyer) ExtractKey(imageHash string, opts ExtractKeyOpts) string {
	return k.prefix + k.inner.ExtractKey(imageHash, opts)
}

// ArtifactKey generates a prefixed key for artifacts.
func (k *ScopedKeyer) ArtifactKey(extractKey string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(extractKey, opts)
}
