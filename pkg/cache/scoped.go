package cache

// Keyer builds cache keys.
type Keyer interface {
	// RecordKey identifies the parsed record of the recipe at path whose
	// content hashes to contentHash.
	RecordKey(path, contentHash string) string
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the unscoped keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// RecordKey returns "apkbuild:<sha256(path, contentHash)>".
func (DefaultKeyer) RecordKey(path, contentHash string) string {
	return hashKey("apkbuild", path, contentHash)
}

// ScopedKeyer prefixes every key of an inner Keyer.
//
//	k := NewScopedKeyer(NewDefaultKeyer(), "edge:")
//	k.RecordKey("main/zlib/APKBUILD", h) // "edge:apkbuild:..."
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means
// the default one.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// RecordKey returns the prefixed record key.
func (k *ScopedKeyer) RecordKey(path, contentHash string) string {
	return k.prefix + k.inner.RecordKey(path, contentHash)
}
