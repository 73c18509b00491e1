package cache

// ScopedKeyer prefixes every key of an inner Keyer, so that several
// deployments (or API versions) can share one backend without collisions.
//
//	k := cache.NewScopedKeyer(nil, "api:v1:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// ArtifactKey implements Keyer.
func (k *ScopedKeyer) ArtifactKey(requestHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(requestHash, opts)
}

// ResultKey implements Keyer.
func (k *ScopedKeyer) ResultKey(requestHash string) string {
	return k.prefix + k.inner.ResultKey(requestHash)
}
