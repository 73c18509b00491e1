// Package cache stores rendered artifacts keyed by a hash of the request
// that produced them.
//
// Three backends implement [Cache]:
//   - [NullCache] never stores anything (caching disabled, tests)
//   - [FileCache] keeps JSON entries under a directory (CLI)
//   - [RedisCache] shares entries between server instances
//
// Keys come from a [Keyer], so backends never need to know what is cached.
// Cache errors are never fatal for callers: a failed Get is a miss and a
// failed Set is logged and dropped.
package cache

import (
	"context"
	"time"
)

// DefaultTTL is how long rendered artifacts stay cached.
const DefaultTTL = 7 * 24 * time.Hour

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the stored bytes and whether the key was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data for ttl. A ttl of 0 never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes a key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	// ArtifactKey identifies one rendered output of a request.
	ArtifactKey(requestHash string, opts ArtifactKeyOpts) string
	// ResultKey identifies the computed frequencies of a request.
	ResultKey(requestHash string) string
}

// ArtifactKeyOpts are the render settings that distinguish artifacts of
// the same request.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
	Kind   string `json:"kind"` // "isotype" or "forest"
}

// DefaultKeyer produces unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(requestHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", requestHash, opts)
}

// ResultKey implements Keyer.
func (DefaultKeyer) ResultKey(requestHash string) string {
	return "result:" + requestHash
}
