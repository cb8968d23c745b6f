// Package cache stores rendered graph images so unchanged graph blocks are
// not rendered again on the next run.
//
// Three backends implement [Cache]:
//   - [FileCache]: JSON entries on disk, used by the CLI (~/.cache/mdgraph)
//   - [RedisCache]: a shared Redis instance, for teams or CI runners
//   - [NullCache]: never stores anything (--no-cache)
//
// Keys are built by a [Keyer] from a hash of everything that affects the
// rendered bytes: the graph description, the output format, the layout
// engine and the renderer kind.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the stored value and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// TTLArtifact is how long rendered images stay cached.
const TTLArtifact = 30 * 24 * time.Hour

// ArtifactKeyOpts are the render settings that change the output bytes.
type ArtifactKeyOpts struct {
	Format   string `json:"format"`
	Engine   string `json:"engine"`
	Renderer string `json:"renderer"`
}

// Keyer builds cache keys.
type Keyer interface {
	// ArtifactKey returns the key for a rendered image of the description
	// whose hash is descHash.
	ArtifactKey(descHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer builds unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default Keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ArtifactKey returns "artifact:<sha256>" over the description hash and options.
func (DefaultKeyer) ArtifactKey(descHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", descHash, opts)
}
