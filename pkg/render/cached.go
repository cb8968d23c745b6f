package render

import (
	"context"
	"os"
	"time"

	"github.com/matzehuels/mdgraph/pkg/cache"
	"github.com/matzehuels/mdgraph/pkg/errors"
	"github.com/matzehuels/mdgraph/pkg/observability"
)

// Cached serves repeated descriptions from a cache.
// On a miss it renders through Inner and stores the resulting file; cache
// failures never fail a render.
type Cached struct {
	Inner Renderer
	Cache cache.Cache
	Keyer cache.Keyer
	Opts  cache.ArtifactKeyOpts
	TTL   time.Duration
}

// NewCached wraps inner. A nil keyer means cache.NewDefaultKeyer.
func NewCached(inner Renderer, c cache.Cache, keyer cache.Keyer, opts Options) *Cached {
	opts.SetDefaults()
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Cached{
		Inner: inner,
		Cache: c,
		Keyer: keyer,
		Opts: cache.ArtifactKeyOpts{
			Format:   opts.Format,
			Engine:   opts.Engine,
			Renderer: opts.Kind,
		},
		TTL: cache.TTLArtifact,
	}
}

// Render implements Renderer.
func (c *Cached) Render(ctx context.Context, description, output string) error {
	_, err := c.RenderCached(ctx, description, output)
	return err
}

// RenderCached renders like Render and reports whether the image came from
// the cache.
func (c *Cached) RenderCached(ctx context.Context, description, output string) (bool, error) {
	key := c.Keyer.ArtifactKey(cache.Hash([]byte(description)), c.Opts)
	hooks := observability.Cache()

	if data, hit, err := c.Cache.Get(ctx, key); err == nil && hit {
		hooks.OnCacheHit(ctx, "artifact")
		if err := os.WriteFile(output, data, 0644); err != nil {
			return false, errors.Wrap(errors.ErrCodeIO, err, "write %s", output)
		}
		return true, nil
	}
	hooks.OnCacheMiss(ctx, "artifact")

	if err := c.Inner.Render(ctx, description, output); err != nil {
		return false, err
	}

	if data, err := os.ReadFile(output); err == nil {
		if c.Cache.Set(ctx, key, data, c.TTL) == nil {
			hooks.OnCacheSet(ctx, "artifact", len(data))
		}
	}
	return false, nil
}
