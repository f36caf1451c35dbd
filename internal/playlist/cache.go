package playlist

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// CacheTTL is how long a playlist lookup is reused.
const CacheTTL = 6 * time.Hour

// CachedFinder wraps a Finder and remembers successful lookups per mood.
// Failures are never cached.
type CachedFinder struct {
	finder Finder
	cache  *expirable.LRU[string, Playlist]
}

// NewCachedFinder wraps finder with an expiring cache sized for every mood.
func NewCachedFinder(finder Finder, ttl time.Duration) *CachedFinder {
	if ttl <= 0 {
		ttl = CacheTTL
	}
	return &CachedFinder{
		finder: finder,
		cache:  expirable.NewLRU[string, Playlist](len(Moods), nil, ttl),
	}
}

// Find implements Finder.
func (c *CachedFinder) Find(ctx context.Context, mood string) (Playlist, error) {
	if p, ok := c.cache.Get(mood); ok {
		return p, nil
	}

	p, err := c.finder.Find(ctx, mood)
	if err != nil {
		return Playlist{}, err
	}
	c.cache.Add(mood, p)
	return p, nil
}
