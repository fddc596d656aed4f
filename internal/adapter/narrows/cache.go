package narrows

import (
	"context"
	"time"

	"github.com/narrowsfm/podgraph/internal/domain/entities"
	"github.com/narrowsfm/podgraph/internal/infrastructure/cache"
)

// DefaultSeriesCacheTTL is how long series metadata is served from memory
// before the next episode forces a refetch.
const DefaultSeriesCacheTTL = 10 * time.Minute

// CachingClient wraps Client with an in-memory series cache. Episodes of
// the same series arrive in batches, and the series record is fetched once
// per episode; everything else passes straight through.
type CachingClient struct {
	*Client
	series *cache.SeriesStore
}

// NewCachingClient wraps a client with series caching.
func NewCachingClient(client *Client, ttl time.Duration) *CachingClient {
	if ttl <= 0 {
		ttl = DefaultSeriesCacheTTL
	}
	return &CachingClient{
		Client: client,
		series: cache.NewSeriesStore(ttl),
	}
}

// GetSeries serves series metadata from the cache when fresh.
func (c *CachingClient) GetSeries(ctx context.Context, id string) (*entities.Series, error) {
	if sr, ok := c.series.Get(id); ok {
		return sr, nil
	}

	sr, err := c.Client.GetSeries(ctx, id)
	if err != nil {
		return nil, err
	}
	c.series.Set(id, sr)
	return sr, nil
}
