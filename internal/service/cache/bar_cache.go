package cache

import (
	"context"
	"time"

	"Epoch/internal/domain/models"
	drepo "Epoch/internal/domain/repository"
	pkgcache "Epoch/pkg/cache"
)

// BarSeriesCache adapts the layered cache service to the BarCache
// capability. Entries are keyed by (ticker, timeframe, bucket) so a new
// bar misses the stale series without explicit invalidation.
type BarSeriesCache struct {
	svc pkgcache.Service
}

func NewBarSeriesCache(svc pkgcache.Service) *BarSeriesCache {
	return &BarSeriesCache{svc: svc}
}

func barKey(key drepo.BarCacheKey) string {
	return pkgcache.GenerateKeyWithParams("bars", key.Ticker, string(key.TF), key.Bucket.Unix())
}

func (c *BarSeriesCache) Get(ctx context.Context, key drepo.BarCacheKey) ([]models.Bar, bool) {
	var bars []models.Bar
	if err := c.svc.Get(ctx, barKey(key), &bars); err != nil {
		return nil, false
	}
	return bars, true
}

func (c *BarSeriesCache) Put(ctx context.Context, key drepo.BarCacheKey, bars []models.Bar, ttl time.Duration) {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	// best effort; a failed put only costs a refetch
	_ = c.svc.Set(ctx, barKey(key), bars, ttl)
}

var _ drepo.BarCache = (*BarSeriesCache)(nil)
