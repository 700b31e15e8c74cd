package di

import (
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"marketdata_backend/internal/feature/marketdata/adapters"
	"marketdata_backend/internal/feature/marketdata/usecase"
	"marketdata_backend/internal/platform/cache"
)

// NewCandleRepository creates a CandleRepository implementation.
// If Redis is available, the GORM-backed repository is wrapped with a
// read-through cache. Otherwise the plain repository is returned.
func NewCandleRepository(rdb *redis.Client, db *gorm.DB, ttl time.Duration) (usecase.CandleRepository, *cache.CachingCandleRepository) {
	inner := adapters.NewCandleRepository(db)
	if rdb == nil {
		return inner, nil
	}
	cached := cache.NewCachingCandleRepository(rdb, ttl, inner, "candles")
	return cached, cached
}
