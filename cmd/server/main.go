package main

import (
	"log"
	"log/slog"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"marketdata_backend/internal/app/config"
	"marketdata_backend/internal/app/di"
	"marketdata_backend/internal/app/router"
	"marketdata_backend/internal/feature/marketdata/adapters"
	"marketdata_backend/internal/feature/marketdata/transport/handler"
	"marketdata_backend/internal/feature/marketdata/usecase"
	"marketdata_backend/internal/platform/cache"
	infradb "marketdata_backend/internal/platform/db"
	infraredis "marketdata_backend/internal/platform/redis"
	"marketdata_backend/internal/shared/ratelimiter"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config:", err)
	}

	// db
	db := infradb.OpenDB(cfg.DB)

	// Redis（未設定・接続失敗時はキャッシュなしで続行）
	var rdb *redisv9.Client
	if cfg.Redis.Host != "" {
		if tmp, err := infraredis.NewRedisClient(cfg.Redis); err != nil {
			slog.Warn("redis unavailable, running without cache", "error", err)
		} else {
			rdb = tmp
			defer func() {
				if err := rdb.Close(); err != nil {
					slog.Error("failed to close redis client", "error", err)
				}
			}()
		}
	}

	// Repository
	symbolRepo := adapters.NewSymbolRepository(db)
	freshnessRepo := adapters.NewFreshnessRepository(db)
	// Redisキャッシュでラップ（rdbがnilなら素のリポジトリ）
	// TTL未設定時は次の市場オープンまでキャッシュを保持する
	ttl := cfg.Redis.TTL
	if ttl <= 0 {
		ttl = cache.TimeUntilNextMarketOpen()
	}
	candleRepo, invalidator := di.NewCandleRepository(rdb, db, ttl)

	// 外部データソース
	market := di.NewMarket()
	limiter := ratelimiter.NewRateLimiter(cfg.SourceRateLimit, time.Minute)

	// Usecase
	aggregateUC := usecase.NewAggregateUsecase(candleRepo)
	syncUC := usecase.NewSyncUsecase(market, candleRepo, symbolRepo, freshnessRepo, aggregateUC, limiter)
	candlesUC := usecase.NewCandlesUsecase(candleRepo, symbolRepo, freshnessRepo)
	var cacheInvalidator usecase.CacheInvalidator
	if invalidator != nil {
		cacheInvalidator = invalidator
	}
	symbolsUC := usecase.NewSymbolsUsecase(symbolRepo, cacheInvalidator)

	// Handler
	candlesH := handler.NewCandlesHandler(candlesUC)
	syncH := handler.NewSyncHandler(syncUC, symbolRepo)
	symbolsH := handler.NewSymbolHandler(symbolsUC)

	// ルータ生成（CORS込み）
	r := router.NewRouter(candlesH, syncH, symbolsH)

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
