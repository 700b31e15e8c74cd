package main

import (
	"context"
	"log"
	"log/slog"
	"time"

	"marketdata_backend/internal/app/config"
	"marketdata_backend/internal/app/di"
	"marketdata_backend/internal/feature/marketdata/adapters"
	"marketdata_backend/internal/feature/marketdata/domain/entity"
	"marketdata_backend/internal/feature/marketdata/usecase"
	infradb "marketdata_backend/internal/platform/db"
	"marketdata_backend/internal/shared/ratelimiter"
)

// 全アクティブ銘柄を設定された時間足で一括同期するバッチです。
// cronなどから定期実行する想定です。
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config:", err)
	}

	db := infradb.OpenDB(cfg.DB)

	candleRepo := adapters.NewCandleRepository(db)
	symbolRepo := adapters.NewSymbolRepository(db)
	freshnessRepo := adapters.NewFreshnessRepository(db)

	market := di.NewMarket()
	limiter := ratelimiter.NewRateLimiter(cfg.SourceRateLimit, time.Minute)

	aggregateUC := usecase.NewAggregateUsecase(candleRepo)
	syncUC := usecase.NewSyncUsecase(market, candleRepo, symbolRepo, freshnessRepo, aggregateUC, limiter)

	intervals := make([]entity.Interval, 0, len(cfg.SyncIntervals))
	for _, s := range cfg.SyncIntervals {
		iv, err := entity.ParseInterval(s)
		if err != nil {
			log.Fatal("invalid SYNC_INTERVALS entry:", err)
		}
		intervals = append(intervals, iv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.SyncTimeout)
	defer cancel()

	symbols, err := symbolRepo.ListActiveCodes(ctx)
	if err != nil {
		log.Fatal("failed to load symbols:", err)
	}

	batch := syncUC.SyncMany(ctx, symbols, intervals, false)

	slog.Info("sync finished",
		"symbols", len(symbols),
		"updated", len(batch.Updated),
		"up_to_date", len(batch.UpToDate),
		"failed", len(batch.Failed),
		"new_points", batch.TotalNewPoints)
	if len(batch.Failed) > 0 {
		// 部分失敗は終了コードで監視に伝える
		log.Fatalf("sync completed with %d failures", len(batch.Failed))
	}
}
