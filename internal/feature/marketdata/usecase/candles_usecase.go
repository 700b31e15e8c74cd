// Package usecase はローソク足データの同期・集計・参照のビジネスロジックを実装します。
package usecase

import (
	"context"
	"fmt"
	"time"

	"marketdata_backend/internal/feature/marketdata/domain/entity"
)

const (
	// DefaultInterval はローソク足クエリのデフォルト時間間隔です。
	DefaultInterval = entity.Interval1Day
	// DefaultOutputSize はデフォルトのローソク足返却件数です。
	DefaultOutputSize = 200
	// MaxOutputSize はローソク足の最大返却件数です。
	MaxOutputSize = 5000
)

// CandleRepository はローソク足データの永続化レイヤーを抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type CandleRepository interface {
	// Find は直近outputsize件のローソク足を古い順（昇順）で返します。
	// outputsizeが0以下の場合は全件を返します。
	Find(ctx context.Context, symbol string, iv entity.Interval, outputsize int) ([]entity.Candle, error)

	// LastPeriodStart は保存済みの最新の期間開始時刻を返します。
	// 1件もない場合はゼロ値を返します（エラーではない）。
	LastPeriodStart(ctx context.Context, symbol string, iv entity.Interval) (time.Time, error)

	// Count は保存済みローソク足の本数を返します。
	Count(ctx context.Context, symbol string, iv entity.Interval) (int64, error)

	// UpsertBatch は (symbol, interval, time) をユニークキーとして1トランザクションで
	// Upsertし、影響行数を返します。週足は既存行の全入れ替え、月足は直近期間の
	// 入れ替えになります。
	UpsertBatch(ctx context.Context, candles []entity.Candle) (int, error)
}

// AgeInfo は (銘柄, 時間足) のデータ鮮度のスナップショットです。
type AgeInfo struct {
	// AgeMinutes は最終成功取得からの経過分です。未取得の場合は +Inf です。
	AgeMinutes            float64
	LastSuccessfulFetchAt time.Time
	DataPointCount        int64
}

// CandlesUsecase はローソク足データの参照ユースケースを定義します。
type CandlesUsecase struct {
	candle    CandleRepository
	symbol    SymbolRepository
	freshness FreshnessRepository

	now func() time.Time
}

// NewCandlesUsecase はCandlesUsecaseの新しいインスタンスを生成します。
func NewCandlesUsecase(candle CandleRepository, symbol SymbolRepository, freshness FreshnessRepository) *CandlesUsecase {
	return &CandlesUsecase{candle: candle, symbol: symbol, freshness: freshness, now: time.Now}
}

// GetCandles は指定された銘柄と時間間隔のローソク足データを古い順で取得します。
func (cu *CandlesUsecase) GetCandles(ctx context.Context, symbol, interval string, outputsize int) ([]entity.Candle, error) {
	if interval == "" {
		interval = string(DefaultInterval)
	}
	iv, err := entity.ParseInterval(interval)
	if err != nil {
		return nil, err
	}
	if outputsize <= 0 || outputsize > MaxOutputSize {
		outputsize = DefaultOutputSize
	}

	return cu.candle.Find(ctx, symbol, iv, outputsize)
}

// Age は (銘柄, 時間足) のデータ鮮度と保存本数を返します。
// 未登録の銘柄の場合は entity.ErrUnknownSymbol を返します。
func (cu *CandlesUsecase) Age(ctx context.Context, symbol, interval string) (AgeInfo, error) {
	iv, err := entity.ParseInterval(interval)
	if err != nil {
		return AgeInfo{}, err
	}
	if _, err := cu.symbol.Get(ctx, symbol); err != nil {
		return AgeInfo{}, err
	}

	fresh, err := cu.freshness.Get(ctx, symbol, iv)
	if err != nil {
		return AgeInfo{}, fmt.Errorf("load freshness: %w", err)
	}
	count, err := cu.candle.Count(ctx, symbol, iv)
	if err != nil {
		return AgeInfo{}, fmt.Errorf("count candles: %w", err)
	}

	return AgeInfo{
		AgeMinutes:            fresh.AgeMinutes(cu.now()),
		LastSuccessfulFetchAt: fresh.LastSuccessfulFetchAt,
		DataPointCount:        count,
	}, nil
}
