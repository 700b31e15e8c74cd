package usecase

import (
	"context"
	"fmt"

	"marketdata_backend/internal/feature/marketdata/domain/entity"
)

// AggregateUsecase は保存済みの日足から月足を合成するユースケースです。
// 外部ソースの月次区切りは暦の境界と一致しないことがあるため、月足は
// ソースから直接取得せず常にここで導出します。ここが月足行の唯一の書き込み元であり、
// ソース由来の月足行は暫定データとして次回の集計時に置き換えられます。
type AggregateUsecase struct {
	candle CandleRepository
}

// NewAggregateUsecase はAggregateUsecaseの新しいインスタンスを生成します。
func NewAggregateUsecase(candle CandleRepository) *AggregateUsecase {
	return &AggregateUsecase{candle: candle}
}

// RebuildMonthly は銘柄の全日足を (年, 月) でグループ化し、月ごとに1本の月足を
// 合成して保存します。
//
//   - open   = 月内で時系列順に最初の日足の始値
//   - high   = 日足の高値の最大
//   - low    = 日足の安値の最小
//   - close  = 月内で時系列順に最後の日足の終値
//   - volume = 日足の出来高の合計
//   - 期間開始 = その月の最初の取引日（土日スキップ）
//
// 日足がまだ1本もない場合は entity.ErrInsufficientData を返します。
// 呼び出し側（オーケストレータ）が先に日足の取得を保証する責務を持ちます。
func (a *AggregateUsecase) RebuildMonthly(ctx context.Context, symbol string) (int, error) {
	// outputsize 0 = 全件を昇順で取得
	daily, err := a.candle.Find(ctx, symbol, entity.Interval1Day, 0)
	if err != nil {
		return 0, fmt.Errorf("load daily candles: %w", err)
	}
	if len(daily) == 0 {
		return 0, entity.ErrInsufficientData
	}

	months := make([]entity.Candle, 0, len(daily)/20+1)
	index := make(map[string]int)

	for _, d := range daily {
		key := d.Time.Format("2006-01")
		i, ok := index[key]
		if !ok {
			index[key] = len(months)
			months = append(months, entity.Candle{
				Symbol:   symbol,
				Interval: entity.Interval1Month,
				Time:     entity.Interval1Month.Normalize(d.Time),
				Open:     d.Open,
				High:     d.High,
				Low:      d.Low,
				Close:    d.Close,
				Volume:   d.Volume,
			})
			continue
		}
		m := &months[i]
		if d.High > m.High {
			m.High = d.High
		}
		if d.Low < m.Low {
			m.Low = d.Low
		}
		m.Close = d.Close
		m.Volume += d.Volume
	}

	return a.candle.UpsertBatch(ctx, months)
}
