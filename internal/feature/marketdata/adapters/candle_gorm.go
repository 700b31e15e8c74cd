// Package adapters はmarketdataフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"marketdata_backend/internal/feature/marketdata/domain/entity"
	"marketdata_backend/internal/feature/marketdata/usecase"
)

// monthlyRewriteWindow は月足の入れ替え時に削除対象とする直近期間です。
// 過去の確定済み月足まで無制限に消さないための境界です。
const monthlyRewriteWindow = 12 // months

type candleGorm struct {
	db *gorm.DB
}

var _ usecase.CandleRepository = (*candleGorm)(nil)

// NewCandleRepository は指定されたDB接続でcandleGormリポジトリの新しいインスタンスを生成します。
func NewCandleRepository(db *gorm.DB) *candleGorm {
	return &candleGorm{db: db}
}

// CandleModel はcandlesテーブルの行です。(symbol, interval, time) がユニークキーです。
type CandleModel struct {
	ID       uint      `gorm:"primaryKey"`
	Symbol   string    `gorm:"size:32;not null;uniqueIndex:candle_sym_int_time,priority:1"`
	Interval string    `gorm:"size:16;not null;uniqueIndex:candle_sym_int_time,priority:2"`
	Time     time.Time `gorm:"not null;uniqueIndex:candle_sym_int_time,priority:3"`

	Open   float64 `gorm:"not null"`
	High   float64 `gorm:"not null"`
	Low    float64 `gorm:"not null"`
	Close  float64 `gorm:"not null"`
	Volume int64   `gorm:"not null;default:0"`
}

func (CandleModel) TableName() string {
	return "candles"
}

func toModel(e entity.Candle) CandleModel {
	return CandleModel{
		Symbol:   e.Symbol,
		Interval: string(e.Interval),
		Time:     e.Time,
		Open:     e.Open,
		High:     e.High,
		Low:      e.Low,
		Close:    e.Close,
		Volume:   e.Volume,
	}
}

func toEntity(m CandleModel) entity.Candle {
	return entity.Candle{
		Symbol:   m.Symbol,
		Interval: entity.Interval(m.Interval),
		Time:     m.Time,
		Open:     m.Open,
		High:     m.High,
		Low:      m.Low,
		Close:    m.Close,
		Volume:   m.Volume,
	}
}

// UpsertBatch は1銘柄・1時間足のバッチを1トランザクションで保存します。
// (symbol, interval, time) をユニークキーとしたreplace-on-conflictにより、
// 同一データの再取り込みは冪等になります。
//
// 週足は正規化で1週が1バケットに潰れるため、タイムスタンプのずれた同一週の行が
// 残らないよう既存の週足行を全削除してから挿入します。月足は直近12ヶ月分のみ
// 削除してから挿入し、確定済みの過去月には触れません。
func (r *candleGorm) UpsertBatch(ctx context.Context, candles []entity.Candle) (int, error) {
	if len(candles) == 0 {
		return 0, nil
	}
	symbol := candles[0].Symbol
	iv := candles[0].Interval

	ms := make([]CandleModel, 0, len(candles))
	for _, e := range candles {
		ms = append(ms, toModel(e))
	}

	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		switch iv.Class() {
		case entity.ClassWeekly:
			if err := tx.
				Where(map[string]interface{}{"symbol": symbol, "interval": string(iv)}).
				Delete(&CandleModel{}).Error; err != nil {
				return err
			}
		case entity.ClassMonthly:
			since := time.Now().AddDate(0, -monthlyRewriteWindow, 0)
			if err := tx.
				Where(map[string]interface{}{"symbol": symbol, "interval": string(iv)}).
				Where("time >= ?", since).
				Delete(&CandleModel{}).Error; err != nil {
				return err
			}
		}

		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "symbol"}, {Name: "interval"}, {Name: "time"}},
			DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close", "volume"}),
		}).Create(&ms)
		if res.Error != nil {
			return res.Error
		}
		affected = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// Find は直近outputsize件を古い順で返します。「最新のN件」を正しく区切るため、
// 内部では降順で検索してlimitを適用したあと昇順に反転します。
// outputsizeが0以下の場合は全件を返します。
func (r *candleGorm) Find(ctx context.Context, symbol string, iv entity.Interval, outputsize int) ([]entity.Candle, error) {
	var rows []CandleModel
	q := r.db.WithContext(ctx).
		Where(map[string]interface{}{"symbol": symbol, "interval": string(iv)}).
		Order("time DESC")
	if outputsize > 0 {
		q = q.Limit(outputsize)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]entity.Candle, len(rows))
	for i, m := range rows {
		out[len(rows)-1-i] = toEntity(m)
	}
	return out, nil
}

// LastPeriodStart は保存済みの最新の期間開始時刻を返します。
// 1件もない場合はゼロ値を返します。
func (r *candleGorm) LastPeriodStart(ctx context.Context, symbol string, iv entity.Interval) (time.Time, error) {
	var m CandleModel
	err := r.db.WithContext(ctx).
		Where(map[string]interface{}{"symbol": symbol, "interval": string(iv)}).
		Order("time DESC").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return m.Time, nil
}

// Count は保存済みローソク足の本数を返します。
func (r *candleGorm) Count(ctx context.Context, symbol string, iv entity.Interval) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&CandleModel{}).
		Where(map[string]interface{}{"symbol": symbol, "interval": string(iv)}).
		Count(&count).Error
	return count, err
}
