package adapters

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"marketdata_backend/internal/feature/marketdata/domain/entity"
	"marketdata_backend/internal/feature/marketdata/usecase"
)

// maxLastErrorLen はlastErrorカラムに保存するエラーメッセージの上限長です。
const maxLastErrorLen = 512

type freshnessGorm struct {
	db *gorm.DB

	// now はテストから時刻を固定するために差し替え可能にしています。
	now func() time.Time
}

var _ usecase.FreshnessRepository = (*freshnessGorm)(nil)

// NewFreshnessRepository は指定されたDB接続でfreshnessGormリポジトリの新しいインスタンスを生成します。
func NewFreshnessRepository(db *gorm.DB) *freshnessGorm {
	return &freshnessGorm{db: db, now: time.Now}
}

// FreshnessModel はfreshnessテーブルの行です。(symbol, interval) がユニークキーです。
type FreshnessModel struct {
	ID       uint   `gorm:"primaryKey"`
	Symbol   string `gorm:"size:32;not null;uniqueIndex:fresh_sym_int,priority:1"`
	Interval string `gorm:"size:16;not null;uniqueIndex:fresh_sym_int,priority:2"`

	LastFetchedAt         time.Time
	LastSuccessfulFetchAt *time.Time
	FetchCount            int64  `gorm:"not null;default:0"`
	ErrorCount            int64  `gorm:"not null;default:0"`
	LastError             string `gorm:"size:512"`
}

func (FreshnessModel) TableName() string {
	return "freshness"
}

// Get は鮮度記録を返します。未記録の場合はゼロ値の記録を返します。
func (r *freshnessGorm) Get(ctx context.Context, symbol string, iv entity.Interval) (entity.FreshnessRecord, error) {
	var m FreshnessModel
	err := r.db.WithContext(ctx).
		Where(map[string]interface{}{"symbol": symbol, "interval": string(iv)}).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entity.FreshnessRecord{Symbol: symbol, Interval: iv}, nil
	}
	if err != nil {
		return entity.FreshnessRecord{}, err
	}

	rec := entity.FreshnessRecord{
		Symbol:        m.Symbol,
		Interval:      entity.Interval(m.Interval),
		LastFetchedAt: m.LastFetchedAt,
		FetchCount:    m.FetchCount,
		ErrorCount:    m.ErrorCount,
		LastError:     m.LastError,
	}
	if m.LastSuccessfulFetchAt != nil {
		rec.LastSuccessfulFetchAt = *m.LastSuccessfulFetchAt
	}
	return rec, nil
}

// Record は取得試行を記録します。fetchCountは常に加算、errorCountは失敗時のみ加算。
// lastSuccessfulFetchAtは成功時のみ更新し、失敗時は直前の成功時刻を保持します。
// lastErrorには直近の失敗メッセージのみを保持します（履歴は持たない）。
func (r *freshnessGorm) Record(ctx context.Context, symbol string, iv entity.Interval, success bool, fetchErr error) error {
	now := r.now()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m FreshnessModel
		err := tx.
			Where(map[string]interface{}{"symbol": symbol, "interval": string(iv)}).
			First(&m).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			m = FreshnessModel{Symbol: symbol, Interval: string(iv)}
		} else if err != nil {
			return err
		}

		m.FetchCount++
		m.LastFetchedAt = now
		if success {
			t := now
			m.LastSuccessfulFetchAt = &t
			m.LastError = ""
		} else {
			m.ErrorCount++
			if fetchErr != nil {
				msg := fetchErr.Error()
				if len(msg) > maxLastErrorLen {
					msg = msg[:maxLastErrorLen]
				}
				m.LastError = msg
			}
		}
		return tx.Save(&m).Error
	})
}
