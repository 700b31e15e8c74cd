package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"marketdata_backend/internal/feature/marketdata/domain/entity"
	"marketdata_backend/internal/feature/marketdata/usecase"
)

type symbolGorm struct {
	db *gorm.DB
}

var _ usecase.SymbolRepository = (*symbolGorm)(nil)

// NewSymbolRepository は指定されたDB接続でsymbolGormリポジトリの新しいインスタンスを生成します。
func NewSymbolRepository(db *gorm.DB) *symbolGorm {
	return &symbolGorm{db: db}
}

// SymbolModel はsymbolsテーブルの行です。codeがユニークキーです。
type SymbolModel struct {
	ID       uint   `gorm:"primaryKey"`
	Code     string `gorm:"size:32;not null;uniqueIndex"`
	Name     string `gorm:"size:128"`
	Exchange string `gorm:"size:64"`
	Type     string `gorm:"size:32"`
	IsActive bool   `gorm:"not null;default:true"`
	SortKey  int    `gorm:"not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (SymbolModel) TableName() string {
	return "symbols"
}

func toSymbolEntity(m SymbolModel) entity.Symbol {
	return entity.Symbol{
		Code:      m.Code,
		Name:      m.Name,
		Exchange:  m.Exchange,
		Type:      m.Type,
		IsActive:  m.IsActive,
		SortKey:   m.SortKey,
		UpdatedAt: m.UpdatedAt,
	}
}

// Get は銘柄を返します。未登録の場合は entity.ErrUnknownSymbol を返します。
func (r *symbolGorm) Get(ctx context.Context, code string) (entity.Symbol, error) {
	var m SymbolModel
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entity.Symbol{}, fmt.Errorf("%w: %s", entity.ErrUnknownSymbol, code)
	}
	if err != nil {
		return entity.Symbol{}, err
	}
	return toSymbolEntity(m), nil
}

// GetOrCreate は銘柄を返し、未登録であれば作成します（最初の参照時に作成する方針）。
func (r *symbolGorm) GetOrCreate(ctx context.Context, code string) (entity.Symbol, error) {
	var m SymbolModel
	err := r.db.WithContext(ctx).
		Where(SymbolModel{Code: code}).
		Attrs(SymbolModel{IsActive: true}).
		FirstOrCreate(&m).Error
	if err != nil {
		return entity.Symbol{}, err
	}
	return toSymbolEntity(m), nil
}

// ListActive はsort_key順にすべてのアクティブな銘柄を返します。
func (r *symbolGorm) ListActive(ctx context.Context) ([]entity.Symbol, error) {
	var rows []SymbolModel
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_key ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entity.Symbol, 0, len(rows))
	for _, m := range rows {
		out = append(out, toSymbolEntity(m))
	}
	return out, nil
}

// ListActiveCodes はsort_key順にアクティブな銘柄のコードのみを返します。
func (r *symbolGorm) ListActiveCodes(ctx context.Context) ([]string, error) {
	var codes []string
	if err := r.db.WithContext(ctx).
		Model(&SymbolModel{}).
		Where("is_active = ?", true).
		Order("sort_key ASC").
		Pluck("code", &codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

// Purge は銘柄と、そのローソク足・鮮度記録を1トランザクションで削除し、
// 削除した合計行数を返します。
func (r *symbolGorm) Purge(ctx context.Context, code string) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("symbol = ?", code).Delete(&CandleModel{})
		if res.Error != nil {
			return res.Error
		}
		deleted += res.RowsAffected

		res = tx.Where("symbol = ?", code).Delete(&FreshnessModel{})
		if res.Error != nil {
			return res.Error
		}
		deleted += res.RowsAffected

		res = tx.Where("code = ?", code).Delete(&SymbolModel{})
		if res.Error != nil {
			return res.Error
		}
		deleted += res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}
