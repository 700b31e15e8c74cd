package usecase

import (
	"context"
	"log/slog"

	"marketdata_backend/internal/feature/marketdata/domain/entity"
)

// CacheInvalidator は銘柄単位でクエリキャッシュを無効化するインターフェースです。
// キャッシュを使わない構成ではnilのままで構いません。
type CacheInvalidator interface {
	InvalidateSymbol(ctx context.Context, symbol string) error
}

// SymbolsUsecase は銘柄マスタの参照とパージのユースケースを定義します。
type SymbolsUsecase struct {
	symbol SymbolRepository
	cache  CacheInvalidator
}

// NewSymbolsUsecase はSymbolsUsecaseの新しいインスタンスを生成します。
// cacheはnil可です。
func NewSymbolsUsecase(symbol SymbolRepository, cache CacheInvalidator) *SymbolsUsecase {
	return &SymbolsUsecase{symbol: symbol, cache: cache}
}

// List はアクティブな銘柄の一覧を返します。
func (su *SymbolsUsecase) List(ctx context.Context) ([]entity.Symbol, error) {
	return su.symbol.ListActive(ctx)
}

// Purge は銘柄とそのローソク足・鮮度記録をすべて削除し、削除行数を返します。
func (su *SymbolsUsecase) Purge(ctx context.Context, code string) (int64, error) {
	deleted, err := su.symbol.Purge(ctx, code)
	if err != nil {
		return 0, err
	}
	if su.cache != nil {
		// キャッシュ無効化はベストエフォート。失敗してもパージ自体は成立している。
		if err := su.cache.InvalidateSymbol(ctx, code); err != nil {
			slog.Warn("failed to invalidate cache after purge", "symbol", code, "error", err)
		}
	}
	return deleted, nil
}
