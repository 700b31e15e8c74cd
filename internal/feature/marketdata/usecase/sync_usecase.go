package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"marketdata_backend/internal/feature/marketdata/domain/entity"
	"marketdata_backend/internal/shared/ratelimiter"
)

// MarketRepository は株価データを取得するリポジトリのインターフェイスです。
// 外部 API の実装を抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type MarketRepository interface {
	// GetTimeSeries は指定範囲の時系列データを取得します。startがゼロ値の場合、
	// 範囲はoutputsizeのみで制限されます。
	GetTimeSeries(ctx context.Context, symbol string, iv entity.Interval, start, end time.Time, outputsize int) ([]entity.Candle, error)
}

// SymbolRepository は銘柄マスタの永続化を抽象化します。
type SymbolRepository interface {
	// Get は銘柄を返します。未登録の場合は entity.ErrUnknownSymbol を返します。
	Get(ctx context.Context, code string) (entity.Symbol, error)

	// GetOrCreate は銘柄を返し、未登録であれば作成します。
	GetOrCreate(ctx context.Context, code string) (entity.Symbol, error)

	// ListActive はアクティブな銘柄をsort_key順に返します。
	ListActive(ctx context.Context) ([]entity.Symbol, error)

	// ListActiveCodes はアクティブな銘柄のコードのみをsort_key順に返します。
	ListActiveCodes(ctx context.Context) ([]string, error)

	// Purge は銘柄と、そのローソク足・鮮度記録をすべて削除し、削除行数を返します。
	Purge(ctx context.Context, code string) (int64, error)
}

// FreshnessRepository は (銘柄, 時間足) ごとの取得鮮度の永続化を抽象化します。
type FreshnessRepository interface {
	// Get は鮮度記録を返します。未記録の場合はゼロ値の記録を返します（エラーではない）。
	Get(ctx context.Context, symbol string, iv entity.Interval) (entity.FreshnessRecord, error)

	// Record は取得試行を記録します。fetchCountは常に加算、errorCountは失敗時のみ
	// 加算、lastSuccessfulFetchAtは成功時のみ更新されます。
	Record(ctx context.Context, symbol string, iv entity.Interval, success bool, fetchErr error) error
}

// MonthlyAggregator は日足からの月足再構築を抽象化します。
type MonthlyAggregator interface {
	RebuildMonthly(ctx context.Context, symbol string) (int, error)
}

// SyncStatus は1回の (銘柄, 時間足) 同期の最終結果です。
type SyncStatus string

const (
	StatusUpdated   SyncStatus = "updated"
	StatusUpToDate  SyncStatus = "up_to_date"
	StatusNoNewData SyncStatus = "no_new_data"
	StatusFailed    SyncStatus = "failed"
)

// SyncResult は1つの (銘柄, 時間足) 同期の結果です。
type SyncResult struct {
	Symbol    string
	Interval  entity.Interval
	Status    SyncStatus
	NewPoints int
	// Filtered は検証エラーと重複排除で除外されたサンプル数です。
	Filtered int
	Err      error
}

// BatchResult は複数銘柄・複数時間足の一括同期の結果です。
// 1銘柄の失敗はバッチ全体を中断せず、Failedに積まれます。
type BatchResult struct {
	Updated        []SyncResult
	UpToDate       []SyncResult
	Failed         []SyncResult
	TotalNewPoints int
}

// add は結果をステータス別のリストへ振り分けます。
func (b *BatchResult) add(res SyncResult) {
	switch res.Status {
	case StatusUpdated:
		b.Updated = append(b.Updated, res)
		b.TotalNewPoints += res.NewPoints
	case StatusFailed:
		b.Failed = append(b.Failed, res)
	default:
		b.UpToDate = append(b.UpToDate, res)
	}
}

// SyncUsecase は外部ソースからの増分同期を編成するユースケースです。
// 取得計画 → 外部取得 → 正規化/検証/重複排除 → Upsert → 鮮度記録 の順に、
// 銘柄内は時間足ごとに逐次実行します（ソースと保存層への負荷を抑えるため）。
type SyncUsecase struct {
	market      MarketRepository
	candle      CandleRepository
	symbol      SymbolRepository
	freshness   FreshnessRepository
	aggregator  MonthlyAggregator
	rateLimiter ratelimiter.RateLimiterInterface

	// now はテストから時刻を固定するために差し替え可能にしています。
	now func() time.Time
}

// NewSyncUsecase は新しい SyncUsecase を作成します。
func NewSyncUsecase(
	market MarketRepository,
	candle CandleRepository,
	symbol SymbolRepository,
	freshness FreshnessRepository,
	aggregator MonthlyAggregator,
	rateLimiter ratelimiter.RateLimiterInterface,
) *SyncUsecase {
	return &SyncUsecase{
		market:      market,
		candle:      candle,
		symbol:      symbol,
		freshness:   freshness,
		aggregator:  aggregator,
		rateLimiter: rateLimiter,
		now:         time.Now,
	}
}

// SyncOne は1つの (銘柄, 時間足) を同期します。月足が要求された場合は
// 先に日足を最新化し、月足は日足からの集計で再構築します。
func (u *SyncUsecase) SyncOne(ctx context.Context, symbol string, iv entity.Interval, force bool) SyncResult {
	results := u.syncSymbol(ctx, symbol, []entity.Interval{iv}, force)
	// 要求された時間足の結果は常に最後に積まれる
	return results[len(results)-1]
}

// SyncMany は複数銘柄を指定された時間足のリストで一括同期します。
// 銘柄間は逐次処理で、外部ソース呼び出しごとにレートリミッタで自己抑制します。
func (u *SyncUsecase) SyncMany(ctx context.Context, symbols []string, intervals []entity.Interval, force bool) BatchResult {
	var batch BatchResult
	for _, s := range symbols {
		for _, res := range u.syncSymbol(ctx, s, intervals, force) {
			if res.Status == StatusFailed {
				// 1つの銘柄でエラーが発生しても処理を止めずにログに出力し、次の処理を続ける
				slog.Error("sync failed", "symbol", res.Symbol, "interval", res.Interval, "error", res.Err)
			}
			batch.add(res)
		}
	}
	return batch
}

// syncSymbol は1銘柄を要求された時間足で同期します。月足以外を逐次処理したあと、
// 月足が要求されていれば（日足が未要求なら先に日足を同期したうえで）集計を実行します。
func (u *SyncUsecase) syncSymbol(ctx context.Context, symbol string, intervals []entity.Interval, force bool) []SyncResult {
	if _, err := u.symbol.GetOrCreate(ctx, symbol); err != nil {
		results := make([]SyncResult, 0, len(intervals))
		for _, iv := range intervals {
			results = append(results, SyncResult{Symbol: symbol, Interval: iv, Status: StatusFailed, Err: err})
		}
		return results
	}

	var results []SyncResult
	wantMonthly := false
	hasDaily := false
	for _, iv := range intervals {
		if iv.Class() == entity.ClassMonthly {
			wantMonthly = true
			continue
		}
		results = append(results, u.syncUnit(ctx, symbol, iv, force))
		if iv == entity.Interval1Day {
			hasDaily = true
		}
	}

	if wantMonthly {
		if !hasDaily {
			// 月足は日足からの導出なので、先に日足を最新化する
			results = append(results, u.syncUnit(ctx, symbol, entity.Interval1Day, force))
		}
		results = append(results, u.rebuildMonthly(ctx, symbol))
	}
	return results
}

// syncUnit は1つの (銘柄, 時間足) の取得〜保存〜鮮度記録を実行します。
func (u *SyncUsecase) syncUnit(ctx context.Context, symbol string, iv entity.Interval, force bool) SyncResult {
	res := SyncResult{Symbol: symbol, Interval: iv}
	now := u.now()

	fresh, err := u.freshness.Get(ctx, symbol, iv)
	if err != nil {
		res.Status, res.Err = StatusFailed, err
		return res
	}
	lastPeriod, err := u.candle.LastPeriodStart(ctx, symbol, iv)
	if err != nil {
		res.Status, res.Err = StatusFailed, err
		return res
	}

	plan := planFetch(iv, lastPeriod, fresh, force, now)
	if plan.action == actionSkip {
		res.Status = StatusUpToDate
		return res
	}

	u.rateLimiter.WaitIfNeeded()
	raw, err := u.market.GetTimeSeries(ctx, symbol, iv, plan.start, now, plan.outputSize)
	if err != nil {
		u.recordFreshness(ctx, symbol, iv, false, err)
		res.Status, res.Err = StatusFailed, err
		return res
	}

	prepared, filtered := prepareBatch(symbol, iv, raw)
	res.Filtered = filtered
	if len(prepared) == 0 {
		u.recordFreshness(ctx, symbol, iv, true, nil)
		res.Status = StatusNoNewData
		return res
	}

	inserted, err := u.candle.UpsertBatch(ctx, prepared)
	if err != nil {
		u.recordFreshness(ctx, symbol, iv, false, err)
		res.Status, res.Err = StatusFailed, err
		return res
	}

	u.recordFreshness(ctx, symbol, iv, true, nil)
	res.NewPoints = inserted
	if inserted > 0 {
		res.Status = StatusUpdated
	} else {
		res.Status = StatusNoNewData
	}
	return res
}

// rebuildMonthly は日足から月足を再構築し、月足の鮮度記録も更新します。
// 日足がまだ存在しない場合はエラーではなくno_new_dataとして扱います。
func (u *SyncUsecase) rebuildMonthly(ctx context.Context, symbol string) SyncResult {
	res := SyncResult{Symbol: symbol, Interval: entity.Interval1Month}

	n, err := u.aggregator.RebuildMonthly(ctx, symbol)
	switch {
	case err == nil:
		u.recordFreshness(ctx, symbol, entity.Interval1Month, true, nil)
		res.NewPoints = n
		if n > 0 {
			res.Status = StatusUpdated
		} else {
			res.Status = StatusNoNewData
		}
	case errors.Is(err, entity.ErrInsufficientData):
		u.recordFreshness(ctx, symbol, entity.Interval1Month, true, nil)
		res.Status = StatusNoNewData
	default:
		u.recordFreshness(ctx, symbol, entity.Interval1Month, false, err)
		res.Status, res.Err = StatusFailed, err
	}
	return res
}

// recordFreshness は鮮度記録の更新を試み、失敗してもログに留めます。
// 鮮度のブックキーピング失敗で同期結果そのものを失敗にはしません。
func (u *SyncUsecase) recordFreshness(ctx context.Context, symbol string, iv entity.Interval, success bool, fetchErr error) {
	if err := u.freshness.Record(ctx, symbol, iv, success, fetchErr); err != nil {
		slog.Error("failed to record freshness", "symbol", symbol, "interval", iv, "error", err)
	}
}
