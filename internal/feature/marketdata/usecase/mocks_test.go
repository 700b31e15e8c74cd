package usecase

import (
	"context"
	"errors"
	"time"

	"marketdata_backend/internal/feature/marketdata/domain/entity"
)

var (
	ErrMarketAPI = errors.New("market API error")
	ErrDB        = errors.New("database error")
)

// mockMarketRepository is a mock implementation of the MarketRepository interface.
type mockMarketRepository struct {
	GetTimeSeriesFunc  func(ctx context.Context, symbol string, iv entity.Interval, start, end time.Time, outputsize int) ([]entity.Candle, error)
	GetTimeSeriesCalls int
}

func (m *mockMarketRepository) GetTimeSeries(ctx context.Context, symbol string, iv entity.Interval, start, end time.Time, outputsize int) ([]entity.Candle, error) {
	m.GetTimeSeriesCalls++
	if m.GetTimeSeriesFunc != nil {
		return m.GetTimeSeriesFunc(ctx, symbol, iv, start, end, outputsize)
	}
	return nil, errors.New("GetTimeSeriesFunc is not implemented")
}

// mockCandleRepository is a mock implementation of the CandleRepository interface.
type mockCandleRepository struct {
	FindFunc            func(ctx context.Context, symbol string, iv entity.Interval, outputsize int) ([]entity.Candle, error)
	LastPeriodStartFunc func(ctx context.Context, symbol string, iv entity.Interval) (time.Time, error)
	CountFunc           func(ctx context.Context, symbol string, iv entity.Interval) (int64, error)
	UpsertBatchFunc     func(ctx context.Context, candles []entity.Candle) (int, error)
	UpsertBatchCalls    int
}

func (m *mockCandleRepository) Find(ctx context.Context, symbol string, iv entity.Interval, outputsize int) ([]entity.Candle, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, symbol, iv, outputsize)
	}
	return nil, nil
}

func (m *mockCandleRepository) LastPeriodStart(ctx context.Context, symbol string, iv entity.Interval) (time.Time, error) {
	if m.LastPeriodStartFunc != nil {
		return m.LastPeriodStartFunc(ctx, symbol, iv)
	}
	return time.Time{}, nil
}

func (m *mockCandleRepository) Count(ctx context.Context, symbol string, iv entity.Interval) (int64, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx, symbol, iv)
	}
	return 0, nil
}

func (m *mockCandleRepository) UpsertBatch(ctx context.Context, candles []entity.Candle) (int, error) {
	m.UpsertBatchCalls++
	if m.UpsertBatchFunc != nil {
		return m.UpsertBatchFunc(ctx, candles)
	}
	return len(candles), nil
}

// mockSymbolRepository is a mock implementation of the SymbolRepository interface.
type mockSymbolRepository struct {
	GetFunc         func(ctx context.Context, code string) (entity.Symbol, error)
	GetOrCreateFunc func(ctx context.Context, code string) (entity.Symbol, error)
	ListActiveFunc  func(ctx context.Context) ([]entity.Symbol, error)
	PurgeFunc       func(ctx context.Context, code string) (int64, error)
}

func (m *mockSymbolRepository) Get(ctx context.Context, code string) (entity.Symbol, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, code)
	}
	return entity.Symbol{Code: code, IsActive: true}, nil
}

func (m *mockSymbolRepository) GetOrCreate(ctx context.Context, code string) (entity.Symbol, error) {
	if m.GetOrCreateFunc != nil {
		return m.GetOrCreateFunc(ctx, code)
	}
	return entity.Symbol{Code: code, IsActive: true}, nil
}

func (m *mockSymbolRepository) ListActive(ctx context.Context) ([]entity.Symbol, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx)
	}
	return nil, nil
}

func (m *mockSymbolRepository) ListActiveCodes(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (m *mockSymbolRepository) Purge(ctx context.Context, code string) (int64, error) {
	if m.PurgeFunc != nil {
		return m.PurgeFunc(ctx, code)
	}
	return 0, nil
}

// mockFreshnessRepository is an in-memory FreshnessRepository that mimics the
// real record semantics, so tests can assert freshness monotonicity.
type mockFreshnessRepository struct {
	records     map[string]entity.FreshnessRecord
	RecordFunc  func(ctx context.Context, symbol string, iv entity.Interval, success bool, fetchErr error) error
	RecordCalls int
	now         func() time.Time
}

func newMockFreshnessRepository(now func() time.Time) *mockFreshnessRepository {
	return &mockFreshnessRepository{records: map[string]entity.FreshnessRecord{}, now: now}
}

func (m *mockFreshnessRepository) key(symbol string, iv entity.Interval) string {
	return symbol + "/" + string(iv)
}

func (m *mockFreshnessRepository) Get(ctx context.Context, symbol string, iv entity.Interval) (entity.FreshnessRecord, error) {
	rec, ok := m.records[m.key(symbol, iv)]
	if !ok {
		return entity.FreshnessRecord{Symbol: symbol, Interval: iv}, nil
	}
	return rec, nil
}

func (m *mockFreshnessRepository) Record(ctx context.Context, symbol string, iv entity.Interval, success bool, fetchErr error) error {
	m.RecordCalls++
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, symbol, iv, success, fetchErr)
	}
	rec, _ := m.Get(ctx, symbol, iv)
	now := m.now()
	rec.FetchCount++
	rec.LastFetchedAt = now
	if success {
		rec.LastSuccessfulFetchAt = now
		rec.LastError = ""
	} else {
		rec.ErrorCount++
		if fetchErr != nil {
			rec.LastError = fetchErr.Error()
		}
	}
	m.records[m.key(symbol, iv)] = rec
	return nil
}

// mockAggregator is a mock implementation of the MonthlyAggregator interface.
type mockAggregator struct {
	RebuildMonthlyFunc  func(ctx context.Context, symbol string) (int, error)
	RebuildMonthlyCalls int
}

func (m *mockAggregator) RebuildMonthly(ctx context.Context, symbol string) (int, error) {
	m.RebuildMonthlyCalls++
	if m.RebuildMonthlyFunc != nil {
		return m.RebuildMonthlyFunc(ctx, symbol)
	}
	return 0, nil
}

// mockRateLimiter is a mock implementation of the RateLimiterInterface.
type mockRateLimiter struct {
	WaitIfNeededCalls int
}

func (m *mockRateLimiter) WaitIfNeeded() {
	m.WaitIfNeededCalls++
	// For testing purposes, return immediately without waiting
}
