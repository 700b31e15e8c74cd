package adapters

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"marketdata_backend/internal/feature/marketdata/domain/entity"
)

// setupTestDB prepares an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to initialize test database")

	err = db.AutoMigrate(&SymbolModel{}, &CandleModel{}, &FreshnessModel{})
	require.NoError(t, err, "failed to migrate tables")

	return db
}

// seedCandle creates a test candle in the database for testing.
func seedCandle(t *testing.T, db *gorm.DB, symbol string, iv entity.Interval, ts time.Time) *CandleModel {
	t.Helper()

	candle := &CandleModel{
		Symbol:   symbol,
		Interval: string(iv),
		Time:     ts,
		Open:     100.0,
		High:     110.0,
		Low:      90.0,
		Close:    105.0,
		Volume:   1000,
	}
	err := db.Create(candle).Error
	require.NoError(t, err, "failed to seed candle")

	return candle
}

func dayCandle(symbol string, ts time.Time, close float64) entity.Candle {
	return entity.Candle{
		Symbol:   symbol,
		Interval: entity.Interval1Day,
		Time:     ts,
		Open:     100,
		High:     110,
		Low:      90,
		Close:    close,
		Volume:   1000,
	}
}

func TestCandleGorm_UpsertBatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	baseTime := time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)

	t.Run("insert then re-upsert is idempotent", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewCandleRepository(db)

		batch := []entity.Candle{
			dayCandle("AAPL", baseTime, 105),
			dayCandle("AAPL", baseTime.AddDate(0, 0, 1), 106),
		}

		inserted, err := repo.UpsertBatch(ctx, batch)
		require.NoError(t, err)
		assert.Equal(t, 2, inserted)

		// 同一データの再取り込みで行が増えないこと
		_, err = repo.UpsertBatch(ctx, batch)
		require.NoError(t, err)

		var count int64
		db.Model(&CandleModel{}).Count(&count)
		assert.Equal(t, int64(2), count, "re-upsert must not create duplicate rows")
	})

	t.Run("conflicting row is replaced, uniqueness preserved", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewCandleRepository(db)

		_, err := repo.UpsertBatch(ctx, []entity.Candle{dayCandle("AAPL", baseTime, 105)})
		require.NoError(t, err)

		updated := dayCandle("AAPL", baseTime, 999)
		_, err = repo.UpsertBatch(ctx, []entity.Candle{updated})
		require.NoError(t, err)

		var rows []CandleModel
		db.Where("symbol = ?", "AAPL").Find(&rows)
		require.Len(t, rows, 1, "exactly one row per (symbol, interval, periodStart)")
		assert.Equal(t, 999.0, rows[0].Close)
	})

	t.Run("weekly upsert replaces all existing weekly rows for the symbol", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewCandleRepository(db)

		// 週の途中の取得で残った、ずれたタイムスタンプの週足行
		seedCandle(t, db, "AAPL", entity.Interval1Week, baseTime.Add(48*time.Hour))
		seedCandle(t, db, "AAPL", entity.Interval1Week, baseTime.AddDate(0, 0, -7))
		// 他銘柄・他時間足は残ること
		seedCandle(t, db, "GOOG", entity.Interval1Week, baseTime)
		seedCandle(t, db, "AAPL", entity.Interval1Day, baseTime)

		fresh := []entity.Candle{
			{Symbol: "AAPL", Interval: entity.Interval1Week, Time: baseTime, Open: 1, High: 2, Low: 1, Close: 2, Volume: 10},
			{Symbol: "AAPL", Interval: entity.Interval1Week, Time: baseTime.AddDate(0, 0, -7), Open: 3, High: 4, Low: 3, Close: 4, Volume: 20},
		}
		_, err := repo.UpsertBatch(ctx, fresh)
		require.NoError(t, err)

		var weekly []CandleModel
		db.Where("symbol = ? AND interval = ?", "AAPL", "1week").Find(&weekly)
		assert.Len(t, weekly, 2, "stale same-week rows must be gone")
		for _, m := range weekly {
			assert.NotEqual(t, baseTime.Add(48*time.Hour).Unix(), m.Time.Unix(), "drifted weekly row must be deleted")
		}

		var others int64
		db.Model(&CandleModel{}).Where("symbol = ? OR interval = ?", "GOOG", "1day").Count(&others)
		assert.Equal(t, int64(2), others, "other symbols and intervals must be untouched")
	})

	t.Run("monthly upsert rewrites only the trailing window", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewCandleRepository(db)

		now := time.Now().UTC()
		ancient := seedCandle(t, db, "AAPL", entity.Interval1Month, now.AddDate(-3, 0, 0))
		// ウィンドウ内でタイムスタンプのずれた暫定月足
		seedCandle(t, db, "AAPL", entity.Interval1Month, now.AddDate(0, -1, 2))

		fresh := []entity.Candle{
			{Symbol: "AAPL", Interval: entity.Interval1Month, Time: entity.Interval1Month.Normalize(now.AddDate(0, -1, 0)), Open: 1, High: 2, Low: 1, Close: 2},
			{Symbol: "AAPL", Interval: entity.Interval1Month, Time: entity.Interval1Month.Normalize(now), Open: 2, High: 3, Low: 2, Close: 3},
		}
		_, err := repo.UpsertBatch(ctx, fresh)
		require.NoError(t, err)

		var monthly []CandleModel
		db.Where("symbol = ? AND interval = ?", "AAPL", "1month").Order("time ASC").Find(&monthly)
		require.Len(t, monthly, 3)
		assert.Equal(t, ancient.Time.Unix(), monthly[0].Time.Unix(), "months outside the window are not recomputed")
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewCandleRepository(db)

		inserted, err := repo.UpsertBatch(ctx, nil)
		require.NoError(t, err)
		assert.Zero(t, inserted)
	})
}

func TestCandleGorm_Find(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	baseTime := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	t.Run("returns most recent N in ascending order", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewCandleRepository(db)

		for i := 0; i < 10; i++ {
			seedCandle(t, db, "AAPL", entity.Interval1Day, baseTime.AddDate(0, 0, i))
		}

		got, err := repo.Find(ctx, "AAPL", entity.Interval1Day, 3)
		require.NoError(t, err)
		require.Len(t, got, 3)

		// 最新3件（7,8,9日目）が古い順で返ること
		assert.Equal(t, baseTime.AddDate(0, 0, 7).Unix(), got[0].Time.Unix())
		assert.Equal(t, baseTime.AddDate(0, 0, 9).Unix(), got[2].Time.Unix())
		assert.True(t, got[0].Time.Before(got[1].Time) && got[1].Time.Before(got[2].Time), "ascending order")
	})

	t.Run("limit larger than stored rows returns all rows, not an error", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewCandleRepository(db)

		for i := 0; i < 3; i++ {
			seedCandle(t, db, "AAPL", entity.Interval1Day, baseTime.AddDate(0, 0, i))
		}

		got, err := repo.Find(ctx, "AAPL", entity.Interval1Day, 5)
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("zero outputsize returns the full history ascending", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewCandleRepository(db)

		for i := 0; i < 4; i++ {
			seedCandle(t, db, "AAPL", entity.Interval1Day, baseTime.AddDate(0, 0, i))
		}

		got, err := repo.Find(ctx, "AAPL", entity.Interval1Day, 0)
		require.NoError(t, err)
		require.Len(t, got, 4)
		assert.Equal(t, baseTime.Unix(), got[0].Time.Unix())
	})

	t.Run("unknown symbol returns empty slice", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewCandleRepository(db)

		got, err := repo.Find(ctx, "NOPE", entity.Interval1Day, 10)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestCandleGorm_LastPeriodStart(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewCandleRepository(db)
	baseTime := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	last, err := repo.LastPeriodStart(ctx, "AAPL", entity.Interval1Day)
	require.NoError(t, err)
	assert.True(t, last.IsZero(), "no data yields zero time")

	seedCandle(t, db, "AAPL", entity.Interval1Day, baseTime)
	seedCandle(t, db, "AAPL", entity.Interval1Day, baseTime.AddDate(0, 0, 5))

	last, err = repo.LastPeriodStart(ctx, "AAPL", entity.Interval1Day)
	require.NoError(t, err)
	assert.Equal(t, baseTime.AddDate(0, 0, 5).Unix(), last.Unix())
}

func TestCandleGorm_Count(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewCandleRepository(db)
	baseTime := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	seedCandle(t, db, "AAPL", entity.Interval1Day, baseTime)
	seedCandle(t, db, "AAPL", entity.Interval1Day, baseTime.AddDate(0, 0, 1))
	seedCandle(t, db, "AAPL", entity.Interval1Week, baseTime)

	count, err := repo.Count(ctx, "AAPL", entity.Interval1Day)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
