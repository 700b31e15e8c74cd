package adapters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketdata_backend/internal/feature/marketdata/domain/entity"
)

func TestFreshnessGorm_Get_NoRecord(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewFreshnessRepository(db)

	rec, err := repo.Get(ctx, "AAPL", entity.Interval1Day)
	require.NoError(t, err, "missing record is not an error")
	assert.Equal(t, "AAPL", rec.Symbol)
	assert.True(t, rec.LastSuccessfulFetchAt.IsZero())
	assert.Zero(t, rec.FetchCount)
}

func TestFreshnessGorm_Record(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("success updates both timestamps and clears lastError", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewFreshnessRepository(db)
		now := time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)
		repo.now = func() time.Time { return now }

		require.NoError(t, repo.Record(ctx, "AAPL", entity.Interval1Day, false, errors.New("boom")))
		require.NoError(t, repo.Record(ctx, "AAPL", entity.Interval1Day, true, nil))

		rec, err := repo.Get(ctx, "AAPL", entity.Interval1Day)
		require.NoError(t, err)
		assert.Equal(t, int64(2), rec.FetchCount)
		assert.Equal(t, int64(1), rec.ErrorCount)
		assert.Equal(t, now.Unix(), rec.LastSuccessfulFetchAt.Unix())
		assert.Empty(t, rec.LastError, "success clears the last failure message")
	})

	t.Run("failure preserves prior success timestamp", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewFreshnessRepository(db)

		successAt := time.Date(2024, 3, 6, 6, 0, 0, 0, time.UTC)
		repo.now = func() time.Time { return successAt }
		require.NoError(t, repo.Record(ctx, "AAPL", entity.Interval1Day, true, nil))

		failAt := time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)
		repo.now = func() time.Time { return failAt }
		require.NoError(t, repo.Record(ctx, "AAPL", entity.Interval1Day, false, errors.New("network timeout")))

		rec, err := repo.Get(ctx, "AAPL", entity.Interval1Day)
		require.NoError(t, err)
		assert.Equal(t, successAt.Unix(), rec.LastSuccessfulFetchAt.Unix(), "failed fetch must never erase last known-good freshness")
		assert.Equal(t, failAt.Unix(), rec.LastFetchedAt.Unix())
		assert.Equal(t, "network timeout", rec.LastError)
		assert.Equal(t, int64(2), rec.FetchCount)
		assert.Equal(t, int64(1), rec.ErrorCount)
	})

	t.Run("records are kept per symbol and interval", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewFreshnessRepository(db)

		require.NoError(t, repo.Record(ctx, "AAPL", entity.Interval1Day, true, nil))
		require.NoError(t, repo.Record(ctx, "AAPL", entity.Interval1Week, false, errors.New("boom")))
		require.NoError(t, repo.Record(ctx, "GOOG", entity.Interval1Day, true, nil))

		var count int64
		db.Model(&FreshnessModel{}).Count(&count)
		assert.Equal(t, int64(3), count)

		daily, err := repo.Get(ctx, "AAPL", entity.Interval1Day)
		require.NoError(t, err)
		assert.Zero(t, daily.ErrorCount)

		weekly, err := repo.Get(ctx, "AAPL", entity.Interval1Week)
		require.NoError(t, err)
		assert.Equal(t, int64(1), weekly.ErrorCount)
	})

	t.Run("long error message is truncated", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewFreshnessRepository(db)

		long := make([]byte, maxLastErrorLen*2)
		for i := range long {
			long[i] = 'x'
		}
		require.NoError(t, repo.Record(ctx, "AAPL", entity.Interval1Day, false, errors.New(string(long))))

		rec, err := repo.Get(ctx, "AAPL", entity.Interval1Day)
		require.NoError(t, err)
		assert.Len(t, rec.LastError, maxLastErrorLen)
	})
}
