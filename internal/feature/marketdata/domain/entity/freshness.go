package entity

import (
	"math"
	"time"
)

// FreshnessRecord は (銘柄, 時間足) ごとの取得鮮度の記録です。
// 最初の取得試行時に作成され、成功・失敗を問わず毎回更新されます。
type FreshnessRecord struct {
	Symbol                string
	Interval              Interval
	LastFetchedAt         time.Time
	LastSuccessfulFetchAt time.Time // ゼロ値 = 一度も成功していない
	FetchCount            int64
	ErrorCount            int64
	LastError             string
}

// AgeMinutes は最終成功取得からの経過時間を分で返します。
// 一度も成功していない場合は「無限に古い」ことを示す +Inf を返します。
func (f FreshnessRecord) AgeMinutes(now time.Time) float64 {
	if f.LastSuccessfulFetchAt.IsZero() {
		return math.Inf(1)
	}
	return now.Sub(f.LastSuccessfulFetchAt).Minutes()
}
