package cache

import (
	"time"
)

// TimeUntilNextMarketOpen は次の市場オープン（米国東部時間 09:30）までの期間を返します。
// キャッシュTTLが未設定の場合、新しいセッションのデータが入り始めるタイミングで
// キャッシュが切れるようにこの値を使います。
func TimeUntilNextMarketOpen() time.Duration {
	loc, _ := time.LoadLocation("America/New_York")
	now := time.Now().In(loc)

	// 次の09:30を計算
	nextOpen := time.Date(now.Year(), now.Month(), now.Day(), 9, 30, 0, 0, loc)

	// 今日の09:30が既に過ぎている場合は翌日の09:30を使用
	if now.After(nextOpen) {
		nextOpen = nextOpen.Add(24 * time.Hour)
	}

	return nextOpen.Sub(now)
}
