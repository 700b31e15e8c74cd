package usecase

import (
	"time"

	"marketdata_backend/internal/feature/marketdata/domain/entity"
)

// fetchAction はFetch Plannerが決定する取得方針です。
type fetchAction int

const (
	// actionSkip はデータが十分新しいため取得をスキップします。
	actionSkip fetchAction = iota
	// actionIncremental は最終保存期間の次のステップ以降のみを要求します。
	actionIncremental
	// actionFull は保持期間全体を再取得します。
	actionFull
)

// fetchPlan は1回の (銘柄, 時間足) 同期の取得計画です。
type fetchPlan struct {
	action     fetchAction
	start      time.Time
	outputSize int
}

// planFetch は最終保存期間と鮮度記録から取得方針を決定します。
//
//   - データなし → フル取得
//   - 強制フルリフレッシュ → 鮮度に関係なくフル取得
//   - 最終成功からの経過が時間足ごとの閾値以内 → スキップ
//   - 週足 → 常にフル取得。週の途中のサンプルが別タイムスタンプで重複しないよう、
//     保存側で全週足を入れ替えるため部分取得はできません。
//   - それ以外 → 最終保存期間 + 1ステップからの増分取得
//
// 月足の取得計画は存在しません。月足は日足からの集計でのみ生成されます。
func planFetch(iv entity.Interval, lastPeriod time.Time, fresh entity.FreshnessRecord, force bool, now time.Time) fetchPlan {
	full := fetchPlan{
		action:     actionFull,
		start:      now.Add(-iv.Retention()),
		outputSize: iv.OutputSize(),
	}

	if force {
		return full
	}
	if lastPeriod.IsZero() {
		return full
	}
	if fresh.AgeMinutes(now) <= iv.Staleness().Minutes() {
		return fetchPlan{action: actionSkip}
	}
	if iv.Class() == entity.ClassWeekly {
		return full
	}
	return fetchPlan{
		action:     actionIncremental,
		start:      lastPeriod.Add(iv.Step()),
		outputSize: iv.OutputSize(),
	}
}
