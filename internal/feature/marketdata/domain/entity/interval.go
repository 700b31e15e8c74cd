// Package entity はmarketdataフィーチャーのドメインエンティティを定義します。
package entity

import (
	"fmt"
	"time"
)

// IntervalClass は時間足の分類です。正規化ルールと保持期間はクラス単位で決まります。
type IntervalClass string

const (
	ClassIntraday IntervalClass = "intraday"
	ClassDaily    IntervalClass = "daily"
	ClassWeekly   IntervalClass = "weekly"
	ClassMonthly  IntervalClass = "monthly"
)

// Interval はサポートする時間足の列挙です。
type Interval string

const (
	Interval1Min   Interval = "1min"
	Interval5Min   Interval = "5min"
	Interval15Min  Interval = "15min"
	Interval30Min  Interval = "30min"
	Interval60Min  Interval = "60min"
	Interval1Day   Interval = "1day"
	Interval1Week  Interval = "1week"
	Interval1Month Interval = "1month"
)

// 市場のオープン時刻。日足以上の期間開始タイムスタンプはこの時刻に揃えます。
const (
	marketOpenHour   = 9
	marketOpenMinute = 30
)

// intervalSpec は1つの時間足の正規化・取得ルールをまとめたカタログエントリです。
type intervalSpec struct {
	class IntervalClass
	// sourceCode は外部データソースへ渡す時間足コードです。
	sourceCode string
	// step は増分取得時に最終取得期間へ加算する論理1ステップです（月足は未使用）。
	step time.Duration
	// retention はこの時間足の保持期間です。フル取得時の遡り幅にもなります。
	retention time.Duration
	// staleness は再取得が必要になるまでの最終成功からの経過時間です。
	staleness time.Duration
	// outputSize は1回のフル取得で要求するデータ件数です。
	outputSize int
}

var intervalCatalog = map[Interval]intervalSpec{
	Interval1Min:   {class: ClassIntraday, sourceCode: "1min", step: time.Minute, retention: 60 * 24 * time.Hour, staleness: 2 * time.Minute, outputSize: 5000},
	Interval5Min:   {class: ClassIntraday, sourceCode: "5min", step: 5 * time.Minute, retention: 60 * 24 * time.Hour, staleness: 2 * time.Minute, outputSize: 5000},
	Interval15Min:  {class: ClassIntraday, sourceCode: "15min", step: 15 * time.Minute, retention: 60 * 24 * time.Hour, staleness: 2 * time.Minute, outputSize: 5000},
	Interval30Min:  {class: ClassIntraday, sourceCode: "30min", step: 30 * time.Minute, retention: 60 * 24 * time.Hour, staleness: 2 * time.Minute, outputSize: 5000},
	Interval60Min:  {class: ClassIntraday, sourceCode: "1h", step: time.Hour, retention: 2 * 365 * 24 * time.Hour, staleness: 2 * time.Minute, outputSize: 5000},
	Interval1Day:   {class: ClassDaily, sourceCode: "1day", step: 24 * time.Hour, retention: 20 * 365 * 24 * time.Hour, staleness: 6 * time.Hour, outputSize: 5000},
	Interval1Week:  {class: ClassWeekly, sourceCode: "1week", step: 7 * 24 * time.Hour, retention: 20 * 365 * 24 * time.Hour, staleness: 24 * time.Hour, outputSize: 1500},
	Interval1Month: {class: ClassMonthly, sourceCode: "1month", step: 31 * 24 * time.Hour, retention: 20 * 365 * 24 * time.Hour, staleness: 24 * time.Hour, outputSize: 500},
}

// AllIntervals はサポートする全時間足をカタログ定義順で返します。
func AllIntervals() []Interval {
	return []Interval{
		Interval1Min, Interval5Min, Interval15Min, Interval30Min,
		Interval60Min, Interval1Day, Interval1Week, Interval1Month,
	}
}

// ParseInterval は文字列をIntervalに変換します。未サポートの値はエラーを返します。
func ParseInterval(s string) (Interval, error) {
	iv := Interval(s)
	if _, ok := intervalCatalog[iv]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownInterval, s)
	}
	return iv, nil
}

// Valid はカタログに登録された時間足かどうかを返します。
func (i Interval) Valid() bool {
	_, ok := intervalCatalog[i]
	return ok
}

// Class は時間足の分類を返します。
func (i Interval) Class() IntervalClass {
	return intervalCatalog[i].class
}

// SourceCode は外部データソースに渡す時間足コードを返します。
func (i Interval) SourceCode() string {
	return intervalCatalog[i].sourceCode
}

// Step は増分取得の論理1ステップを返します。
func (i Interval) Step() time.Duration {
	return intervalCatalog[i].step
}

// Retention はこの時間足のデータ保持期間を返します。
func (i Interval) Retention() time.Duration {
	return intervalCatalog[i].retention
}

// Staleness は再取得が必要になる最終成功からの経過時間の閾値を返します。
func (i Interval) Staleness() time.Duration {
	return intervalCatalog[i].staleness
}

// OutputSize はフル取得1回あたりの要求件数を返します。
func (i Interval) OutputSize() int {
	return intervalCatalog[i].outputSize
}

// Normalize は生サンプルのタイムスタンプをこの時間足の正規化された期間開始時刻へ
// 丸めます。(タイムスタンプ, 時間足) のみに依存する純粋関数であり、重複排除と
// Upsertのキー生成の基盤になります。
//
//   - 分足・時間足: バケット＝その時刻そのものなので変更しません。
//   - 日足: 同じ日付のサンプルが同一バケットになるよう、市場オープン時刻に揃えます。
//   - 週足: その日付以前の直近の月曜日に丸めます。日曜日は取引がないため翌週の
//     月曜日へ進めます。月〜金の生サンプルは同一の期間開始時刻に収束します。
//   - 月足: 月初1日に丸めたあと、土日をスキップして最初の平日まで進めます。
//     データソースが月内のどの日付を報告しても安定したアンカーが得られます。
func (i Interval) Normalize(t time.Time) time.Time {
	switch i.Class() {
	case ClassDaily:
		return atMarketOpen(t)
	case ClassWeekly:
		d := t
		if d.Weekday() == time.Sunday {
			d = d.AddDate(0, 0, 1)
		} else {
			// Monday=0 .. Saturday=5 になるよう月曜日起点のオフセットを取る
			offset := (int(d.Weekday()) + 6) % 7
			d = d.AddDate(0, 0, -offset)
		}
		return atMarketOpen(d)
	case ClassMonthly:
		d := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
		for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			d = d.AddDate(0, 0, 1)
		}
		return atMarketOpen(d)
	default:
		return t
	}
}

// atMarketOpen は与えられた時刻の日付を維持したまま市場オープン時刻に設定します。
func atMarketOpen(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), marketOpenHour, marketOpenMinute, 0, 0, t.Location())
}
