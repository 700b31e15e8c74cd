package usecase

import (
	"log/slog"

	"marketdata_backend/internal/feature/marketdata/domain/entity"
)

// prepareBatch は外部ソースから取得した生サンプルを保存可能な形に整えます。
//
//  1. 銘柄コードと時間足を設定し、タイムスタンプを正規化された期間開始時刻へ丸める
//  2. 不正なサンプル（非有限・負の価格、高値<安値）を除外する
//  3. 同一期間キーへ正規化されたサンプルをfirst-seen-winsで重複排除する
//
// 戻り値は保存対象のローソク足と、除外された件数（検証エラー + 重複）です。
// 重複排除はUpsertの前に行うことで、冗長な書き込みを避けつつ除外件数を
// 呼び出し側から観測可能にします。
func prepareBatch(symbol string, iv entity.Interval, raw []entity.Candle) ([]entity.Candle, int) {
	out := make([]entity.Candle, 0, len(raw))
	seen := make(map[int64]struct{}, len(raw))
	filtered := 0

	for _, c := range raw {
		c.Symbol = symbol
		c.Interval = iv
		c.Time = iv.Normalize(c.Time)

		if err := c.Validate(); err != nil {
			filtered++
			slog.Warn("rejected malformed sample", "symbol", symbol, "interval", iv, "time", c.Time, "error", err)
			continue
		}

		key := c.Time.UnixNano()
		if _, dup := seen[key]; dup {
			// 先に現れたサンプルを採用し、後続の同一期間サンプルは捨てる
			filtered++
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out, filtered
}
