package entity

import (
	"fmt"
	"math"
	"time"
)

// Candle は1本のローソク足（OHLCV観測値）です。
// Time は正規化された期間開始時刻で、(Symbol, Interval, Time) が一意キーになります。
type Candle struct {
	Symbol   string
	Interval Interval
	Time     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   int64
}

// Validate はサンプルとして不正なローソク足を検出します。
// 価格が非有限・負、または高値が安値を下回る場合に ErrInvalidSample を返します。
// 不正サンプルは保存対象から除外されますが、バッチ全体は中断しません。
func (c Candle) Validate() error {
	prices := [...]struct {
		name  string
		value float64
	}{
		{"open", c.Open},
		{"high", c.High},
		{"low", c.Low},
		{"close", c.Close},
	}
	for _, p := range prices {
		if math.IsNaN(p.value) || math.IsInf(p.value, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidSample, p.name)
		}
		if p.value < 0 {
			return fmt.Errorf("%w: %s is negative (%g)", ErrInvalidSample, p.name, p.value)
		}
	}
	if c.High < c.Low {
		return fmt.Errorf("%w: high %g < low %g", ErrInvalidSample, c.High, c.Low)
	}
	return nil
}
