// Package dto はmarketdataフィーチャーのHTTPリクエスト/レスポンスDTOを定義します。
package dto

// CandleResponse はロウソク足データのレスポンスDTOです。
type CandleResponse struct {
	Time   string  `json:"time"`   // 期間開始（日足以上は日付、分足は日時）
	Open   float64 `json:"open"`   // 始値
	High   float64 `json:"high"`   // 高値
	Low    float64 `json:"low"`    // 安値
	Close  float64 `json:"close"`  // 終値
	Volume int64   `json:"volume"` // 出来高
}

// AgeResponse は (銘柄, 時間足) のデータ鮮度のレスポンスDTOです。
// AgeMinutesは一度も取得に成功していない場合 -1 になります。
type AgeResponse struct {
	Symbol                string  `json:"symbol"`
	Interval              string  `json:"interval"`
	AgeMinutes            float64 `json:"age_minutes"`
	LastSuccessfulFetchAt string  `json:"last_successful_fetch_at,omitempty"` // RFC3339、未取得なら省略
	DataPointCount        int64   `json:"data_point_count"`
}

// SymbolItem は銘柄一覧のレスポンスDTOです。
type SymbolItem struct {
	Code string `json:"code"`
	Name string `json:"name,omitempty"`
}

// PurgeResponse は銘柄削除のレスポンスDTOです。
type PurgeResponse struct {
	Code    string `json:"code"`
	Deleted int64  `json:"deleted"` // 削除された行数（銘柄・ローソク足・鮮度記録の合計）
}

// ErrorResponse はエラーレスポンスDTOです。
type ErrorResponse struct {
	Error string `json:"error"`
}
