package dto

// BatchSyncRequest は一括同期のリクエストDTOです。
// Symbolsが空の場合はアクティブな全銘柄、Intervalsが空の場合はデフォルトの
// 時間足セットが対象になります。
type BatchSyncRequest struct {
	Symbols   []string `json:"symbols"`
	Intervals []string `json:"intervals"`
	Force     bool     `json:"force"`
}

// SyncResponse は1つの (銘柄, 時間足) 同期結果のレスポンスDTOです。
type SyncResponse struct {
	Symbol    string `json:"symbol"`
	Interval  string `json:"interval"`
	Status    string `json:"status"` // updated / up_to_date / no_new_data / failed
	NewPoints int    `json:"new_points"`
	Filtered  int    `json:"filtered"`
	Error     string `json:"error,omitempty"`
}

// BatchSyncResponse は一括同期結果のレスポンスDTOです。
type BatchSyncResponse struct {
	Updated        int            `json:"updated"`
	UpToDate       int            `json:"up_to_date"`
	Failed         int            `json:"failed"`
	TotalNewPoints int            `json:"total_new_points"`
	Results        []SyncResponse `json:"results"`
}
