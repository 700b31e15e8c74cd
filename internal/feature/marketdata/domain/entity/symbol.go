package entity

import "time"

// Symbol は銘柄の識別情報です。最初の参照時に get-or-create で作成され、
// 明示的なパージ以外では削除されません。
type Symbol struct {
	Code      string
	Name      string
	Exchange  string
	Type      string
	IsActive  bool
	SortKey   int
	UpdatedAt time.Time
}
