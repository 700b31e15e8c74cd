package entity

import "errors"

var (
	// ErrInvalidSample は検証で弾かれた不正なOHLCサンプルを表します。
	// 該当行はスキップしてカウントするだけで、バッチは中断しません。
	ErrInvalidSample = errors.New("invalid sample")

	// ErrInsufficientData は集計元となる日足データが存在しないことを表します。
	// エラーではなくソフトなno-opとして扱います。
	ErrInsufficientData = errors.New("insufficient daily data")

	// ErrUnknownSymbol は未登録の銘柄コードを表します。
	ErrUnknownSymbol = errors.New("unknown symbol")

	// ErrUnknownInterval はカタログに存在しない時間足コードを表します。
	ErrUnknownInterval = errors.New("unsupported interval")
)
