package router

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"marketdata_backend/internal/feature/marketdata/transport/handler"
)

// NewRouter はアプリケーションの全ルートを登録したginエンジンを返します。
func NewRouter(candles *handler.CandlesHandler, sync *handler.SyncHandler,
	symbols *handler.SymbolHandler) *gin.Engine {
	r := gin.Default()

	// ブラウザのダッシュボードから叩けるようにCORSを許可
	r.Use(cors.Default())

	// 導通確認用
	r.GET("/healthz", handler.Health)

	// ローソク足の参照と鮮度
	r.GET("/candles/:code", candles.GetCandlesHandler)
	r.GET("/candles/:code/age", candles.GetAgeHandler)

	// 同期トリガー
	r.POST("/sync", sync.PostSyncMany)
	r.POST("/sync/:code", sync.PostSyncOne)

	// 銘柄マスタ
	r.GET("/symbols", symbols.List)
	r.DELETE("/symbols/:code", symbols.Delete)

	return r
}
