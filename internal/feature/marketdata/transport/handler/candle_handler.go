// Package handler はmarketdataフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"marketdata_backend/internal/feature/marketdata/domain/entity"
	"marketdata_backend/internal/feature/marketdata/transport/http/dto"
	"marketdata_backend/internal/feature/marketdata/usecase"
)

// CandlesUsecase はローソク足データ参照のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type CandlesUsecase interface {
	GetCandles(ctx context.Context, symbol, interval string, outputsize int) ([]entity.Candle, error)
	Age(ctx context.Context, symbol, interval string) (usecase.AgeInfo, error)
}

// CandlesHandler はローソク足データのHTTPリクエストを処理します。
type CandlesHandler struct {
	uc CandlesUsecase
}

// NewCandlesHandler は指定されたusecaseでCandlesHandlerの新しいインスタンスを生成します。
func NewCandlesHandler(uc CandlesUsecase) *CandlesHandler {
	return &CandlesHandler{uc: uc}
}

// GetCandlesHandler は銘柄コードと時間間隔を受け取り、ローソク足データを
// 古い順のJSONで返します。
//
// エンドポイント例:
// GET /candles/:code?interval=1day&outputsize=200
func (h *CandlesHandler) GetCandlesHandler(c *gin.Context) {
	code := c.Param("code")
	// 未指定の場合はデフォルト値を使用
	interval := c.DefaultQuery("interval", string(usecase.DefaultInterval))
	outputsizeStr := c.DefaultQuery("outputsize", strconv.Itoa(usecase.DefaultOutputSize))
	// 文字列を整数に変換。変換失敗時の0はusecase側でデフォルト値に補正される
	outputsize, _ := strconv.Atoi(outputsizeStr)

	candles, err := h.uc.GetCandles(c.Request.Context(), code, interval, outputsize)
	if err != nil {
		if errors.Is(err, entity.ErrUnknownInterval) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: err.Error()})
		return
	}

	layout := timeLayoutFor(interval)
	out := make([]dto.CandleResponse, 0, len(candles))
	for _, x := range candles {
		out = append(out, dto.CandleResponse{
			Time:   x.Time.UTC().Format(layout),
			Open:   x.Open,
			High:   x.High,
			Low:    x.Low,
			Close:  x.Close,
			Volume: x.Volume,
		})
	}

	c.JSON(http.StatusOK, out)
}

// GetAgeHandler は (銘柄, 時間足) のデータ鮮度を返します。
//
// エンドポイント例:
// GET /candles/:code/age?interval=1day
func (h *CandlesHandler) GetAgeHandler(c *gin.Context) {
	code := c.Param("code")
	interval := c.DefaultQuery("interval", string(usecase.DefaultInterval))

	info, err := h.uc.Age(c.Request.Context(), code, interval)
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrUnknownInterval):
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		case errors.Is(err, entity.ErrUnknownSymbol):
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		}
		return
	}

	res := dto.AgeResponse{
		Symbol:         code,
		Interval:       interval,
		AgeMinutes:     info.AgeMinutes,
		DataPointCount: info.DataPointCount,
	}
	// 未取得（+Inf）はJSONで表現できないため-1で返す
	if math.IsInf(info.AgeMinutes, 1) {
		res.AgeMinutes = -1
	}
	if !info.LastSuccessfulFetchAt.IsZero() {
		res.LastSuccessfulFetchAt = info.LastSuccessfulFetchAt.UTC().Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, res)
}

// timeLayoutFor は時間足に応じたレスポンスの日時フォーマットを返します。
// 分足は時刻まで、日足以上は日付のみを返します。
func timeLayoutFor(interval string) string {
	iv, err := entity.ParseInterval(interval)
	if err == nil && iv.Class() == entity.ClassIntraday {
		return "2006-01-02 15:04:05"
	}
	return "2006-01-02"
}
