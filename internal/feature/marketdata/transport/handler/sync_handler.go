package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"marketdata_backend/internal/feature/marketdata/domain/entity"
	"marketdata_backend/internal/feature/marketdata/transport/http/dto"
	"marketdata_backend/internal/feature/marketdata/usecase"
)

// defaultSyncIntervals は時間足未指定の同期リクエストで使うセットです。
// 分足はオンデマンド取得が前提なので一括同期には含めません。
var defaultSyncIntervals = []entity.Interval{
	entity.Interval1Day,
	entity.Interval1Week,
	entity.Interval1Month,
}

// SyncUsecase は同期編成のユースケースインターフェースを定義します。
type SyncUsecase interface {
	SyncOne(ctx context.Context, symbol string, iv entity.Interval, force bool) usecase.SyncResult
	SyncMany(ctx context.Context, symbols []string, intervals []entity.Interval, force bool) usecase.BatchResult
}

// SymbolCodesLister はアクティブ銘柄コードの一覧取得を抽象化します。
// 一括同期で対象銘柄が省略された場合に使います。
type SymbolCodesLister interface {
	ListActiveCodes(ctx context.Context) ([]string, error)
}

// SyncHandler は同期トリガーのHTTPリクエストを処理します。
type SyncHandler struct {
	uc      SyncUsecase
	symbols SymbolCodesLister
}

// NewSyncHandler は指定されたusecaseでSyncHandlerの新しいインスタンスを生成します。
func NewSyncHandler(uc SyncUsecase, symbols SymbolCodesLister) *SyncHandler {
	return &SyncHandler{uc: uc, symbols: symbols}
}

// PostSyncOne は1つの (銘柄, 時間足) の同期を実行します。
//
// エンドポイント例:
// POST /sync/:code?interval=1day&force=true
func (h *SyncHandler) PostSyncOne(c *gin.Context) {
	code := c.Param("code")
	interval := c.DefaultQuery("interval", string(usecase.DefaultInterval))
	// 解釈できない値はforce無しとして扱う
	force, _ := strconv.ParseBool(c.DefaultQuery("force", "false"))

	iv, err := entity.ParseInterval(interval)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	res := h.uc.SyncOne(c.Request.Context(), code, iv, force)
	status := http.StatusOK
	if res.Status == usecase.StatusFailed {
		status = http.StatusBadGateway
	}
	c.JSON(status, toSyncResponse(res))
}

// PostSyncMany は複数銘柄の一括同期を実行します。ボディは省略可能で、
// その場合はアクティブな全銘柄をデフォルトの時間足セットで同期します。
//
// エンドポイント例:
// POST /sync
// POST /sync {"symbols":["AAPL"],"intervals":["1day"],"force":true}
func (h *SyncHandler) PostSyncMany(c *gin.Context) {
	var req dto.BatchSyncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
			return
		}
	}

	intervals := defaultSyncIntervals
	if len(req.Intervals) > 0 {
		intervals = make([]entity.Interval, 0, len(req.Intervals))
		for _, s := range req.Intervals {
			iv, err := entity.ParseInterval(s)
			if err != nil {
				c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
				return
			}
			intervals = append(intervals, iv)
		}
	}

	symbols := req.Symbols
	if len(symbols) == 0 {
		var err error
		symbols, err = h.symbols.ListActiveCodes(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
			return
		}
	}

	batch := h.uc.SyncMany(c.Request.Context(), symbols, intervals, req.Force)

	out := dto.BatchSyncResponse{
		Updated:        len(batch.Updated),
		UpToDate:       len(batch.UpToDate),
		Failed:         len(batch.Failed),
		TotalNewPoints: batch.TotalNewPoints,
		Results:        make([]dto.SyncResponse, 0, len(batch.Updated)+len(batch.UpToDate)+len(batch.Failed)),
	}
	for _, group := range [][]usecase.SyncResult{batch.Updated, batch.UpToDate, batch.Failed} {
		for _, res := range group {
			out.Results = append(out.Results, toSyncResponse(res))
		}
	}

	c.JSON(http.StatusOK, out)
}

func toSyncResponse(res usecase.SyncResult) dto.SyncResponse {
	out := dto.SyncResponse{
		Symbol:    res.Symbol,
		Interval:  string(res.Interval),
		Status:    string(res.Status),
		NewPoints: res.NewPoints,
		Filtered:  res.Filtered,
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return out
}
