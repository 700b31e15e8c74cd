package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"marketdata_backend/internal/feature/marketdata/domain/entity"
	"marketdata_backend/internal/feature/marketdata/transport/http/dto"
)

// SymbolsUsecase は銘柄マスタのユースケースインターフェースを定義します。
type SymbolsUsecase interface {
	List(ctx context.Context) ([]entity.Symbol, error)
	Purge(ctx context.Context, code string) (int64, error)
}

// SymbolHandler は銘柄マスタのHTTPリクエストを処理します。
type SymbolHandler struct {
	uc SymbolsUsecase
}

// NewSymbolHandler は指定されたusecaseでSymbolHandlerの新しいインスタンスを生成します。
func NewSymbolHandler(uc SymbolsUsecase) *SymbolHandler {
	return &SymbolHandler{uc: uc}
}

// List はアクティブな銘柄の一覧を返します。
//
// エンドポイント例:
// GET /symbols
func (h *SymbolHandler) List(c *gin.Context) {
	symbols, err := h.uc.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	out := make([]dto.SymbolItem, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, dto.SymbolItem{Code: s.Code, Name: s.Name})
	}
	c.JSON(http.StatusOK, out)
}

// Delete は銘柄と、そのローソク足・鮮度記録をすべて削除します。
//
// エンドポイント例:
// DELETE /symbols/:code
func (h *SymbolHandler) Delete(c *gin.Context) {
	code := c.Param("code")

	deleted, err := h.uc.Purge(c.Request.Context(), code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if deleted == 0 {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "unknown symbol: " + code})
		return
	}
	c.JSON(http.StatusOK, dto.PurgeResponse{Code: code, Deleted: deleted})
}
