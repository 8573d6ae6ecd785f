package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	marketdomain "github.com/wyfcoding/papertrading/internal/marketdata/domain"
	"github.com/wyfcoding/papertrading/internal/portfolio/application"
	tradingdomain "github.com/wyfcoding/papertrading/internal/trading/domain"
	"github.com/wyfcoding/papertrading/pkg/logger"
	"github.com/wyfcoding/papertrading/pkg/middleware"
	"github.com/wyfcoding/papertrading/pkg/response"
)

// PortfolioHandler 负责处理组合、历史与报价的只读请求
type PortfolioHandler struct {
	query *application.PortfolioQueryService
}

func NewPortfolioHandler(query *application.PortfolioQueryService) *PortfolioHandler {
	return &PortfolioHandler{query: query}
}

// RegisterRoutes 注册路由（挂在鉴权组下）
func (h *PortfolioHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/v1/portfolio", h.GetPortfolio)
	r.GET("/v1/history", h.GetHistory)
	r.GET("/v1/quote/:symbol", h.GetQuote)
}

func (h *PortfolioHandler) GetPortfolio(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.ErrorWithStatus(c, http.StatusUnauthorized, "authentication required")
		return
	}

	dto, err := h.query.GetPortfolio(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, marketdomain.ErrUnknownSymbol) {
			// 持有的代码报价失败，行情源此刻不可用
			response.ErrorWithStatus(c, http.StatusBadGateway, "quote provider unavailable")
			return
		}
		logger.Error(c.Request.Context(), "failed to build portfolio", "user_id", userID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error())
		return
	}

	response.Success(c, dto)
}

func (h *PortfolioHandler) GetHistory(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.ErrorWithStatus(c, http.StatusUnauthorized, "authentication required")
		return
	}

	dtos, err := h.query.GetHistory(c.Request.Context(), userID)
	if err != nil {
		logger.Error(c.Request.Context(), "failed to list history", "user_id", userID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error())
		return
	}

	response.Success(c, gin.H{"transactions": dtos})
}

func (h *PortfolioHandler) GetQuote(c *gin.Context) {
	dto, err := h.query.GetQuote(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		switch {
		case errors.Is(err, tradingdomain.ErrEmptySymbol):
			response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, marketdomain.ErrUnknownSymbol):
			response.ErrorWithStatus(c, http.StatusNotFound, "stock symbol does not exist")
		default:
			response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error())
		}
		return
	}

	response.Success(c, dto)
}
