package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	marketdomain "github.com/wyfcoding/papertrading/internal/marketdata/domain"
	"github.com/wyfcoding/papertrading/internal/trading/application"
	"github.com/wyfcoding/papertrading/internal/trading/domain"
	"github.com/wyfcoding/papertrading/pkg/logger"
	"github.com/wyfcoding/papertrading/pkg/metrics"
	"github.com/wyfcoding/papertrading/pkg/middleware"
	"github.com/wyfcoding/papertrading/pkg/response"
)

// TradeHandler 负责处理买入/卖出 HTTP 请求
type TradeHandler struct {
	cmd *application.TradeCommandService
	m   *metrics.Metrics
}

func NewTradeHandler(cmd *application.TradeCommandService, m *metrics.Metrics) *TradeHandler {
	return &TradeHandler{cmd: cmd, m: m}
}

// RegisterRoutes 注册路由（挂在鉴权组下）
func (h *TradeHandler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/v1/trades")
	g.POST("/buy", h.Buy)
	g.POST("/sell", h.Sell)
}

type tradeRequest struct {
	Symbol string `json:"symbol"`
	Shares int64  `json:"shares"`
}

func (h *TradeHandler) Buy(c *gin.Context) {
	h.execute(c, h.cmd.Buy)
}

func (h *TradeHandler) Sell(c *gin.Context) {
	h.execute(c, h.cmd.Sell)
}

type settleFunc func(ctx context.Context, cmd application.TradeCommand) (*application.TradeDTO, error)

func (h *TradeHandler) execute(c *gin.Context, settle settleFunc) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.ErrorWithStatus(c, http.StatusUnauthorized, "authentication required")
		return
	}

	var req tradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}

	dto, err := settle(c.Request.Context(), application.TradeCommand{
		UserID: userID,
		Symbol: req.Symbol,
		Shares: req.Shares,
	})
	if err != nil {
		h.rejected(c, err)
		return
	}

	if h.m != nil {
		h.m.TradesSettledTotal.Inc()
	}
	response.Success(c, dto)
}

// rejected 将结算错误映射为客户端状态码，所有拒绝路径均无状态变更
func (h *TradeHandler) rejected(c *gin.Context, err error) {
	var insufficientFunds *domain.InsufficientFundsError
	var overSell *domain.OverSellError

	switch {
	case errors.Is(err, domain.ErrInvalidShares), errors.Is(err, domain.ErrEmptySymbol):
		h.countRejection()
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, marketdomain.ErrUnknownSymbol):
		h.countRejection()
		response.ErrorWithStatus(c, http.StatusNotFound, "stock symbol does not exist")
	case errors.As(err, &insufficientFunds), errors.As(err, &overSell):
		h.countRejection()
		response.ErrorWithStatus(c, http.StatusUnprocessableEntity, err.Error())
	default:
		logger.Error(c.Request.Context(), "trade settlement failed", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error())
	}
}

func (h *TradeHandler) countRejection() {
	if h.m != nil {
		h.m.TradesRejectedTotal.Inc()
	}
}
