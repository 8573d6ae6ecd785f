package infrastructure

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/wyfcoding/papertrading/internal/marketdata/domain"
	"github.com/wyfcoding/papertrading/pkg/metrics"
)

// quotePayload IEX 风格的报价响应
type quotePayload struct {
	Symbol      string          `json:"symbol"`
	CompanyName string          `json:"companyName"`
	LatestPrice decimal.Decimal `json:"latestPrice"`
}

// HTTPQuoteProvider 通过 HTTP 行情 API 获取实时报价
type HTTPQuoteProvider struct {
	client   *resty.Client
	apiToken string
	m        *metrics.Metrics
}

func NewHTTPQuoteProvider(baseURL, apiToken string, timeout time.Duration, m *metrics.Metrics) *HTTPQuoteProvider {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout)

	return &HTTPQuoteProvider{
		client:   client,
		apiToken: apiToken,
		m:        m,
	}
}

// Lookup 查询单个代码的实时报价
// 每次操作只调用一次，不重试；任何失败对调用方统一表现为 ErrUnknownSymbol
func (p *HTTPQuoteProvider) Lookup(ctx context.Context, symbol string) (*domain.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, domain.ErrUnknownSymbol
	}

	if p.m != nil {
		p.m.QuoteLookupsTotal.Inc()
	}

	var payload quotePayload
	resp, err := p.client.R().
		SetContext(ctx).
		SetPathParam("symbol", symbol).
		SetQueryParam("token", p.apiToken).
		SetResult(&payload).
		Get("/stock/{symbol}/quote")
	if err != nil {
		p.recordFailure()
		return nil, fmt.Errorf("quote lookup for %s: %w", symbol, domain.ErrUnknownSymbol)
	}
	if resp.StatusCode() != http.StatusOK {
		p.recordFailure()
		return nil, fmt.Errorf("quote lookup for %s (status %d): %w", symbol, resp.StatusCode(), domain.ErrUnknownSymbol)
	}
	if payload.Symbol == "" || !payload.LatestPrice.IsPositive() {
		p.recordFailure()
		return nil, fmt.Errorf("quote lookup for %s: %w", symbol, domain.ErrUnknownSymbol)
	}

	return &domain.Quote{
		Symbol: payload.Symbol,
		Name:   payload.CompanyName,
		Price:  payload.LatestPrice,
	}, nil
}

func (p *HTTPQuoteProvider) recordFailure() {
	if p.m != nil {
		p.m.QuoteLookupFailures.Inc()
	}
}
