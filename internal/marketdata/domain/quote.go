// Package domain 行情模块的领域模型
package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrUnknownSymbol 行情源无法解析该代码（包含行情源不可用的情况）
var ErrUnknownSymbol = errors.New("unknown symbol")

// Quote 行情快照（值对象），每次请求实时获取，不落库不缓存
type Quote struct {
	// Symbol 股票代码
	Symbol string `json:"symbol"`
	// Name 证券名称
	Name string `json:"name"`
	// Price 即时价格
	Price decimal.Decimal `json:"price"`
}

// Value 按该报价计算 shares 股的市值
func (q *Quote) Value(shares int64) decimal.Decimal {
	return q.Price.Mul(decimal.NewFromInt(shares))
}

// QuoteProvider 行情源边界
// Lookup 解析失败时返回 ErrUnknownSymbol
type QuoteProvider interface {
	Lookup(ctx context.Context, symbol string) (*Quote, error)
}
