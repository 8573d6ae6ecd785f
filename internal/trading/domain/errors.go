// Package domain 交易结算的错误分类
package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidShares 股数必须为正整数
	ErrInvalidShares = errors.New("number of shares must be a positive integer")
	// ErrEmptySymbol 股票代码为空
	ErrEmptySymbol = errors.New("stock symbol must not be empty")
	// ErrUserNotFound 用户不存在
	ErrUserNotFound = errors.New("user not found")
)

// InsufficientFundsError 买入金额超出现金余额
// 携带当前余额与所需金额，供调用方展示
type InsufficientFundsError struct {
	Cash decimal.Decimal
	Cost decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient cash balance: current balance %s, total cost %s",
		e.Cash.StringFixed(2), e.Cost.StringFixed(2))
}

// OverSellError 卖出股数超过净持仓
type OverSellError struct {
	Symbol    string
	Owned     int64
	Requested int64
}

func (e *OverSellError) Error() string {
	return fmt.Sprintf("cannot sell %d shares of %s: only %d owned",
		e.Requested, e.Symbol, e.Owned)
}
