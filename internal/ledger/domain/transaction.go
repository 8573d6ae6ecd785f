// Package domain 交易流水（账本）模块的领域模型
package domain

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 交易方向
const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
)

// Transaction 交易流水实体
// 账本只追加：行一旦写入不再修改或删除，持仓永远由流水推导
type Transaction struct {
	gorm.Model
	// 交易 ID（业务主键）
	TransactionID string `gorm:"column:transaction_id;type:varchar(32);uniqueIndex;not null" json:"transaction_id"`
	// 归属用户
	UserID uint `gorm:"column:user_id;index;not null" json:"user_id"`
	// 方向（BUY / SELL）
	Action string `gorm:"column:action;type:varchar(4);not null" json:"action"`
	// 股票代码
	Symbol string `gorm:"column:symbol;type:varchar(16);not null" json:"symbol"`
	// 证券名称（成交时点的快照）
	Name string `gorm:"column:name;type:varchar(128);not null" json:"name"`
	// 成交价格（成交时点）
	Price decimal.Decimal `gorm:"column:price;type:decimal(20,4);not null" json:"price"`
	// 成交股数，正整数
	Shares int64 `gorm:"column:shares;not null" json:"shares"`
}

func (Transaction) TableName() string { return "transactions" }

// TotalValue 该笔交易的成交金额
func (t *Transaction) TotalValue() decimal.Decimal {
	return t.Price.Mul(decimal.NewFromInt(t.Shares))
}

// Holding 净持仓（派生值，不落库）
// Shares = Σ(BUY shares) − Σ(SELL shares)，只保留 > 0 的代码
type Holding struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Shares int64  `json:"shares"`
}
