package domain

import "context"

// TransactionRepository 交易流水仓储接口
type TransactionRepository interface {
	// Append 追加一条流水
	Append(ctx context.Context, transaction *Transaction) error
	// ListByUser 按 symbol、时间顺序返回用户全部流水
	ListByUser(ctx context.Context, userID uint) ([]*Transaction, error)
	// NetHoldings 由全部流水推导净持仓，净持仓 <= 0 的代码不出现在结果中
	NetHoldings(ctx context.Context, userID uint) ([]Holding, error)
	// NetShares 单个代码的净持仓，未持有时返回 0
	NetShares(ctx context.Context, userID uint, symbol string) (int64, error)
}
