package application

// PositionDTO 单个持仓的估值视图
type PositionDTO struct {
	Symbol     string `json:"symbol"`
	Name       string `json:"name"`
	Shares     int64  `json:"shares"`
	Price      string `json:"price"`
	TotalValue string `json:"total_value"`
}

// PortfolioDTO 投资组合视图
type PortfolioDTO struct {
	Positions  []PositionDTO `json:"positions"`
	Cash       string        `json:"cash"`
	TotalValue string        `json:"total_value"`
}

// TransactionDTO 流水历史视图
type TransactionDTO struct {
	TransactionID string `json:"transaction_id"`
	Action        string `json:"action"`
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	Price         string `json:"price"`
	Shares        int64  `json:"shares"`
	TotalValue    string `json:"total_value"`
	ExecutedAt    int64  `json:"executed_at"`
}

// QuoteDTO 报价视图
type QuoteDTO struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Price  string `json:"price"`
}
