package application

// TradeDTO 成交回执
type TradeDTO struct {
	TransactionID string `json:"transaction_id"`
	Action        string `json:"action"`
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	Price         string `json:"price"`
	Shares        int64  `json:"shares"`
	TotalValue    string `json:"total_value"`
	CashBalance   string `json:"cash_balance"`
}
