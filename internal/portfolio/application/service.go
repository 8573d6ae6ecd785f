package application

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	ledgerdomain "github.com/wyfcoding/papertrading/internal/ledger/domain"
	marketdomain "github.com/wyfcoding/papertrading/internal/marketdata/domain"
	tradingdomain "github.com/wyfcoding/papertrading/internal/trading/domain"
	userdomain "github.com/wyfcoding/papertrading/internal/user/domain"
)

// PortfolioQueryService 只读视图：持仓估值、报价与流水历史。
// 持仓每次请求都从账本重新推导，不做任何缓存，保证派生状态与账本恒一致。
type PortfolioQueryService struct {
	users  userdomain.UserRepository
	ledger ledgerdomain.TransactionRepository
	quotes marketdomain.QuoteProvider
}

func NewPortfolioQueryService(
	users userdomain.UserRepository,
	ledger ledgerdomain.TransactionRepository,
	quotes marketdomain.QuoteProvider,
) *PortfolioQueryService {
	return &PortfolioQueryService{
		users:  users,
		ledger: ledger,
		quotes: quotes,
	}
}

// GetPortfolio 返回净持仓及实时估值
func (s *PortfolioQueryService) GetPortfolio(ctx context.Context, userID uint) (*PortfolioDTO, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, tradingdomain.ErrUserNotFound
	}

	holdings, err := s.ledger.NetHoldings(ctx, userID)
	if err != nil {
		return nil, err
	}

	positions := make([]PositionDTO, 0, len(holdings))
	positionsValue := decimal.Zero
	for _, holding := range holdings {
		quote, err := s.quotes.Lookup(ctx, holding.Symbol)
		if err != nil {
			return nil, err
		}
		value := quote.Value(holding.Shares)
		positionsValue = positionsValue.Add(value)
		positions = append(positions, PositionDTO{
			Symbol:     holding.Symbol,
			Name:       holding.Name,
			Shares:     holding.Shares,
			Price:      quote.Price.StringFixed(2),
			TotalValue: value.StringFixed(2),
		})
	}

	return &PortfolioDTO{
		Positions:  positions,
		Cash:       user.Cash.StringFixed(2),
		TotalValue: user.Cash.Add(positionsValue).StringFixed(2),
	}, nil
}

// GetHistory 返回用户全部流水
func (s *PortfolioQueryService) GetHistory(ctx context.Context, userID uint) ([]TransactionDTO, error) {
	transactions, err := s.ledger.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	dtos := make([]TransactionDTO, 0, len(transactions))
	for _, t := range transactions {
		dtos = append(dtos, TransactionDTO{
			TransactionID: t.TransactionID,
			Action:        t.Action,
			Symbol:        t.Symbol,
			Name:          t.Name,
			Price:         t.Price.StringFixed(2),
			Shares:        t.Shares,
			TotalValue:    t.TotalValue().StringFixed(2),
			ExecutedAt:    t.CreatedAt.Unix(),
		})
	}
	return dtos, nil
}

// GetQuote 查询单个代码的实时报价
func (s *PortfolioQueryService) GetQuote(ctx context.Context, symbol string) (*QuoteDTO, error) {
	if strings.TrimSpace(symbol) == "" {
		return nil, tradingdomain.ErrEmptySymbol
	}

	quote, err := s.quotes.Lookup(ctx, symbol)
	if err != nil {
		return nil, err
	}

	return &QuoteDTO{
		Symbol: quote.Symbol,
		Name:   quote.Name,
		Price:  quote.Price.StringFixed(2),
	}, nil
}
