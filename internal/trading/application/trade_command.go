package application

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	ledgerdomain "github.com/wyfcoding/papertrading/internal/ledger/domain"
	marketdomain "github.com/wyfcoding/papertrading/internal/marketdata/domain"
	"github.com/wyfcoding/papertrading/internal/trading/domain"
	userdomain "github.com/wyfcoding/papertrading/internal/user/domain"
	"github.com/wyfcoding/papertrading/pkg/contextx"
	"github.com/wyfcoding/papertrading/pkg/idgen"
)

// TradeCommand 买入/卖出命令
type TradeCommand struct {
	UserID uint
	Symbol string
	Shares int64
}

// TradeCommandService 处理交易结算。
// 结算 = 追加一条流水 + 更新现金余额，两者在同一数据库事务中提交，
// 任何校验失败都不会触及账本与余额。
type TradeCommandService struct {
	users  userdomain.UserRepository
	ledger ledgerdomain.TransactionRepository
	quotes marketdomain.QuoteProvider
	db     *gorm.DB // 用于开启事务
}

func NewTradeCommandService(
	users userdomain.UserRepository,
	ledger ledgerdomain.TransactionRepository,
	quotes marketdomain.QuoteProvider,
	db *gorm.DB,
) *TradeCommandService {
	return &TradeCommandService{
		users:  users,
		ledger: ledger,
		quotes: quotes,
		db:     db,
	}
}

// Buy 处理买入
func (s *TradeCommandService) Buy(ctx context.Context, cmd TradeCommand) (*TradeDTO, error) {
	symbol, err := validate(cmd)
	if err != nil {
		return nil, err
	}

	// 行情源只调用一次，失败即拒绝，无重试
	quote, err := s.quotes.Lookup(ctx, symbol)
	if err != nil {
		return nil, err
	}

	cost := quote.Value(cmd.Shares)

	var dto *TradeDTO
	err = s.db.Transaction(func(tx *gorm.DB) error {
		txCtx := contextx.WithTx(ctx, tx)

		// 1. Load（事务内重读余额，不信任事务外的读取）
		user, err := s.users.GetByID(txCtx, cmd.UserID)
		if err != nil {
			return err
		}
		if user == nil {
			return domain.ErrUserNotFound
		}

		// 2. Domain Logic
		if ok := user.Debit(cost); !ok {
			return &domain.InsufficientFundsError{Cash: user.Cash, Cost: cost}
		}

		// 3. Save：流水与余额同一事务提交
		transaction := &ledgerdomain.Transaction{
			TransactionID: idgen.NewID("TXN"),
			UserID:        user.ID,
			Action:        ledgerdomain.ActionBuy,
			Symbol:        quote.Symbol,
			Name:          quote.Name,
			Price:         quote.Price,
			Shares:        cmd.Shares,
		}
		if err := s.ledger.Append(txCtx, transaction); err != nil {
			return err
		}
		if err := s.users.Save(txCtx, user); err != nil {
			return err
		}

		dto = toDTO(transaction, user.Cash)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "buy settled",
		"user_id", cmd.UserID, "symbol", symbol, "shares", cmd.Shares, "price", quote.Price)
	return dto, nil
}

// Sell 处理卖出
// 净持仓在结算事务内重新计算，不使用任何先前读取的持仓快照
func (s *TradeCommandService) Sell(ctx context.Context, cmd TradeCommand) (*TradeDTO, error) {
	symbol, err := validate(cmd)
	if err != nil {
		return nil, err
	}

	quote, err := s.quotes.Lookup(ctx, symbol)
	if err != nil {
		return nil, err
	}

	proceeds := quote.Value(cmd.Shares)

	var dto *TradeDTO
	err = s.db.Transaction(func(tx *gorm.DB) error {
		txCtx := contextx.WithTx(ctx, tx)

		owned, err := s.ledger.NetShares(txCtx, cmd.UserID, quote.Symbol)
		if err != nil {
			return err
		}
		if cmd.Shares > owned {
			return &domain.OverSellError{Symbol: quote.Symbol, Owned: owned, Requested: cmd.Shares}
		}

		user, err := s.users.GetByID(txCtx, cmd.UserID)
		if err != nil {
			return err
		}
		if user == nil {
			return domain.ErrUserNotFound
		}

		user.Credit(proceeds)

		transaction := &ledgerdomain.Transaction{
			TransactionID: idgen.NewID("TXN"),
			UserID:        user.ID,
			Action:        ledgerdomain.ActionSell,
			Symbol:        quote.Symbol,
			Name:          quote.Name,
			Price:         quote.Price,
			Shares:        cmd.Shares,
		}
		if err := s.ledger.Append(txCtx, transaction); err != nil {
			return err
		}
		if err := s.users.Save(txCtx, user); err != nil {
			return err
		}

		dto = toDTO(transaction, user.Cash)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "sell settled",
		"user_id", cmd.UserID, "symbol", symbol, "shares", cmd.Shares, "price", quote.Price)
	return dto, nil
}

func validate(cmd TradeCommand) (string, error) {
	symbol := strings.ToUpper(strings.TrimSpace(cmd.Symbol))
	if symbol == "" {
		return "", domain.ErrEmptySymbol
	}
	if cmd.Shares <= 0 {
		return "", domain.ErrInvalidShares
	}
	return symbol, nil
}

func toDTO(t *ledgerdomain.Transaction, cash decimal.Decimal) *TradeDTO {
	return &TradeDTO{
		TransactionID: t.TransactionID,
		Action:        t.Action,
		Symbol:        t.Symbol,
		Name:          t.Name,
		Price:         t.Price.StringFixed(2),
		Shares:        t.Shares,
		TotalValue:    t.TotalValue().StringFixed(2),
		CashBalance:   cash.StringFixed(2),
	}
}
