package application

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	ledgerdomain "github.com/wyfcoding/papertrading/internal/ledger/domain"
	ledgerpersistence "github.com/wyfcoding/papertrading/internal/ledger/infrastructure/persistence"
	marketdomain "github.com/wyfcoding/papertrading/internal/marketdata/domain"
	"github.com/wyfcoding/papertrading/internal/trading/domain"
	userdomain "github.com/wyfcoding/papertrading/internal/user/domain"
	userpersistence "github.com/wyfcoding/papertrading/internal/user/infrastructure/persistence"
)

type fakeQuoteProvider struct {
	quotes map[string]*marketdomain.Quote
}

func (f *fakeQuoteProvider) Lookup(_ context.Context, symbol string) (*marketdomain.Quote, error) {
	quote, ok := f.quotes[strings.ToUpper(strings.TrimSpace(symbol))]
	if !ok {
		return nil, marketdomain.ErrUnknownSymbol
	}
	return quote, nil
}

func (f *fakeQuoteProvider) set(symbol, name string, price int64) {
	f.quotes[symbol] = &marketdomain.Quote{
		Symbol: symbol,
		Name:   name,
		Price:  decimal.NewFromInt(price),
	}
}

type fixture struct {
	db     *gorm.DB
	users  userdomain.UserRepository
	ledger ledgerdomain.TransactionRepository
	quotes *fakeQuoteProvider
	svc    *TradeCommandService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&userdomain.User{}, &ledgerdomain.Transaction{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	users := userpersistence.NewUserRepository(db)
	ledger := ledgerpersistence.NewTransactionRepository(db)
	quotes := &fakeQuoteProvider{quotes: map[string]*marketdomain.Quote{}}

	return &fixture{
		db:     db,
		users:  users,
		ledger: ledger,
		quotes: quotes,
		svc:    NewTradeCommandService(users, ledger, quotes, db),
	}
}

func (f *fixture) createUser(t *testing.T, cash int64) *userdomain.User {
	t.Helper()
	user := userdomain.NewUser("alice", "hash", decimal.NewFromInt(cash))
	if err := f.users.Save(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func (f *fixture) reload(t *testing.T, id uint) *userdomain.User {
	t.Helper()
	user, err := f.users.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	if user == nil {
		t.Fatalf("user %d disappeared", id)
	}
	return user
}

func (f *fixture) ledgerRows(t *testing.T, userID uint) []*ledgerdomain.Transaction {
	t.Helper()
	rows, err := f.ledger.ListByUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("failed to list ledger: %v", err)
	}
	return rows
}

func TestBuySettlement(t *testing.T) {
	f := newFixture(t)
	user := f.createUser(t, 10000)
	f.quotes.set("AAA", "AAA Corp", 50)

	dto, err := f.svc.Buy(context.Background(), TradeCommand{UserID: user.ID, Symbol: "aaa", Shares: 10})
	if err != nil {
		t.Fatalf("Buy() error = %v", err)
	}

	if dto.CashBalance != "9500.00" {
		t.Errorf("dto.CashBalance = %s, want 9500.00", dto.CashBalance)
	}
	if !f.reload(t, user.ID).Cash.Equal(decimal.NewFromInt(9500)) {
		t.Errorf("cash after buy = %s, want 9500", f.reload(t, user.ID).Cash)
	}

	rows := f.ledgerRows(t, user.ID)
	if len(rows) != 1 {
		t.Fatalf("ledger rows = %d, want 1", len(rows))
	}
	row := rows[0]
	if row.Action != ledgerdomain.ActionBuy || row.Symbol != "AAA" || row.Shares != 10 || !row.Price.Equal(decimal.NewFromInt(50)) {
		t.Errorf("unexpected ledger row: %+v", row)
	}
}

func TestSellSettlementClosesPosition(t *testing.T) {
	f := newFixture(t)
	user := f.createUser(t, 10000)
	f.quotes.set("AAA", "AAA Corp", 50)

	if _, err := f.svc.Buy(context.Background(), TradeCommand{UserID: user.ID, Symbol: "AAA", Shares: 10}); err != nil {
		t.Fatalf("Buy() error = %v", err)
	}

	// 卖出价与买入价不同，现金按卖出时点价格增加
	f.quotes.set("AAA", "AAA Corp", 60)
	dto, err := f.svc.Sell(context.Background(), TradeCommand{UserID: user.ID, Symbol: "AAA", Shares: 10})
	if err != nil {
		t.Fatalf("Sell() error = %v", err)
	}

	if dto.CashBalance != "10100.00" {
		t.Errorf("dto.CashBalance = %s, want 10100.00", dto.CashBalance)
	}
	if !f.reload(t, user.ID).Cash.Equal(decimal.NewFromInt(10100)) {
		t.Errorf("cash after sell = %s, want 10100", f.reload(t, user.ID).Cash)
	}

	// 净持仓归零后从组合中消失
	holdings, err := f.ledger.NetHoldings(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("NetHoldings() error = %v", err)
	}
	if len(holdings) != 0 {
		t.Errorf("holdings after full sell = %+v, want empty", holdings)
	}
}

func TestBuyRejectedInsufficientFunds(t *testing.T) {
	f := newFixture(t)
	user := f.createUser(t, 100)
	f.quotes.set("AAA", "AAA Corp", 50)

	_, err := f.svc.Buy(context.Background(), TradeCommand{UserID: user.ID, Symbol: "AAA", Shares: 10})

	var insufficientFunds *domain.InsufficientFundsError
	if !errors.As(err, &insufficientFunds) {
		t.Fatalf("Buy() error = %v, want InsufficientFundsError", err)
	}
	if !insufficientFunds.Cash.Equal(decimal.NewFromInt(100)) || !insufficientFunds.Cost.Equal(decimal.NewFromInt(500)) {
		t.Errorf("InsufficientFundsError = %+v, want cash 100 cost 500", insufficientFunds)
	}

	if !f.reload(t, user.ID).Cash.Equal(decimal.NewFromInt(100)) {
		t.Errorf("cash changed on rejected buy")
	}
	if rows := f.ledgerRows(t, user.ID); len(rows) != 0 {
		t.Errorf("ledger rows on rejected buy = %d, want 0", len(rows))
	}
}

func TestSellRejectedOverSell(t *testing.T) {
	f := newFixture(t)
	user := f.createUser(t, 10000)
	f.quotes.set("BBB", "BBB Corp", 20)

	_, err := f.svc.Sell(context.Background(), TradeCommand{UserID: user.ID, Symbol: "BBB", Shares: 5})

	var overSell *domain.OverSellError
	if !errors.As(err, &overSell) {
		t.Fatalf("Sell() error = %v, want OverSellError", err)
	}
	if overSell.Owned != 0 || overSell.Requested != 5 {
		t.Errorf("OverSellError = %+v, want owned 0 requested 5", overSell)
	}

	if !f.reload(t, user.ID).Cash.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("cash changed on rejected sell")
	}
	if rows := f.ledgerRows(t, user.ID); len(rows) != 0 {
		t.Errorf("ledger rows on rejected sell = %d, want 0", len(rows))
	}
}

func TestSellRejectedPartialOverSell(t *testing.T) {
	f := newFixture(t)
	user := f.createUser(t, 10000)
	f.quotes.set("AAA", "AAA Corp", 50)

	if _, err := f.svc.Buy(context.Background(), TradeCommand{UserID: user.ID, Symbol: "AAA", Shares: 3}); err != nil {
		t.Fatalf("Buy() error = %v", err)
	}

	_, err := f.svc.Sell(context.Background(), TradeCommand{UserID: user.ID, Symbol: "AAA", Shares: 4})

	var overSell *domain.OverSellError
	if !errors.As(err, &overSell) {
		t.Fatalf("Sell() error = %v, want OverSellError", err)
	}
	if overSell.Owned != 3 {
		t.Errorf("OverSellError.Owned = %d, want 3", overSell.Owned)
	}
}

func TestTradeValidation(t *testing.T) {
	f := newFixture(t)
	user := f.createUser(t, 10000)
	f.quotes.set("AAA", "AAA Corp", 50)

	tests := []struct {
		name    string
		cmd     TradeCommand
		wantErr error
	}{
		{"zero shares", TradeCommand{UserID: user.ID, Symbol: "AAA", Shares: 0}, domain.ErrInvalidShares},
		{"negative shares", TradeCommand{UserID: user.ID, Symbol: "AAA", Shares: -3}, domain.ErrInvalidShares},
		{"empty symbol", TradeCommand{UserID: user.ID, Symbol: "   ", Shares: 1}, domain.ErrEmptySymbol},
		{"unknown symbol", TradeCommand{UserID: user.ID, Symbol: "NOPE", Shares: 1}, marketdomain.ErrUnknownSymbol},
	}

	for _, tt := range tests {
		t.Run("buy "+tt.name, func(t *testing.T) {
			if _, err := f.svc.Buy(context.Background(), tt.cmd); !errors.Is(err, tt.wantErr) {
				t.Errorf("Buy() error = %v, want %v", err, tt.wantErr)
			}
		})
		t.Run("sell "+tt.name, func(t *testing.T) {
			if _, err := f.svc.Sell(context.Background(), tt.cmd); !errors.Is(err, tt.wantErr) {
				t.Errorf("Sell() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	// 所有拒绝路径均无状态变更
	if !f.reload(t, user.ID).Cash.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("cash changed by rejected trades")
	}
	if rows := f.ledgerRows(t, user.ID); len(rows) != 0 {
		t.Errorf("ledger rows after rejected trades = %d, want 0", len(rows))
	}
}

func TestSellRecomputesHoldingsAtSettlement(t *testing.T) {
	f := newFixture(t)
	user := f.createUser(t, 10000)
	f.quotes.set("AAA", "AAA Corp", 50)

	if _, err := f.svc.Buy(context.Background(), TradeCommand{UserID: user.ID, Symbol: "AAA", Shares: 10}); err != nil {
		t.Fatalf("Buy() error = %v", err)
	}
	// 第一次卖出后净持仓变为 4，随后按旧快照卖 10 股必须被拒绝
	if _, err := f.svc.Sell(context.Background(), TradeCommand{UserID: user.ID, Symbol: "AAA", Shares: 6}); err != nil {
		t.Fatalf("Sell() error = %v", err)
	}

	_, err := f.svc.Sell(context.Background(), TradeCommand{UserID: user.ID, Symbol: "AAA", Shares: 10})
	var overSell *domain.OverSellError
	if !errors.As(err, &overSell) {
		t.Fatalf("Sell() error = %v, want OverSellError", err)
	}
	if overSell.Owned != 4 {
		t.Errorf("OverSellError.Owned = %d, want 4", overSell.Owned)
	}
}
