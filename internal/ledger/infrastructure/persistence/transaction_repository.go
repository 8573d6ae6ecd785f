package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/wyfcoding/papertrading/internal/ledger/domain"
	"github.com/wyfcoding/papertrading/pkg/contextx"
)

type transactionRepository struct{ db *gorm.DB }

// NewTransactionRepository 创建交易流水仓储
func NewTransactionRepository(db *gorm.DB) domain.TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Append(ctx context.Context, transaction *domain.Transaction) error {
	return r.getDB(ctx).WithContext(ctx).Create(transaction).Error
}

func (r *transactionRepository) ListByUser(ctx context.Context, userID uint) ([]*domain.Transaction, error) {
	var transactions []*domain.Transaction
	err := r.getDB(ctx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("symbol, created_at").
		Find(&transactions).Error
	if err != nil {
		return nil, err
	}
	return transactions, nil
}

func (r *transactionRepository) NetHoldings(ctx context.Context, userID uint) ([]domain.Holding, error) {
	var holdings []domain.Holding
	err := r.getDB(ctx).WithContext(ctx).
		Model(&domain.Transaction{}).
		Select("symbol, MAX(name) AS name, SUM(CASE WHEN action = ? THEN shares ELSE -shares END) AS shares", domain.ActionBuy).
		Where("user_id = ?", userID).
		Group("symbol").
		Having("SUM(CASE WHEN action = ? THEN shares ELSE -shares END) > 0", domain.ActionBuy).
		Order("symbol").
		Scan(&holdings).Error
	if err != nil {
		return nil, err
	}
	return holdings, nil
}

func (r *transactionRepository) NetShares(ctx context.Context, userID uint, symbol string) (int64, error) {
	var net int64
	err := r.getDB(ctx).WithContext(ctx).
		Model(&domain.Transaction{}).
		Select("COALESCE(SUM(CASE WHEN action = ? THEN shares ELSE -shares END), 0)", domain.ActionBuy).
		Where("user_id = ? AND symbol = ?", userID, symbol).
		Scan(&net).Error
	if err != nil {
		return 0, err
	}
	return net, nil
}

func (r *transactionRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok {
		return tx
	}
	return r.db
}
