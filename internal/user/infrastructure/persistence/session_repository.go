package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/wyfcoding/papertrading/internal/user/domain"
	"github.com/wyfcoding/papertrading/pkg/contextx"
)

type sessionRepository struct{ db *gorm.DB }

// NewSessionRepository 创建会话仓储
func NewSessionRepository(db *gorm.DB) domain.SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Save(ctx context.Context, session *domain.Session) error {
	return r.getDB(ctx).WithContext(ctx).Create(session).Error
}

func (r *sessionRepository) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	var session domain.Session
	err := r.getDB(ctx).WithContext(ctx).Where("session_id = ?", sessionID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) Delete(ctx context.Context, sessionID string) error {
	return r.getDB(ctx).WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&domain.Session{}).Error
}

func (r *sessionRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok {
		return tx
	}
	return r.db
}
