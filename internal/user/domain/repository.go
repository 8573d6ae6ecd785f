package domain

import "context"

// UserRepository 用户仓储接口
type UserRepository interface {
	// Save 保存或更新用户
	Save(ctx context.Context, user *User) error
	// GetByUsername 根据用户名获取用户，不存在时返回 (nil, nil)
	GetByUsername(ctx context.Context, username string) (*User, error)
	// GetByID 根据 ID 获取用户，不存在时返回 (nil, nil)
	GetByID(ctx context.Context, id uint) (*User, error)
	// WithTx 在单个事务中执行 fn，事务句柄通过 context 传递
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// SessionRepository 会话仓储接口
type SessionRepository interface {
	Save(ctx context.Context, session *Session) error
	// Get 根据会话 ID 获取会话，不存在时返回 (nil, nil)
	Get(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error
}
