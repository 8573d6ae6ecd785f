package domain

import (
	"time"

	"gorm.io/gorm"
)

// Session 登录会话
// 行存在即会话有效，登出删除该行
type Session struct {
	gorm.Model
	SessionID string    `gorm:"column:session_id;type:varchar(32);uniqueIndex;not null" json:"session_id"`
	UserID    uint      `gorm:"column:user_id;index;not null" json:"user_id"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null" json:"expires_at"`
}

func (Session) TableName() string { return "sessions" }

// Expired 会话是否已过期
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
