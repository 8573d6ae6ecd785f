// Package domain 用户模块的领域模型
package domain

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// User 用户实体
// 现金余额只允许由交易结算变更
type User struct {
	gorm.Model
	// 用户名，全局唯一
	Username string `gorm:"column:username;type:varchar(64);uniqueIndex;not null" json:"username"`
	// 密码哈希（bcrypt）
	PasswordHash string `gorm:"column:password_hash;type:varchar(128);not null" json:"-"`
	// 现金余额
	Cash decimal.Decimal `gorm:"column:cash;type:decimal(20,4);not null;default:0" json:"cash"`
}

func (User) TableName() string { return "users" }

// NewUser 创建带初始现金的新用户
func NewUser(username, passwordHash string, cash decimal.Decimal) *User {
	return &User{
		Username:     username,
		PasswordHash: passwordHash,
		Cash:         cash,
	}
}

// Debit 扣减现金，余额不足时返回 false 且不变更
func (u *User) Debit(amount decimal.Decimal) bool {
	next := u.Cash.Sub(amount)
	if next.IsNegative() {
		return false
	}
	u.Cash = next
	return true
}

// Credit 增加现金
func (u *User) Credit(amount decimal.Decimal) {
	u.Cash = u.Cash.Add(amount)
}
