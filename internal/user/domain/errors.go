package domain

import "errors"

var (
	// ErrEmptyUsername 用户名为空
	ErrEmptyUsername = errors.New("username must not be empty")
	// ErrEmptyPassword 密码或确认密码为空
	ErrEmptyPassword = errors.New("password and confirmation must not be empty")
	// ErrPasswordMismatch 两次输入的密码不一致
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrUsernameTaken 用户名已被注册
	ErrUsernameTaken = errors.New("username already exists")
	// ErrInvalidCredentials 登录失败统一返回，不区分用户不存在与密码错误
	ErrInvalidCredentials = errors.New("invalid username or password")
)
