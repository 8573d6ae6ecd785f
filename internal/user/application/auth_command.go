package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/wyfcoding/papertrading/internal/user/domain"
	"github.com/wyfcoding/papertrading/pkg/idgen"
)

// RegisterCommand 注册命令
type RegisterCommand struct {
	Username     string
	Password     string
	Confirmation string
}

// LoginCommand 登录命令
type LoginCommand struct {
	Username string
	Password string
}

// AuthCommandService 处理注册、登录、登出与令牌校验。
type AuthCommandService struct {
	users       domain.UserRepository
	sessions    domain.SessionRepository
	jwtSecret   []byte
	sessionTTL  time.Duration
	bcryptCost  int
	defaultCash decimal.Decimal
}

func NewAuthCommandService(
	users domain.UserRepository,
	sessions domain.SessionRepository,
	jwtSecret string,
	sessionTTL time.Duration,
	bcryptCost int,
	defaultCash decimal.Decimal,
) *AuthCommandService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthCommandService{
		users:       users,
		sessions:    sessions,
		jwtSecret:   []byte(jwtSecret),
		sessionTTL:  sessionTTL,
		bcryptCost:  bcryptCost,
		defaultCash: defaultCash,
	}
}

// Register 处理用户注册
func (s *AuthCommandService) Register(ctx context.Context, cmd RegisterCommand) (uint, error) {
	username := strings.TrimSpace(cmd.Username)
	if username == "" {
		return 0, domain.ErrEmptyUsername
	}
	if cmd.Password == "" || cmd.Confirmation == "" {
		return 0, domain.ErrEmptyPassword
	}
	if cmd.Password != cmd.Confirmation {
		return 0, domain.ErrPasswordMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), s.bcryptCost)
	if err != nil {
		return 0, fmt.Errorf("failed to hash password: %w", err)
	}

	var user *domain.User
	err = s.users.WithTx(ctx, func(txCtx context.Context) error {
		existing, err := s.users.GetByUsername(txCtx, username)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrUsernameTaken
		}

		user = domain.NewUser(username, string(hash), s.defaultCash)
		return s.users.Save(txCtx, user)
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "user registered", "user_id", user.ID, "username", username)
	return user.ID, nil
}

// Login 处理用户登录，成功时创建会话并返回令牌
func (s *AuthCommandService) Login(ctx context.Context, cmd LoginCommand) (string, int64, error) {
	if cmd.Username == "" || cmd.Password == "" {
		return "", 0, domain.ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, cmd.Username)
	if err != nil {
		return "", 0, err
	}
	if user == nil {
		return "", 0, domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(cmd.Password)); err != nil {
		return "", 0, domain.ErrInvalidCredentials
	}

	expiresAt := time.Now().Add(s.sessionTTL)
	session := &domain.Session{
		SessionID: idgen.NewID("SES"),
		UserID:    user.ID,
		ExpiresAt: expiresAt,
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return "", 0, err
	}

	token, err := s.signToken(user.ID, session.SessionID, expiresAt)
	if err != nil {
		return "", 0, err
	}

	return token, expiresAt.Unix(), nil
}

// Logout 删除会话，令牌随之失效
func (s *AuthCommandService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

// VerifyToken 校验令牌签名与会话有效性，返回归属用户
func (s *AuthCommandService) VerifyToken(ctx context.Context, token string) (uint, string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return 0, "", errors.New("invalid token")
	}

	session, err := s.sessions.Get(ctx, claims.ID)
	if err != nil {
		return 0, "", err
	}
	if session == nil || session.Expired(time.Now()) {
		return 0, "", errors.New("session expired")
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || uint(userID) != session.UserID {
		return 0, "", errors.New("invalid token subject")
	}

	return session.UserID, session.SessionID, nil
}

func (s *AuthCommandService) signToken(userID uint, sessionID string, expiresAt time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		ID:        sessionID,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}
