package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wyfcoding/papertrading/internal/user/domain"
	"github.com/wyfcoding/papertrading/internal/user/infrastructure/persistence"
)

func newAuthService(t *testing.T) (*AuthCommandService, domain.UserRepository) {
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

	if err := db.AutoMigrate(&domain.User{}, &domain.Session{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	users := persistence.NewUserRepository(db)
	sessions := persistence.NewSessionRepository(db)
	// MinCost 让测试里的 bcrypt 足够快
	svc := NewAuthCommandService(users, sessions, "test-secret", time.Hour, bcrypt.MinCost, decimal.NewFromInt(10000))
	return svc, users
}

func TestRegister(t *testing.T) {
	svc, users := newAuthService(t)
	ctx := context.Background()

	userID, err := svc.Register(ctx, RegisterCommand{Username: "alice", Password: "s3cret", Confirmation: "s3cret"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if userID == 0 {
		t.Fatal("Register() returned zero user ID")
	}

	user, err := users.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}
	if user == nil {
		t.Fatal("registered user not found")
	}
	if !user.Cash.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("initial cash = %s, want 10000", user.Cash)
	}
	if user.PasswordHash == "s3cret" {
		t.Error("password stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret")); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		cmd     RegisterCommand
		wantErr error
	}{
		{"empty username", RegisterCommand{Username: "  ", Password: "pw", Confirmation: "pw"}, domain.ErrEmptyUsername},
		{"empty password", RegisterCommand{Username: "bob", Password: "", Confirmation: ""}, domain.ErrEmptyPassword},
		{"missing confirmation", RegisterCommand{Username: "bob", Password: "pw", Confirmation: ""}, domain.ErrEmptyPassword},
		{"mismatched confirmation", RegisterCommand{Username: "bob", Password: "pw", Confirmation: "other"}, domain.ErrPasswordMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tt.cmd); !errors.Is(err, tt.wantErr) {
				t.Errorf("Register() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterCommand{Username: "alice", Password: "pw", Confirmation: "pw"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if _, err := svc.Register(ctx, RegisterCommand{Username: "alice", Password: "other", Confirmation: "other"}); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Errorf("Register(duplicate) error = %v, want ErrUsernameTaken", err)
	}
}

func TestLoginAndVerifyToken(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	userID, err := svc.Register(ctx, RegisterCommand{Username: "alice", Password: "s3cret", Confirmation: "s3cret"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	token, expiresAt, err := svc.Login(ctx, LoginCommand{Username: "alice", Password: "s3cret"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if token == "" {
		t.Fatal("Login() returned empty token")
	}
	if expiresAt <= time.Now().Unix() {
		t.Errorf("token already expired: %d", expiresAt)
	}

	gotUserID, sessionID, err := svc.VerifyToken(ctx, token)
	if err != nil {
		t.Fatalf("VerifyToken() error = %v", err)
	}
	if gotUserID != userID {
		t.Errorf("VerifyToken() user = %d, want %d", gotUserID, userID)
	}
	if sessionID == "" {
		t.Error("VerifyToken() returned empty session ID")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterCommand{Username: "alice", Password: "s3cret", Confirmation: "s3cret"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// 用户不存在与密码错误返回同一个错误，不泄露账号是否存在
	if _, _, err := svc.Login(ctx, LoginCommand{Username: "nobody", Password: "s3cret"}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("Login(unknown user) error = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := svc.Login(ctx, LoginCommand{Username: "alice", Password: "wrong"}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("Login(wrong password) error = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := svc.Login(ctx, LoginCommand{Username: "", Password: ""}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("Login(empty) error = %v, want ErrInvalidCredentials", err)
	}
}

func TestLogoutInvalidatesToken(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterCommand{Username: "alice", Password: "s3cret", Confirmation: "s3cret"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	token, _, err := svc.Login(ctx, LoginCommand{Username: "alice", Password: "s3cret"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	_, sessionID, err := svc.VerifyToken(ctx, token)
	if err != nil {
		t.Fatalf("VerifyToken() error = %v", err)
	}

	if err := svc.Logout(ctx, sessionID); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}

	// 会话删除后，令牌即便签名有效也必须被拒绝
	if _, _, err := svc.VerifyToken(ctx, token); err == nil {
		t.Error("VerifyToken() succeeded after logout")
	}
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	if _, _, err := svc.VerifyToken(ctx, "not-a-jwt"); err == nil {
		t.Error("VerifyToken(garbage) succeeded")
	}
	if _, _, err := svc.VerifyToken(ctx, ""); err == nil {
		t.Error("VerifyToken(empty) succeeded")
	}
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	svc, _ := newAuthService(t)
	other, _ := newAuthService(t)
	ctx := context.Background()

	if _, err := other.Register(ctx, RegisterCommand{Username: "alice", Password: "pw", Confirmation: "pw"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	other.jwtSecret = []byte("other-secret")
	token, _, err := other.Login(ctx, LoginCommand{Username: "alice", Password: "pw"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if _, _, err := svc.VerifyToken(ctx, token); err == nil {
		t.Error("VerifyToken() accepted token signed with a different secret")
	}
}
