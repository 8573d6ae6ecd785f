package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	ledgerdomain "github.com/wyfcoding/papertrading/internal/ledger/domain"
	ledgerpersistence "github.com/wyfcoding/papertrading/internal/ledger/infrastructure/persistence"
	marketinfra "github.com/wyfcoding/papertrading/internal/marketdata/infrastructure"
	portfolioapp "github.com/wyfcoding/papertrading/internal/portfolio/application"
	portfoliohttp "github.com/wyfcoding/papertrading/internal/portfolio/interfaces/http"
	tradingapp "github.com/wyfcoding/papertrading/internal/trading/application"
	tradinghttp "github.com/wyfcoding/papertrading/internal/trading/interfaces/http"
	userapp "github.com/wyfcoding/papertrading/internal/user/application"
	userdomain "github.com/wyfcoding/papertrading/internal/user/domain"
	userpersistence "github.com/wyfcoding/papertrading/internal/user/infrastructure/persistence"
	userhttp "github.com/wyfcoding/papertrading/internal/user/interfaces/http"
	"github.com/wyfcoding/papertrading/pkg/config"
	"github.com/wyfcoding/papertrading/pkg/db"
	"github.com/wyfcoding/papertrading/pkg/logger"
	"github.com/wyfcoding/papertrading/pkg/metrics"
	"github.com/wyfcoding/papertrading/pkg/middleware"
)

var configPath = flag.String("config", "configs/config.toml", "config file path")

func main() {
	flag.Parse()

	// 1. 初始化配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 2. 初始化日志
	if err := logger.Init(cfg.Logger); err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}
	ctx := context.Background()

	// 3. 初始化指标
	metricsImpl := metrics.New("server")
	if cfg.Metrics.Enabled {
		if err := metricsImpl.Register(); err != nil {
			logger.Fatal(ctx, "failed to register metrics", "error", err)
		}
		metrics.StartHTTPServer(cfg.Metrics.Port, cfg.Metrics.Path)
	}

	// 4. 初始化数据库
	database, err := db.Init(db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to connect database", "error", err)
	}
	defer database.Close()

	if err := database.AutoMigrate(
		&userdomain.User{},
		&userdomain.Session{},
		&ledgerdomain.Transaction{},
	); err != nil {
		logger.Fatal(ctx, "failed to migrate database", "error", err)
	}

	// 5. 初始化仓储与行情源
	userRepo := userpersistence.NewUserRepository(database.DB)
	sessionRepo := userpersistence.NewSessionRepository(database.DB)
	transactionRepo := ledgerpersistence.NewTransactionRepository(database.DB)
	quoteProvider := marketinfra.NewHTTPQuoteProvider(
		cfg.Quote.BaseURL,
		cfg.Quote.APIToken,
		time.Duration(cfg.Quote.Timeout)*time.Second,
		metricsImpl,
	)

	// 6. 初始化应用服务
	defaultCash, err := cfg.Auth.DefaultCashDecimal()
	if err != nil {
		logger.Fatal(ctx, "invalid default cash", "error", err)
	}
	authSvc := userapp.NewAuthCommandService(
		userRepo,
		sessionRepo,
		cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.SessionTTL)*time.Hour,
		cfg.Auth.BcryptCost,
		defaultCash,
	)
	tradeSvc := tradingapp.NewTradeCommandService(userRepo, transactionRepo, quoteProvider, database.DB)
	portfolioSvc := portfolioapp.NewPortfolioQueryService(userRepo, transactionRepo, quoteProvider)

	// 7. 初始化接口层
	gin.SetMode(gin.ReleaseMode)
	if cfg.Server.Environment == "dev" {
		gin.SetMode(gin.DebugMode)
	}
	r := gin.New()
	r.Use(
		middleware.GinRecoveryMiddleware(),
		middleware.GinLoggingMiddleware(),
		middleware.GinCORSMiddleware(),
		middleware.GinMetricsMiddleware(metricsImpl),
	)

	api := r.Group("/api")
	authHandler := userhttp.NewAuthHandler(authSvc, metricsImpl)
	authHandler.RegisterPublicRoutes(api)

	protected := r.Group("/api")
	protected.Use(middleware.GinAuthMiddleware(authSvc))
	authHandler.RegisterProtectedRoutes(protected)
	tradinghttp.NewTradeHandler(tradeSvc, metricsImpl).RegisterRoutes(protected)
	portfoliohttp.NewPortfolioHandler(portfolioSvc).RegisterRoutes(protected)

	// 8. 启动服务与优雅关闭
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info(ctx, "HTTP server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			logger.Info(ctx, "shutting down server...")
		case <-gCtx.Done():
			logger.Info(ctx, "context cancelled, shutting down...")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error(ctx, "server exited with error", "error", err)
	}
}
