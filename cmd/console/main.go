package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/xela07ax/sentinel-secops/internal/advisor"
	"github.com/xela07ax/sentinel-secops/internal/console/handler"
	"github.com/xela07ax/sentinel-secops/internal/console/server"
	"github.com/xela07ax/sentinel-secops/internal/console/service"
	"github.com/xela07ax/sentinel-secops/internal/engine"
	"github.com/xela07ax/sentinel-secops/internal/infra"
	"github.com/xela07ax/sentinel-secops/internal/infra/auth"
	"github.com/xela07ax/sentinel-secops/internal/repository/postgres"
)

func main() {
	// 1. Конфигурация и логгер
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	// 2. Ресурсы
	db, err := postgres.Connect(cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal("database unreachable", zap.Error(err))
	}
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Ключи RS256: консоль и подписывает (private), и проверяет (public)
	privKey, err := auth.ParseRSAPrivateKey(cfg.Auth.PrivateKey)
	if err != nil {
		logger.Fatal("failed to parse private key", zap.Error(err))
	}
	pubKey, err := auth.ParseRSAPublicKey(cfg.Auth.PublicKey)
	if err != nil {
		logger.Fatal("failed to parse public key", zap.Error(err))
	}
	validator := auth.NewBaseValidator(pubKey)

	// 4. Хранилища и control plane
	eventRepo := postgres.NewEventRepo(db)
	attemptRepo := postgres.NewAttemptRepo(db)
	journalRepo := postgres.NewJournalRepo(db)
	userRepo := postgres.NewUserRepo(db)

	watchlist := engine.NewWatchlistManager(rdb, eventRepo, logger)
	if err := watchlist.Init(appCtx); err != nil {
		logger.Fatal("failed to init watchlist", zap.Error(err))
	}
	go watchlist.StartListener(appCtx)

	// 5. Advisor: gRPC-клиент за reliability-оберткой
	// (Retries, Circuit Breaker, Rate Limit)
	var adv service.Advisor
	conn, err := grpc.Dial(cfg.Engine.AdvisorAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		logger.Warn("advisor unreachable, using canned advice", zap.Error(err))
		adv = advisor.NewMockProvider()
	} else {
		defer conn.Close()
		adv = engine.NewReliabilityWrapper(
			advisor.NewGRPCClient(conn, cfg.Engine.AdvisorTimeout),
			engine.BreakerSettings{
				MaxRequests: cfg.Engine.CBMaxRequests,
				Interval:    cfg.Engine.CBInterval,
				Timeout:     cfg.Engine.CBTimeout,
			})
	}

	// 6. Слои (Dependency Injection)
	authService := service.NewAuthService(userRepo, privKey, cfg.Auth.TokenTTL)
	auditService := service.NewAuditService(eventRepo, attemptRepo, journalRepo)
	dashService := service.NewDashboardService(eventRepo, attemptRepo, watchlist, cfg.Engine.DashboardWindow)
	adviceService := service.NewAdviceService(eventRepo, adv)

	consoleSrv := server.NewConsoleServer(
		logger,
		validator,
		handler.NewAuthHandler(authService),
		handler.NewDashboardHandler(dashService),
		handler.NewAuditHandler(auditService),
		handler.NewWatchlistHandler(watchlist),
		handler.NewAdviceHandler(adviceService),
	)

	// 7. Запуск сервера
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      consoleSrv,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	logger.Info("console API started", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal("console server stopped", zap.Error(err))
	}
}
