package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xela07ax/sentinel-secops/internal/alert"
	"github.com/xela07ax/sentinel-secops/internal/audit"
	"github.com/xela07ax/sentinel-secops/internal/classifier"
	"github.com/xela07ax/sentinel-secops/internal/engine"
	"github.com/xela07ax/sentinel-secops/internal/infra"
	"github.com/xela07ax/sentinel-secops/internal/infra/auth"
	"github.com/xela07ax/sentinel-secops/internal/policy"
	"github.com/xela07ax/sentinel-secops/internal/repository/postgres"
	"github.com/xela07ax/sentinel-secops/internal/vault"
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

	// 2. Инфраструктура и ресурсы
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
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Fatal("redis unreachable", zap.Error(err))
	}
	pingCancel()

	// Контекст жизненного цикла фоновых горутин
	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Хранилища
	eventRepo := postgres.NewEventRepo(db)
	attemptRepo := postgres.NewAttemptRepo(db)
	assetRepo := postgres.NewAssetRepo(db)
	journalRepo := postgres.NewJournalRepo(db)

	cryptoVault := vault.New(cfg.Vault.KeyPath, logger)
	blobStore, err := vault.NewBlobStore(cfg.Vault.BlobDir, cfg.Vault.BackupDir, logger)
	if err != nil {
		logger.Fatal("failed to init blob store", zap.Error(err))
	}

	// 4. Аудит: синхронный trail + асинхронный операционный журнал
	trail := audit.NewTrail(eventRepo, attemptRepo, logger)
	journal := audit.NewJournal(journalRepo,
		cfg.Engine.JournalBufferSize, 100, cfg.Engine.JournalFlushInterval, logger)
	journal.Start()

	// 5. Классификатор: модели опциональны, fallback всегда на месте
	binary := loadModel(cfg.Engine.BinaryModelPath, "binary", logger)
	subtype := loadModel(cfg.Engine.SubtypeModelPath, "subtype", logger)
	cls := classifier.New(binary, subtype, logger)

	// 6. Control Plane: watchlist поверх Redis Pub/Sub
	watchlist := engine.NewWatchlistManager(rdb, eventRepo, logger)
	if err := watchlist.Init(appCtx); err != nil {
		logger.Fatal("failed to init watchlist", zap.Error(err))
	}
	go watchlist.StartListener(appCtx)

	// 7. Метрики
	reg := prometheus.NewRegistry()
	metrics := engine.NewMetrics(reg)

	// Сэмплируем заполненность буфера журнала (saturation)
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-appCtx.Done():
				return
			case <-ticker.C:
				metrics.JournalBufferFill.Set(journal.BufferFill())
			}
		}
	}()

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		addr := fmt.Sprintf(":%d", cfg.Server.MetricsPort)
		logger.Info("metrics exporter started", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()

	// 8. Ядро пайплайна
	core := engine.NewCore(
		cls,
		policy.NewOwnerEnforcer(),
		cryptoVault,
		blobStore,
		assetRepo,
		trail,
		journal,
		alert.NewRedisDispatcher(rdb, logger),
		watchlist,
		metrics,
		logger,
	)
	gateway := engine.NewGateway(core, metrics, logger)

	// 9. Аутентификация: шлюз принимает и анонимные запросы,
	// решение о доступе все равно за ядром (fail-closed)
	pubKey, err := auth.ParseRSAPublicKey(cfg.Auth.PublicKey)
	if err != nil {
		logger.Fatal("failed to parse auth public key", zap.Error(err))
	}
	validator := auth.NewBaseValidator(pubKey)

	// 10. HTTP Server
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(engine.TracingMiddleware)
	r.Use(auth.NewOptionalMiddleware(validator, logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Post("/v1/telemetry", gateway.HandleTelemetry)
	r.Route("/v1/files", func(r chi.Router) {
		r.Post("/", gateway.HandleUpload)
		r.Get("/", gateway.HandleList)
		r.Get("/{assetID}", gateway.HandleDownload)
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 11. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("sentinel gateway started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	<-stop
	logger.Info("sentinel gateway stopping...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	cancel()
	// Дописываем буфер журнала до выхода
	journal.Stop()
	logger.Info("sentinel gateway exited properly")
}

// loadModel грузит веса, если путь задан. Отсутствующая модель —
// штатный режим (классификатор уходит в fallback).
func loadModel(path, name string, logger *zap.Logger) classifier.Model {
	if path == "" {
		logger.Warn("model path not configured, using fallback", zap.String("model", name))
		return nil
	}
	m, err := classifier.LoadLinearModel(path)
	if err != nil {
		logger.Error("failed to load model, using fallback",
			zap.String("model", name), zap.Error(err))
		return nil
	}
	logger.Info("model loaded", zap.String("model", name), zap.String("path", path))
	return m
}
