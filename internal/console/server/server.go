package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/xela07ax/sentinel-secops/internal/console/handler"
	"github.com/xela07ax/sentinel-secops/internal/infra/auth"
	"go.uber.org/zap"
)

type ConsoleServer struct {
	router *chi.Mux
	logger *zap.Logger

	// Проверка токенов (RS256, открытый ключ)
	validator auth.TokenValidator

	// Обработчики бизнес-доменов
	authHandler  *handler.AuthHandler      // /auth/token
	dashHandler  *handler.DashboardHandler // /api/v1/dashboard
	auditHandler *handler.AuditHandler     // /v1/audit
	watchHandler *handler.WatchlistHandler // /v1/watchlist
	adviceHander *handler.AdviceHandler    // /v1/events/{id}/advice
}

// NewConsoleServer инициализирует сервер админки со всеми зависимостями
func NewConsoleServer(
	logger *zap.Logger,
	validator auth.TokenValidator,
	authH *handler.AuthHandler,
	dashH *handler.DashboardHandler,
	auditH *handler.AuditHandler,
	watchH *handler.WatchlistHandler,
	adviceH *handler.AdviceHandler,
) *ConsoleServer {
	s := &ConsoleServer{
		router:       chi.NewRouter(),
		logger:       logger.Named("console-api"),
		validator:    validator,
		authHandler:  authH,
		dashHandler:  dashH,
		auditHandler: auditH,
		watchHandler: watchH,
		adviceHander: adviceH,
	}

	s.routes()
	return s
}

func (s *ConsoleServer) routes() {
	r := s.router

	// --- 1. Глобальные инфраструктурные Middleware (для всех) ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// --- 2. ПУБЛИЧНЫЕ РОУТЫ ---
	r.Group(func(r chi.Router) {
		// Логин должен быть доступен без токена
		r.Post("/auth/token", s.authHandler.Login)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	// --- 3. ЗАЩИЩЕННЫЙ ПЕРИМЕТР (требует RS256 токен) ---
	r.Group(func(r chi.Router) {
		r.Use(auth.NewMiddleware(s.validator, s.logger))

		// Dashboard & Stats
		r.Get("/api/v1/dashboard/stats", s.dashHandler.GetStats)

		// Три журнала аудита (Observability)
		r.Route("/v1/audit", func(r chi.Router) {
			r.Get("/events", s.auditHandler.GetEvents)     // Телеметрия
			r.Get("/attempts", s.auditHandler.GetAttempts) // Попытки доступа
			r.Get("/journal", s.auditHandler.GetJournal)   // Операционный журнал
		})

		// Список наблюдения (источники атак)
		r.Route("/v1/watchlist", func(r chi.Router) {
			r.Get("/", s.watchHandler.List)
			r.Route("/{sourceID}", func(r chi.Router) {
				r.Post("/mark", s.watchHandler.Mark)   // Ручная постановка
				r.Post("/clear", s.watchHandler.Clear) // Снятие + Redis Publish
			})
		})

		// Рекомендации по событиям
		r.Get("/v1/events/{eventID}/advice", s.adviceHander.GetAdvice)
	})
}

// ServeHTTP позволяет использовать ConsoleServer как стандартный http.Handler
func (s *ConsoleServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
