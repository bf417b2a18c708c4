package auth

import (
	"context"
	"net/http"

	"github.com/xela07ax/sentinel-secops/internal/domain"
	"go.uber.org/zap"
)

// TokenValidator — интерфейс, который должны реализовать и шлюз, и консоль
type TokenValidator interface {
	VerifyToken(tokenStr string) (*domain.CustomClaims, error)
}

type ctxKey string

const (
	ctxKeyIdentity ctxKey = "identity"
	ctxKeyScopes   ctxKey = "scopes"
)

// Identity достает идентичность запрашивающего из контекста.
// Пустая строка = аноним (downstream обязан трактовать это как Deny).
func Identity(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKeyIdentity).(string); ok {
		return id
	}
	return ""
}

// Scopes достает права из контекста (может быть nil).
func Scopes(ctx context.Context) map[string]bool {
	if s, ok := ctx.Value(ctxKeyScopes).(map[string]bool); ok {
		return s
	}
	return nil
}

// NewMiddleware — жесткий периметр: без валидного токена запрос не проходит.
// Используется консолью (админ-API).
func NewMiddleware(v TokenValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := v.VerifyToken(authHeader)
			if err != nil {
				logger.Warn("auth failure", zap.Error(err))
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			// Прокидываем данные в контекст
			ctx := context.WithValue(r.Context(), ctxKeyIdentity, claims.UserID)
			ctx = context.WithValue(ctx, ctxKeyScopes, claims.Scopes)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewOptionalMiddleware — мягкий периметр для шлюза файлов: запрос без токена
// (или с битым токеном) проходит дальше как анонимный. Решение принимает
// не транспорт, а Access Decision Point — и для анонима оно всегда Deny
// (fail-closed), но попытка при этом фиксируется в аудите.
func NewOptionalMiddleware(v TokenValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := v.VerifyToken(authHeader)
			if err != nil {
				// Битый токен приравниваем к анониму, но след оставляем
				logger.Warn("invalid token on gateway, treating as anonymous", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyIdentity, claims.UserID)
			ctx = context.WithValue(ctx, ctxKeyScopes, claims.Scopes)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
