package middleware

import (
	"net"
	"net/http"
	"strconv"
	"time"

	apperror "gomarket/internal/errors"
	"gomarket/internal/pkg/cache"
	"gomarket/internal/pkg/logger"
	"gomarket/internal/pkg/response"
)

// RateLimiter aplica janela fixa por IP usando contadores no Redis.
// Falha do cache não derruba a API: a requisição passa e o erro é logado.
func RateLimiter(client cache.Client, limit int, period time.Duration, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			key := "rate-limit:" + ip
			ctx := r.Context()

			count, err := client.GetInt(ctx, key)
			if err == cache.ErrCacheMiss {
				if err := client.Set(ctx, key, 1, period); err != nil {
					log.Warn("Falha ao iniciar contador de rate limit", map[string]interface{}{"error": err.Error()})
				}
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(limit-1))
				next.ServeHTTP(w, r)
				return
			} else if err != nil {
				log.Warn("Rate limit indisponível", map[string]interface{}{"error": err.Error()})
				next.ServeHTTP(w, r)
				return
			}

			if count >= limit {
				w.Header().Set("Retry-After", strconv.Itoa(int(period.Seconds())))
				response.Error(w, r, log, apperror.NewRateLimitError("Limite de requisições excedido. Tente novamente mais tarde."))
				return
			}

			if _, err := client.Incr(ctx, key); err != nil {
				log.Warn("Falha ao incrementar contador de rate limit", map[string]interface{}{"error": err.Error()})
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(limit-count-1))
			next.ServeHTTP(w, r)
		})
	}
}
