package middleware

import (
	"context"
	"net/http"
	"strings"

	"gomarket/internal/domain"
	apperror "gomarket/internal/errors"
	"gomarket/internal/pkg/logger"
	"gomarket/internal/pkg/response"
	"gomarket/internal/pkg/token"
)

// ContextKey é o tipo das chaves deste pacote no contexto da requisição.
type ContextKey int

const identityKey ContextKey = 0

// TokenService define o contrato de validação necessário para o middleware.
type TokenService interface {
	ValidateToken(tokenString string) (*token.CustomClaims, error)
}

// Auth valida o JWT e anexa a domain.Identity ao contexto.
type Auth struct {
	tokens TokenService
	log    logger.Logger
}

// NewAuth cria os middlewares de autenticação.
func NewAuth(tokens TokenService, log logger.Logger) *Auth {
	return &Auth{tokens: tokens, log: log}
}

func bearer(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(header[len("Bearer "):])
	return tok, tok != ""
}

// Required exige um token válido (401 caso contrário).
func (a *Auth) Required(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, ok := bearer(r)
		if !ok {
			response.Error(w, r, a.log, apperror.NewUnauthorizedError("Token de autorização ausente ou malformado."))
			return
		}

		claims, err := a.tokens.ValidateToken(tok)
		if err != nil {
			a.log.Debug("Token rejeitado", map[string]interface{}{"error": err.Error()})
			response.Error(w, r, a.log, apperror.NewUnauthorizedError("Token inválido ou expirado."))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), claims.Identity())))
	})
}

// Optional anexa a identidade quando há um token válido; sem token (ou token inválido)
// a requisição segue como anônima.
func (a *Auth) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tok, ok := bearer(r); ok {
			if claims, err := a.tokens.ValidateToken(tok); err == nil {
				r = r.WithContext(WithIdentity(r.Context(), claims.Identity()))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRoles deve rodar depois de Required.
func (a *Auth) RequireRoles(roles ...domain.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := IdentityFromContext(r.Context())
			if !id.IsAuthenticated() {
				response.Error(w, r, a.log, apperror.NewUnauthorizedError("Autorização necessária. Token não processado."))
				return
			}
			if !id.HasRole(roles...) {
				response.Error(w, r, a.log, apperror.NewForbiddenError("Acesso negado. Você não tem a permissão necessária."))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithIdentity anexa a identidade ao contexto.
func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext devolve a identidade do chamador ou domain.Anonymous.
func IdentityFromContext(ctx context.Context) domain.Identity {
	id, ok := ctx.Value(identityKey).(domain.Identity)
	if !ok {
		return domain.Anonymous
	}
	return id
}
