package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"tally/internal/models"
	"tally/internal/token"
)

const claimsKey ctxKey = "claims"

// Verifier — проверка access-токена (обычно *token.Service).
type Verifier interface {
	VerifyAccess(raw string) (*token.Claims, error)
}

// Auth разбирает Authorization: Bearer <token> и кладёт claims в контекст.
func Auth(tokens Verifier) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const p = "Bearer "
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, p) {
				models.WriteError(w, http.StatusUnauthorized, "Unauthorized", "")
				return
			}
			claims, err := tokens.VerifyAccess(strings.TrimPrefix(auth, p))
			if err != nil {
				models.WriteError(w, http.StatusUnauthorized, "Unauthorized", "")
				return
			}
			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles пропускает только перечисленные роли (после Auth).
func RequireRoles(roles ...string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaims(r)
			if claims == nil {
				models.WriteError(w, http.StatusUnauthorized, "Unauthorized", "")
				return
			}
			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			models.WriteError(w, http.StatusForbidden, "Access denied - insufficient role", "")
		})
	}
}

func GetClaims(r *http.Request) *token.Claims {
	v := r.Context().Value(claimsKey)
	if c, ok := v.(*token.Claims); ok {
		return c
	}
	return nil
}
