package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/avosseberg/gatehouse-be/internal/apperr"
	"github.com/avosseberg/gatehouse-be/internal/models"
	"github.com/avosseberg/gatehouse-be/internal/services"
	"github.com/rs/zerolog/log"
)

type contextKey string

// AccountKey is the context key for the authenticated account.
const AccountKey = contextKey("account")

// AccountFromContext returns the account stored by SessionMiddleware.
func AccountFromContext(ctx context.Context) (models.Account, bool) {
	account, ok := ctx.Value(AccountKey).(models.Account)
	return account, ok
}

// SessionMiddleware protects routes by resolving the bearer token to
// its owning account. The token is read from the Authorization header
// first, then from the "token" cookie.
func SessionMiddleware(sessions services.SessionServiceProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token string

			authHeader := r.Header.Get("Authorization")
			if authHeader != "" {
				parts := strings.Split(authHeader, "Bearer ")
				if len(parts) == 2 {
					token = parts[1]
				}
			}

			if token == "" {
				cookie, err := r.Cookie("token")
				if err == nil {
					token = cookie.Value
				}
			}

			if token == "" {
				writeAuthError(w, http.StatusUnauthorized, "missing session token")
				return
			}

			account, err := sessions.ResolveSession(token)
			if err != nil {
				switch apperr.KindOf(err) {
				case apperr.KindNotFound, apperr.KindSessionExpired, apperr.KindUnauthorized, apperr.KindInvalidInput, apperr.KindConflict:
					writeAuthError(w, http.StatusUnauthorized, "invalid or expired session token")
				case apperr.KindHashingFailure, apperr.KindQueryError:
					log.Error().Err(err).Msg("Failed to resolve session token")
					writeAuthError(w, http.StatusInternalServerError, "internal server error")
				default:
					log.Error().Err(err).Msg("Unhandled error kind resolving session token")
					writeAuthError(w, http.StatusInternalServerError, "internal server error")
				}
				return
			}

			ctx := context.WithValue(r.Context(), AccountKey, account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
