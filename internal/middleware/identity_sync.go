package middleware

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/breakhouse/breakhouse-api/internal/pkg/jwt"
)

// SyncIdentity upserts the local mirror of the identity-provider account
// after Auth has validated the token. Runs after Auth in the chain.
func SyncIdentity(ensure func(ctx context.Context, claims *jwt.Claims) error) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if claims := GetClaims(r.Context()); claims != nil {
				if err := ensure(r.Context(), claims); err != nil {
					log.Error().Err(err).Str("user_id", claims.UserID.String()).Msg("Failed to sync identity")
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
