package middleware

import (
	"context"
	"net/http"

	"github.com/mpetrov/walletd/internal/handlers/render"
	"github.com/mpetrov/walletd/internal/handlers/userctx"
	"github.com/mpetrov/walletd/internal/models"
)

type authService interface {
	Auth(ctx context.Context, r *http.Request) (models.User, error)
}

// AuthMiddleware resolves the bearer token and stores the user in the
// request context. Requests that fail to authenticate never reach the
// wrapped handler.
func AuthMiddleware(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := as.Auth(r.Context(), r)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			ctx := userctx.New(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
