package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/wyna/storefront/internal/modules/admin"
	"github.com/wyna/storefront/internal/platform/httpx"
	"github.com/wyna/storefront/internal/platform/logging"
	"go.uber.org/zap"
)

type ctxKey struct{}

// RequireAdmin rejects requests without a valid "Authorization: Bearer"
// token and stores the authenticated admin in the request context.
func RequireAdmin(svc Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				httpx.Error(w, r, http.StatusUnauthorized, ErrUnauthorized)
				return
			}
			a, err := svc.Authenticate(r.Context(), token)
			if errors.Is(err, ErrUnauthorized) {
				httpx.Error(w, r, http.StatusUnauthorized, err)
				return
			}
			if err != nil {
				httpx.Error(w, r, http.StatusInternalServerError, err)
				return
			}
			ctx := context.WithValue(r.Context(), ctxKey{}, a)
			logger := logging.FromContext(ctx).With(zap.String("admin_id", a.ID.String()))
			next.ServeHTTP(w, r.WithContext(logging.ContextWithLogger(ctx, logger)))
		})
	}
}

// AdminFromContext returns the admin stored by RequireAdmin.
func AdminFromContext(ctx context.Context) (*admin.Admin, bool) {
	a, ok := ctx.Value(ctxKey{}).(*admin.Admin)
	return a, ok && a != nil
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(h[len(prefix):])
	return token, token != ""
}
