package identity

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ecclesia-app/ecclesia/internal/rbac"
	"github.com/ecclesia-app/ecclesia/internal/shared"
)

// ResolverMiddleware turns the session's principal reference into a resolved
// account in the request context. Requests without a valid principal continue
// unauthenticated; route groups decide whether that is acceptable.
func ResolverMiddleware(service *Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			if sess == nil || sess.Principal() == "" {
				next.ServeHTTP(w, r)
				return
			}
			id, err := strconv.ParseInt(sess.Principal(), 10, 64)
			if err != nil {
				if logger != nil {
					logger.Error("parse principal id", slog.String("value", sess.Principal()))
				}
				next.ServeHTTP(w, r)
				return
			}
			account, err := service.Resolve(r.Context(), id)
			if err != nil {
				// A deleted principal keeps its cookie but loses access.
				if !errors.Is(err, shared.ErrNotFound) && logger != nil {
					logger.Error("resolve principal", slog.Any("error", err))
				}
				next.ServeHTTP(w, r)
				return
			}
			ctx := rbac.ContextWithPrincipal(r.Context(), account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
