package rbac

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ecclesia-app/ecclesia/internal/shared"
)

type principalContextKey struct{}

// ContextWithPrincipal stores the resolved principal in context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the resolved principal from context.
func PrincipalFromContext(ctx context.Context) Principal {
	p, _ := ctx.Value(principalContextKey{}).(Principal)
	return p
}

// Middleware wires authorization helpers for HTTP handlers.
type Middleware struct {
	Logger *slog.Logger
}

// RequireAuthenticated rejects requests without a resolved principal.
// Read-only routes use this alone; any authenticated principal may read.
func (m Middleware) RequireAuthenticated() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if PrincipalFromContext(r.Context()) == nil {
				shared.RespondJSON(w, http.StatusUnauthorized, shared.ErrorResponse{Error: "authentication required"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireCapability gates a mutating route group on a guard decision.
func (m Middleware) RequireCapability(action Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			if p == nil {
				shared.RespondJSON(w, http.StatusUnauthorized, shared.ErrorResponse{Error: "authentication required"})
				return
			}
			decision := Check(p, action)
			if !decision.Allowed {
				if m.Logger != nil {
					m.Logger.Warn("authorization denied",
						slog.Int64("principal", p.PrincipalID()),
						slog.String("action", string(action)),
						slog.String("reason", decision.Reason))
				}
				shared.RespondJSON(w, http.StatusForbidden, shared.ErrorResponse{
					Error:  "forbidden",
					Reason: decision.Reason,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
