package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ecclesia-app/ecclesia/internal/events"
	"github.com/ecclesia-app/ecclesia/internal/identity"
	"github.com/ecclesia-app/ecclesia/internal/ledger"
	"github.com/ecclesia-app/ecclesia/internal/members"
	"github.com/ecclesia-app/ecclesia/internal/observability"
	"github.com/ecclesia-app/ecclesia/internal/rbac"
	"github.com/ecclesia-app/ecclesia/internal/shared"
	"github.com/ecclesia-app/ecclesia/internal/tithes"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Pool           *pgxpool.Pool
	Metrics        *observability.Metrics

	IdentityService *identity.Service

	IdentityHandler *identity.Handler
	RolesHandler    *rbac.Handler
	MembersHandler  *members.Handler
	EventsHandler   *events.Handler
	TithesHandler   *tithes.Handler
	LedgerHandler   *ledger.Handler
}

// NewRouter constructs the chi.Router.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)
	r.Use(identity.ResolverMiddleware(params.IdentityService, params.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		shared.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Hands a fresh CSRF token to clients about to mutate.
	r.Get("/auth/csrf", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		token, err := params.CSRFManager.EnsureToken(r.Context(), sess)
		if err != nil {
			shared.RespondError(w, err)
			return
		}
		shared.RespondJSON(w, http.StatusOK, map[string]string{"csrf_token": token})
	})

	if params.Metrics != nil {
		r.Handle("/metrics", params.Metrics.Handler())
	}

	params.IdentityHandler.MountRoutes(r)
	params.RolesHandler.MountRoutes(r)
	params.MembersHandler.MountRoutes(r)
	params.EventsHandler.MountRoutes(r)
	params.TithesHandler.MountRoutes(r)
	params.LedgerHandler.MountRoutes(r)

	return r
}
