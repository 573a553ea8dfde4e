package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ecclesia-app/ecclesia/internal/app"
	"github.com/ecclesia-app/ecclesia/internal/events"
	"github.com/ecclesia-app/ecclesia/internal/identity"
	"github.com/ecclesia-app/ecclesia/internal/ledger"
	"github.com/ecclesia-app/ecclesia/internal/members"
	"github.com/ecclesia-app/ecclesia/internal/observability"
	"github.com/ecclesia-app/ecclesia/internal/platform/cache"
	"github.com/ecclesia-app/ecclesia/internal/platform/db"
	"github.com/ecclesia-app/ecclesia/internal/rbac"
	"github.com/ecclesia-app/ecclesia/internal/shared"
	"github.com/ecclesia-app/ecclesia/internal/tithes"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "ecclesia_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(pool)
	metrics := observability.NewMetrics()

	rolesRepo := rbac.NewRepository(pool)
	rolesService := rbac.NewService(rolesRepo)

	identityRepo := identity.NewRepository(pool)
	identityService := identity.NewService(identityRepo, rolesService)

	rbacMiddleware := rbac.Middleware{Logger: logger}

	membersRepo := members.NewRepository(pool)
	membersService := members.NewService(membersRepo)

	eventsRepo := events.NewRepository(pool)
	eventsService := events.NewService(eventsRepo)

	tithesRepo := tithes.NewRepository(pool)
	tithesService := tithes.NewService(tithesRepo, membersService)

	ledgerRepo := ledger.NewRepository(pool)
	ledgerService := ledger.NewService(ledgerRepo, auditLogger, metrics)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		SessionManager:  sessionManager,
		CSRFManager:     csrfManager,
		Pool:            pool,
		Metrics:         metrics,
		IdentityService: identityService,
		IdentityHandler: identity.NewHandler(logger, identityService, sessionManager, rbacMiddleware),
		RolesHandler:    rbac.NewHandler(logger, rolesService, rbacMiddleware),
		MembersHandler:  members.NewHandler(logger, membersService, rbacMiddleware),
		EventsHandler:   events.NewHandler(logger, eventsService, rbacMiddleware),
		TithesHandler:   tithes.NewHandler(logger, tithesService, rbacMiddleware),
		LedgerHandler:   ledger.NewHandler(logger, ledgerService, rbacMiddleware),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}
