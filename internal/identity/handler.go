package identity

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ecclesia-app/ecclesia/internal/rbac"
	"github.com/ecclesia-app/ecclesia/internal/shared"
)

// Handler exposes authentication and principal management endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	sessions *shared.SessionManager
	validate *validator.Validate
	mw       rbac.Middleware
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, mw rbac.Middleware) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		sessions: sessions,
		validate: validator.New(),
		mw:       mw,
	}
}

// MountRoutes attaches auth and principal routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/auth/login", h.Login)
	r.Post("/auth/logout", h.Logout)

	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAuthenticated())
		r.Get("/auth/me", h.Me)
		r.Get("/principals", h.List)
		r.Get("/principals/{id}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireCapability(rbac.CapManageRoles))
		r.Post("/principals", h.Create)
		r.Put("/principals/{id}/role", h.AssignRole)
		r.Delete("/principals/{id}", h.Delete)
		r.Post("/principals/{id}/restore", h.Restore)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireCapability(rbac.CapHardDelete))
		r.Delete("/principals/{id}/hard", h.HardDelete)
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		shared.RespondError(w, shared.ErrValidation)
		return
	}
	account, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		shared.RespondError(w, shared.ErrInvalidCredentials)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		sess.SetPrincipal(strconv.FormatInt(account.ID, 10))
	}
	shared.RespondJSON(w, http.StatusOK, account)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		h.sessions.Destroy(sess)
	}
	shared.RespondJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p := rbac.PrincipalFromContext(r.Context())
	account, ok := p.(*Account)
	if !ok {
		shared.RespondJSON(w, http.StatusUnauthorized, shared.ErrorResponse{Error: "authentication required"})
		return
	}
	shared.RespondJSON(w, http.StatusOK, account)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	includeDeleted := r.URL.Query().Get("include_deleted") == "true"
	accounts, err := h.service.List(r.Context(), includeDeleted)
	if err != nil {
		h.logger.Error("list principals", slog.Any("error", err))
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, map[string]any{"principals": accounts})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	var account *Account
	if r.URL.Query().Get("include_deleted") == "true" {
		account, err = h.service.GetIncludingDeleted(r.Context(), id)
	} else {
		account, err = h.service.Get(r.Context(), id)
	}
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, account)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePrincipalRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		shared.RespondError(w, shared.ErrValidation)
		return
	}
	account, err := h.service.Create(r.Context(), CreateInput{
		Kind:          Kind(req.Kind),
		Email:         req.Email,
		Name:          req.Name,
		Password:      req.Password,
		SuperOperator: req.SuperOperator,
		RoleID:        req.RoleID,
	})
	if err != nil {
		h.logger.Error("create principal", slog.Any("error", err))
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusCreated, account)
}

func (h *Handler) AssignRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	var req AssignRoleRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		shared.RespondError(w, shared.ErrValidation)
		return
	}
	account, err := h.service.AssignRole(r.Context(), id, req.RoleID)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, account)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	if err := h.service.Restore(r.Context(), id); err != nil {
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) HardDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	if err := h.service.HardDelete(r.Context(), id); err != nil {
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusNoContent, nil)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.ErrValidation
	}
	return id, nil
}
