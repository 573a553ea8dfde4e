package events

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ecclesia-app/ecclesia/internal/lifecycle"
	"github.com/ecclesia-app/ecclesia/internal/rbac"
	"github.com/ecclesia-app/ecclesia/internal/shared"
)

// EventRequest is the create/update payload for an event.
type EventRequest struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description *string   `json:"description,omitempty"`
	Location    *string   `json:"location,omitempty" validate:"omitempty,max=200"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
	EndsAt      time.Time `json:"ends_at" validate:"required"`
	IsPublic    bool      `json:"is_public"`
}

func (r EventRequest) input() EventInput {
	return EventInput{
		Title:       r.Title,
		Description: r.Description,
		Location:    r.Location,
		StartsAt:    r.StartsAt,
		EndsAt:      r.EndsAt,
		IsPublic:    r.IsPublic,
	}
}

type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	mw       rbac.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
		mw:       mw,
	}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAuthenticated())
		r.Get("/events", h.List)
		r.Get("/events/{id}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireCapability(rbac.CapManageEvents))
		r.Post("/events", h.Create)
		r.Put("/events/{id}", h.Update)
		r.Delete("/events/{id}", h.Delete)
		r.Post("/events/{id}/restore", h.Restore)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireCapability(rbac.CapHardDelete))
		r.Delete("/events/{id}/hard", h.HardDelete)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	opts := lifecycle.ListOptions{
		IncludeDeleted: r.URL.Query().Get("include_deleted") == "true",
	}
	list, err := h.service.List(r.Context(), opts)
	if err != nil {
		h.logger.Error("list events", slog.Any("error", err))
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, map[string]any{"events": list})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	event, err := h.service.Get(r.Context(), id)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, event)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		shared.RespondError(w, shared.ErrValidation)
		return
	}
	event, err := h.service.Create(r.Context(), req.input())
	if err != nil {
		h.logger.Error("create event", slog.Any("error", err))
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusCreated, event)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	var req EventRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		shared.RespondError(w, shared.ErrValidation)
		return
	}
	event, err := h.service.Update(r.Context(), id, req.input())
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, event)
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
