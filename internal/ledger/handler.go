package ledger

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ecclesia-app/ecclesia/internal/lifecycle"
	"github.com/ecclesia-app/ecclesia/internal/rbac"
	"github.com/ecclesia-app/ecclesia/internal/shared"
)

// Handler exposes offering and distribution endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	mw       rbac.Middleware
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
		mw:       mw,
	}
}

// MountRoutes attaches ledger routes. Recording offerings and managing
// distributions are gated by separate capabilities, matching the split
// between frontline collection and treasury work.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAuthenticated())
		r.Get("/offerings", h.ListOfferings)
		r.Get("/offerings/{id}", h.ShowOffering)
		r.Get("/offerings/{id}/balance", h.Balance)
		r.Get("/offerings/{id}/distributions", h.ListDistributions)
		r.Get("/distributions/{id}", h.ShowDistribution)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireCapability(rbac.CapRegisterOfferings))
		r.Post("/offerings", h.RecordOffering)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireCapability(rbac.CapManageFinances))
		r.Post("/offerings/{id}/distributions", h.AddDistribution)
		r.Delete("/distributions/{id}", h.RemoveDistribution)
		r.Delete("/offerings/{id}", h.DeleteOffering)
		r.Post("/offerings/{id}/restore", h.RestoreOffering)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireCapability(rbac.CapHardDelete))
		r.Delete("/offerings/{id}/hard", h.HardDeleteOffering)
	})
}

func (h *Handler) RecordOffering(w http.ResponseWriter, r *http.Request) {
	var req OfferingRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		shared.RespondError(w, shared.ErrValidation)
		return
	}
	input, err := req.input()
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	off, err := h.service.RecordOffering(r.Context(), input, actorID(r))
	if err != nil {
		h.logger.Error("record offering", slog.Any("error", err))
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusCreated, off)
}

func (h *Handler) ListOfferings(w http.ResponseWriter, r *http.Request) {
	opts := lifecycle.ListOptions{
		IncludeDeleted: r.URL.Query().Get("include_deleted") == "true",
	}
	offerings, err := h.service.ListOfferings(r.Context(), opts)
	if err != nil {
		h.logger.Error("list offerings", slog.Any("error", err))
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, map[string]any{"offerings": offerings})
}

func (h *Handler) ShowOffering(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	off, err := h.service.GetOffering(r.Context(), id)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, off)
}

func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	balance, err := h.service.Balance(r.Context(), id)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, balanceResponse(balance))
}

func (h *Handler) AddDistribution(w http.ResponseWriter, r *http.Request) {
	offeringID, err := pathID(r)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	var req DistributionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		shared.RespondError(w, shared.ErrValidation)
		return
	}
	input, err := req.input(offeringID)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	dist, err := h.service.AddDistribution(r.Context(), input, actorID(r))
	if err != nil {
		if errors.Is(err, ErrConservation) {
			shared.RespondJSON(w, http.StatusConflict, shared.ErrorResponse{Error: err.Error()})
			return
		}
		h.logger.Error("add distribution", slog.Any("error", err), slog.Int64("offering_id", offeringID))
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusCreated, dist)
}

func (h *Handler) ListDistributions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	dists, err := h.service.ListDistributions(r.Context(), id)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, map[string]any{"distributions": dists})
}

func (h *Handler) ShowDistribution(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	dist, err := h.service.GetDistribution(r.Context(), id)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, dist)
}

func (h *Handler) RemoveDistribution(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	if err := h.service.RemoveDistribution(r.Context(), id, actorID(r)); err != nil {
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) DeleteOffering(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	cascade := r.URL.Query().Get("cascade") == "true"
	if err := h.service.DeleteOffering(r.Context(), id, cascade, actorID(r)); err != nil {
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) RestoreOffering(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	off, err := h.service.RestoreOffering(r.Context(), id, actorID(r))
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, off)
}

func (h *Handler) HardDeleteOffering(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	if err := h.service.HardDeleteOffering(r.Context(), id, actorID(r)); err != nil {
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusNoContent, nil)
}

func actorID(r *http.Request) int64 {
	if p := rbac.PrincipalFromContext(r.Context()); p != nil {
		return p.PrincipalID()
	}
	return 0
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.ErrValidation
	}
	return id, nil
}
