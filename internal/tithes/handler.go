package tithes

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/ecclesia-app/ecclesia/internal/lifecycle"
	"github.com/ecclesia-app/ecclesia/internal/rbac"
	"github.com/ecclesia-app/ecclesia/internal/shared"
)

// TitheRequest is the payload for registering a tithe.
type TitheRequest struct {
	MemberID   int64      `json:"member_id" validate:"required,gt=0"`
	Amount     string     `json:"amount" validate:"required"`
	ReceivedOn *time.Time `json:"received_on,omitempty"`
	Note       *string    `json:"note,omitempty" validate:"omitempty,max=500"`
}

func (r TitheRequest) input() (TitheInput, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return TitheInput{}, shared.ErrValidation
	}
	in := TitheInput{MemberID: r.MemberID, Amount: amount, Note: r.Note}
	if r.ReceivedOn != nil {
		in.ReceivedOn = *r.ReceivedOn
	}
	return in, nil
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

// MountRoutes attaches tithe routes. Registering requires the
// register-tithes capability; reads, including the monthly report, are open
// to any authenticated principal.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAuthenticated())
		r.Get("/tithes", h.List)
		r.Get("/tithes/{id}", h.Show)
		r.Get("/tithes/reports/monthly", h.MonthlyReport)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireCapability(rbac.CapRegisterTithes))
		r.Post("/tithes", h.Register)
		r.Delete("/tithes/{id}", h.Delete)
		r.Post("/tithes/{id}/restore", h.Restore)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireCapability(rbac.CapHardDelete))
		r.Delete("/tithes/{id}/hard", h.HardDelete)
	})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req TitheRequest
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
	tithe, err := h.service.Register(r.Context(), input)
	if err != nil {
		h.logger.Error("register tithe", slog.Any("error", err))
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusCreated, tithe)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	opts := lifecycle.ListOptions{
		IncludeDeleted: r.URL.Query().Get("include_deleted") == "true",
	}
	tithes, err := h.service.List(r.Context(), opts)
	if err != nil {
		h.logger.Error("list tithes", slog.Any("error", err))
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, map[string]any{"tithes": tithes})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	tithe, err := h.service.Get(r.Context(), id)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, tithe)
}

func (h *Handler) MonthlyReport(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		shared.RespondError(w, shared.ErrValidation)
		return
	}
	totals, err := h.service.MonthlyTotals(r.Context(), year)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, map[string]any{"year": year, "months": totals})
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
