package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"carewatch/internal/catalog/models"
	"carewatch/pkg/domain"
	"carewatch/pkg/platform/httputil"
	"carewatch/pkg/requestcontext"
)

type Service interface {
	ListInstitutions(ctx context.Context) ([]models.Institution, error)
	GetInstitution(ctx context.Context, id domain.InstitutionID) (*models.Institution, error)
	ListInspections(ctx context.Context, role domain.Role) ([]models.InspectionReport, error)
}

type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/institutions", h.handleListInstitutions)
	r.Get("/institutions/{id}", h.handleGetInstitution)
	r.Get("/inspections", h.handleListInspections)
}

func (h *Handler) handleListInstitutions(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListInstitutions(r.Context())
	if err != nil {
		h.fail(w, r, "failed to list institutions", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"institutions": list})
}

func (h *Handler) handleGetInstitution(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseInstitutionID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	inst, err := h.svc.GetInstitution(r.Context(), id)
	if err != nil {
		h.fail(w, r, "failed to get institution", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, inst)
}

func (h *Handler) handleListInspections(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reports, err := h.svc.ListInspections(ctx, requestcontext.Role(ctx))
	if err != nil {
		h.fail(w, r, "failed to list inspections", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"inspections": reports})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	h.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
