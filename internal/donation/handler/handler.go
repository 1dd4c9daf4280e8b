package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"carewatch/internal/donation/models"
	"carewatch/pkg/domain"
	"carewatch/pkg/platform/httputil"
	"carewatch/pkg/requestcontext"
)

type Service interface {
	RecordDonation(ctx context.Context, role domain.Role, institutionID domain.InstitutionID, donorLabel string, amount decimal.Decimal) (*models.DonationRecord, error)
	List(ctx context.Context, role domain.Role, institutionID domain.InstitutionID) ([]models.DonationRecord, error)
}

type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/institutions/{id}/donations", h.handleRecordDonation)
	r.Get("/institutions/{id}/donations", h.handleListDonations)
}

func (h *Handler) handleRecordDonation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseInstitutionID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.RecordDonationRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	rec, err := h.svc.RecordDonation(ctx, requestcontext.Role(ctx), id, req.Donor, req.Amount)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to record donation",
			"request_id", requestcontext.RequestID(ctx),
			"institution_id", id.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "donation recorded",
		"request_id", requestcontext.RequestID(ctx),
		"institution_id", id.String(),
		"donation_id", int64(rec.ID),
	)
	httputil.WriteJSON(w, http.StatusCreated, rec)
}

func (h *Handler) handleListDonations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseInstitutionID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	list, err := h.svc.List(ctx, requestcontext.Role(ctx), id)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to list donations",
			"request_id", requestcontext.RequestID(ctx),
			"institution_id", id.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"donations": list})
}
