package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"carewatch/internal/advisor/models"
	"carewatch/pkg/domain"
	"carewatch/pkg/platform/httputil"
	"carewatch/pkg/requestcontext"
)

type Service interface {
	AnalyzeDonations(ctx context.Context, role domain.Role) (*models.Report, error)
}

type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/advisories/donations", h.handleAnalyzeDonations)
}

func (h *Handler) handleAnalyzeDonations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	report, err := h.svc.AnalyzeDonations(ctx, requestcontext.Role(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "donation advisory failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "donation advisory completed",
		"request_id", requestcontext.RequestID(ctx),
		"findings", len(report.Findings),
	)
	httputil.WriteJSON(w, http.StatusOK, report)
}
