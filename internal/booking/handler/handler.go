package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"carewatch/internal/booking/models"
	"carewatch/pkg/domain"
	"carewatch/pkg/platform/httputil"
	"carewatch/pkg/requestcontext"
)

type Service interface {
	AvailableSlots(ctx context.Context, role domain.Role, institutionID domain.InstitutionID, date domain.Date) ([]models.TimeSlot, error)
	CreateBooking(ctx context.Context, role domain.Role, institutionID domain.InstitutionID, visitDate domain.Date, visitorName string, timeSlot models.TimeSlot) (*models.Booking, error)
	CancelBooking(ctx context.Context, role domain.Role, id domain.BookingID) (*models.Booking, error)
	GetBooking(ctx context.Context, id domain.BookingID) (*models.Booking, error)
}

type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/institutions/{id}/slots", h.handleAvailableSlots)
	r.Post("/institutions/{id}/bookings", h.handleCreateBooking)
	r.Get("/bookings/{id}", h.handleGetBooking)
	r.Post("/bookings/{id}/cancel", h.handleCancelBooking)
}

func (h *Handler) handleAvailableSlots(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseInstitutionID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	date, err := domain.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	slots, err := h.svc.AvailableSlots(ctx, requestcontext.Role(ctx), id, date)
	if err != nil {
		h.fail(w, r, "failed to list available slots", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.SlotsResponse{Date: date, Slots: slots})
}

func (h *Handler) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseInstitutionID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.CreateBookingRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	visitDate, err := domain.ParseDate(req.VisitDate)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	slot, err := models.ParseTimeSlot(req.TimeSlot)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	b, err := h.svc.CreateBooking(ctx, requestcontext.Role(ctx), id, visitDate, req.VisitorName, slot)
	if err != nil {
		h.fail(w, r, "failed to create booking", err)
		return
	}
	h.logger.InfoContext(ctx, "booking created",
		"request_id", requestcontext.RequestID(ctx),
		"booking_id", b.ID.String(),
		"institution_id", id.String(),
		"visit_date", visitDate.String(),
		"time_slot", string(slot),
	)
	httputil.WriteJSON(w, http.StatusCreated, b)
}

func (h *Handler) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseBookingID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	b, err := h.svc.GetBooking(r.Context(), id)
	if err != nil {
		h.fail(w, r, "failed to get booking", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseBookingID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	b, err := h.svc.CancelBooking(ctx, requestcontext.Role(ctx), id)
	if err != nil {
		h.fail(w, r, "failed to cancel booking", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	h.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
