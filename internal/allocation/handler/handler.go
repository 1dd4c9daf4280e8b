package handler

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"carewatch/internal/access"
	"carewatch/internal/allocation/models"
	"carewatch/pkg/domain"
	dErrors "carewatch/pkg/domain-errors"
	"carewatch/pkg/platform/httputil"
	"carewatch/pkg/requestcontext"
)

// multipartOverhead is the allowance for form fields and part headers on top
// of the proof size limit.
const multipartOverhead = 64 << 10

const maxFormMemory = 8 << 20

type Service interface {
	RecordAllocation(ctx context.Context, role domain.Role, institutionID domain.InstitutionID, source models.Source, amount decimal.Decimal, usage models.UsageCategory, proof *models.Proof) (*models.FundAllocationRecord, error)
	ListAllocations(ctx context.Context, role domain.Role, institutionID domain.InstitutionID) ([]models.FundAllocationRecord, error)
	MaxProofBytes() int64
}

type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/institutions/{id}/allocations", h.handleListAllocations)
	r.Post("/institutions/{id}/allocations", h.handleRecordAllocation)
}

func (h *Handler) handleListAllocations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseInstitutionID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	list, err := h.svc.ListAllocations(ctx, requestcontext.Role(ctx), id)
	if err != nil {
		h.fail(w, r, "failed to list allocations", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"allocations": list})
}

// handleRecordAllocation accepts multipart/form-data with fields source,
// amount, usage_category and a file part named proof. The caller's role is
// checked before the body is read.
func (h *Handler) handleRecordAllocation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := access.Require(requestcontext.Role(ctx), access.LogExpenditure); err != nil {
		h.fail(w, r, "allocation rejected", err)
		return
	}
	id, err := domain.ParseInstitutionID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	maxBytes := h.svc.MaxProofBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteError(w, dErrors.New(dErrors.CodePayloadTooLarge, "proof file exceeds the size limit").
				WithMeta("max_bytes", maxBytes))
			return
		}
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	source, err := models.ParseSource(r.FormValue("source"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	usage, err := models.ParseUsageCategory(r.FormValue("usage_category"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	amount, err := decimal.NewFromString(r.FormValue("amount"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "amount must be a decimal number"))
		return
	}
	proof, closeProof, err := proofFromForm(r.MultipartForm)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if closeProof != nil {
		defer closeProof()
	}

	rec, err := h.svc.RecordAllocation(ctx, requestcontext.Role(ctx), id, source, amount, usage, proof)
	if err != nil {
		h.fail(w, r, "failed to record allocation", err)
		return
	}
	h.logger.InfoContext(ctx, "allocation recorded",
		"request_id", requestcontext.RequestID(ctx),
		"institution_id", id.String(),
		"allocation_id", int64(rec.ID),
	)
	httputil.WriteJSON(w, http.StatusCreated, rec)
}

// proofFromForm returns nil without error when no proof part was sent so the
// service reports the missing proof.
func proofFromForm(form *multipart.Form) (*models.Proof, func(), error) {
	files := form.File["proof"]
	if len(files) == 0 {
		return nil, nil, nil
	}
	if len(files) > 1 {
		return nil, nil, dErrors.New(dErrors.CodeValidation, "exactly one proof file is allowed")
	}
	fh := files[0]
	f, err := fh.Open()
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "failed to open proof file")
	}
	return &models.Proof{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	}, func() { _ = f.Close() }, nil
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	h.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
