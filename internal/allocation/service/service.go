package service

import (
	"context"
	"io"
	"log/slog"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"carewatch/internal/access"
	"carewatch/internal/allocation/metrics"
	"carewatch/internal/allocation/models"
	"carewatch/pkg/domain"
	dErrors "carewatch/pkg/domain-errors"
	audit "carewatch/pkg/platform/audit"
	"carewatch/pkg/requestcontext"
)

// DefaultMaxProofBytes is the proof size limit when none is configured.
const DefaultMaxProofBytes int64 = 5 << 20

var tracer = otel.Tracer("carewatch/allocation")

type Store interface {
	Append(ctx context.Context, rec *models.FundAllocationRecord) (*models.FundAllocationRecord, error)
	ListByInstitution(ctx context.Context, id domain.InstitutionID) ([]models.FundAllocationRecord, error)
	Count(ctx context.Context) (int, error)
}

// ProofStore keeps proof files and returns opaque references to them.
type ProofStore interface {
	Put(ctx context.Context, institutionID, filename, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, ref string) error
}

type Institutions interface {
	RequireInstitution(ctx context.Context, id domain.InstitutionID) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the fund allocation ledger. It never edits or deletes records.
type Service struct {
	store         Store
	proofs        ProofStore
	institutions  Institutions
	auditor       AuditPublisher
	metrics       *metrics.Metrics
	logger        *slog.Logger
	maxProofBytes int64
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = p
	}
}

// WithMaxProofBytes overrides the proof size limit. Non-positive values are ignored.
func WithMaxProofBytes(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxProofBytes = n
		}
	}
}

func New(store Store, proofs ProofStore, institutions Institutions, opts ...Option) *Service {
	s := &Service{
		store:         store,
		proofs:        proofs,
		institutions:  institutions,
		logger:        slog.Default(),
		maxProofBytes: DefaultMaxProofBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) MaxProofBytes() int64 {
	return s.maxProofBytes
}

// RecordAllocation validates the entry and its proof, stores the proof, then
// appends the record. If the append fails the stored proof is removed.
func (s *Service) RecordAllocation(ctx context.Context, role domain.Role, institutionID domain.InstitutionID, source models.Source, amount decimal.Decimal, usage models.UsageCategory, proof *models.Proof) (*models.FundAllocationRecord, error) {
	ctx, span := tracer.Start(ctx, "allocation.RecordAllocation")
	defer span.End()
	span.SetAttributes(
		attribute.String("institution_id", institutionID.String()),
		attribute.String("source", string(source)),
		attribute.String("usage_category", string(usage)),
	)

	rec, proofBytes, err := s.record(ctx, role, institutionID, source, amount, usage, proof)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		s.metrics.IncrementRejected(string(dErrors.CodeOf(err)))
		return nil, err
	}
	span.SetAttributes(attribute.Int64("allocation_id", int64(rec.ID)))
	s.metrics.ObserveRecorded(string(rec.Source), string(rec.UsageCategory), proofBytes)
	s.emitAudit(ctx, audit.NewEvent(ctx, audit.EventAllocationRecorded, rec.InstitutionID.String(), rec.ID.String()))
	return rec, nil
}

func (s *Service) record(ctx context.Context, role domain.Role, institutionID domain.InstitutionID, source models.Source, amount decimal.Decimal, usage models.UsageCategory, proof *models.Proof) (*models.FundAllocationRecord, int, error) {
	if err := access.Require(role, access.LogExpenditure); err != nil {
		return nil, 0, err
	}
	if err := models.ValidateAllocation(institutionID, source, amount, usage); err != nil {
		return nil, 0, toValidation(err)
	}
	data, err := s.readProof(proof)
	if err != nil {
		return nil, 0, err
	}
	if err := s.institutions.RequireInstitution(ctx, institutionID); err != nil {
		return nil, 0, err
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeTimeout, "request cancelled before proof was stored")
	}

	ref, err := s.proofs.Put(ctx, institutionID.String(), proof.Filename, proof.ContentType, data)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store proof")
	}
	rec, err := models.NewAllocation(institutionID, source, amount, usage, ref, requestcontext.Now(ctx))
	if err != nil {
		s.discardProof(ctx, ref)
		return nil, 0, toValidation(err)
	}
	stored, err := s.store.Append(ctx, rec)
	if err != nil {
		s.discardProof(ctx, ref)
		if dErrors.HasCode(err, dErrors.CodeTimeout) {
			return nil, 0, err
		}
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record allocation")
	}
	return stored, len(data), nil
}

// readProof reads at most maxProofBytes+1 bytes so an oversized upload is
// detected even when its declared size is wrong.
func (s *Service) readProof(proof *models.Proof) ([]byte, error) {
	if proof == nil || proof.Body == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "proof file is required")
	}
	if proof.Size > s.maxProofBytes {
		return nil, s.sizeError()
	}
	data, err := io.ReadAll(io.LimitReader(proof.Body, s.maxProofBytes+1))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "failed to read proof file")
	}
	if int64(len(data)) > s.maxProofBytes {
		return nil, s.sizeError()
	}
	if len(data) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "proof file is empty")
	}
	return data, nil
}

func (s *Service) sizeError() error {
	return dErrors.New(dErrors.CodePayloadTooLarge, "proof file exceeds the size limit").
		WithMeta("max_bytes", s.maxProofBytes)
}

// discardProof uses a fresh context so cleanup still runs after the request is cancelled.
func (s *Service) discardProof(ctx context.Context, ref string) {
	if err := s.proofs.Delete(context.WithoutCancel(ctx), ref); err != nil {
		s.metrics.IncrementOrphanedProofs()
		s.logger.ErrorContext(ctx, "failed to delete proof after rejected allocation",
			"request_id", requestcontext.RequestID(ctx),
			"proof_ref", ref,
			"error", err,
		)
	}
}

// ListAllocations returns the institution's records in ascending id order,
// read fresh from the store on every call.
func (s *Service) ListAllocations(ctx context.Context, role domain.Role, institutionID domain.InstitutionID) ([]models.FundAllocationRecord, error) {
	if err := access.Require(role, access.ViewFundDetail); err != nil {
		return nil, err
	}
	if err := s.institutions.RequireInstitution(ctx, institutionID); err != nil {
		return nil, err
	}
	list, err := s.store.ListByInstitution(ctx, institutionID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list allocations")
	}
	return list, nil
}

func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count allocations")
	}
	return n, nil
}

// Seed appends demo entries into an empty ledger. The entries carry their
// own proof references.
func (s *Service) Seed(ctx context.Context, seed []models.FundAllocationRecord) (int, error) {
	n, err := s.Count(ctx)
	if err != nil || n > 0 {
		return 0, err
	}
	for i := range seed {
		rec, err := models.NewAllocation(seed[i].InstitutionID, seed[i].Source, seed[i].Amount, seed[i].UsageCategory, seed[i].ProofRef, seed[i].RecordedAt)
		if err != nil {
			return i, toValidation(err)
		}
		if _, err := s.store.Append(ctx, rec); err != nil {
			return i, dErrors.Wrap(err, dErrors.CodeInternal, "failed to seed allocation")
		}
	}
	s.logger.InfoContext(ctx, "seeded demo allocations", "count", len(seed))
	return len(seed), nil
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"request_id", requestcontext.RequestID(ctx),
			"action", event.Action,
			"error", err,
		)
	}
}

func toValidation(err error) error {
	if de, ok := dErrors.As(err); ok && de.Code == dErrors.CodeInvariantViolation {
		return dErrors.New(dErrors.CodeValidation, de.Message)
	}
	return err
}
