package service

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"carewatch/internal/access"
	"carewatch/internal/donation/metrics"
	"carewatch/internal/donation/models"
	"carewatch/pkg/domain"
	dErrors "carewatch/pkg/domain-errors"
	audit "carewatch/pkg/platform/audit"
	"carewatch/pkg/requestcontext"
)

var tracer = otel.Tracer("carewatch/donation")

type Store interface {
	Append(ctx context.Context, rec *models.DonationRecord) (*models.DonationRecord, error)
	ListByInstitution(ctx context.Context, id domain.InstitutionID) ([]models.DonationRecord, error)
	ListAll(ctx context.Context) ([]models.DonationRecord, error)
	Count(ctx context.Context) (int, error)
}

// Institutions answers whether an institution exists.
type Institutions interface {
	RequireInstitution(ctx context.Context, id domain.InstitutionID) error
}

type ReceiptIssuer interface {
	Issue(ctx context.Context, id domain.InstitutionID) (string, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the donation ledger. Records are validated in full before the
// append, so a rejected donation leaves the ledger untouched.
type Service struct {
	store        Store
	institutions Institutions
	receipts     ReceiptIssuer
	auditor      AuditPublisher
	metrics      *metrics.Metrics
	logger       *slog.Logger
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

func New(store Store, institutions Institutions, receipts ReceiptIssuer, opts ...Option) *Service {
	s := &Service{
		store:        store,
		institutions: institutions,
		receipts:     receipts,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordDonation appends a donation for institutionID and returns the stored
// record with its ledger id and receipt reference.
func (s *Service) RecordDonation(ctx context.Context, role domain.Role, institutionID domain.InstitutionID, donorLabel string, amount decimal.Decimal) (*models.DonationRecord, error) {
	ctx, span := tracer.Start(ctx, "donation.RecordDonation")
	defer span.End()
	span.SetAttributes(attribute.String("institution_id", institutionID.String()))

	rec, err := s.record(ctx, role, institutionID, donorLabel, amount)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		s.metrics.IncrementRejected(string(dErrors.CodeOf(err)))
		return nil, err
	}
	span.SetAttributes(attribute.Int64("donation_id", int64(rec.ID)))
	s.metrics.ObserveRecorded(rec.InstitutionID.String(), rec.Amount)
	s.emitAudit(ctx, audit.NewEvent(ctx, audit.EventDonationRecorded, rec.InstitutionID.String(), rec.ID.String()))
	return rec, nil
}

func (s *Service) record(ctx context.Context, role domain.Role, institutionID domain.InstitutionID, donorLabel string, amount decimal.Decimal) (*models.DonationRecord, error) {
	if err := access.Require(role, access.Donate); err != nil {
		return nil, err
	}
	if institutionID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "institution id is required")
	}
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, toValidation(err)
	}
	if err := s.institutions.RequireInstitution(ctx, institutionID); err != nil {
		return nil, err
	}
	ref, err := s.receipts.Issue(ctx, institutionID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue receipt")
	}
	rec, err := models.NewDonation(institutionID, donorLabel, amount, ref, requestcontext.Now(ctx))
	if err != nil {
		return nil, toValidation(err)
	}
	return s.append(ctx, rec)
}

func (s *Service) append(ctx context.Context, rec *models.DonationRecord) (*models.DonationRecord, error) {
	stored, err := s.store.Append(ctx, rec)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeTimeout) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record donation")
	}
	return stored, nil
}

// List returns an institution's donations in ascending id order.
func (s *Service) List(ctx context.Context, role domain.Role, institutionID domain.InstitutionID) ([]models.DonationRecord, error) {
	if err := access.Require(role, access.ViewFundDetail); err != nil {
		return nil, err
	}
	if err := s.institutions.RequireInstitution(ctx, institutionID); err != nil {
		return nil, err
	}
	list, err := s.store.ListByInstitution(ctx, institutionID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list donations")
	}
	return list, nil
}

// Snapshot copies the whole ledger in id order.
func (s *Service) Snapshot(ctx context.Context) ([]models.DonationRecord, error) {
	list, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to snapshot donations")
	}
	return list, nil
}

func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count donations")
	}
	return n, nil
}

// Seed replays demo donations into an empty ledger. It is a no-op when the
// ledger already holds records, so restarts against Postgres do not duplicate them.
func (s *Service) Seed(ctx context.Context, seed []models.DonationRecord) (int, error) {
	n, err := s.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	for i := range seed {
		ref, err := s.receipts.Issue(ctx, seed[i].InstitutionID)
		if err != nil {
			return i, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue receipt")
		}
		rec, err := models.NewDonation(seed[i].InstitutionID, seed[i].DonorLabel, seed[i].Amount, ref, seed[i].RecordedAt)
		if err != nil {
			return i, toValidation(err)
		}
		if _, err := s.append(ctx, rec); err != nil {
			return i, err
		}
	}
	s.logger.InfoContext(ctx, "seeded demo donations", "count", len(seed))
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
