// Package service guards calls to the anomaly advisor. The advisor is
// advisory only: every failure mode degrades to advisory_unavailable and
// nothing here writes to a ledger.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"carewatch/internal/access"
	"carewatch/internal/advisor/metrics"
	"carewatch/internal/advisor/models"
	donationModels "carewatch/internal/donation/models"
	"carewatch/pkg/domain"
	dErrors "carewatch/pkg/domain-errors"
	audit "carewatch/pkg/platform/audit"
	"carewatch/pkg/platform/circuit"
	"carewatch/pkg/requestcontext"
)

var tracer = otel.Tracer("carewatch/advisor")

const DefaultTimeout = 10 * time.Second

const (
	outcomeOK            = "ok"
	outcomeTimeout       = "timeout"
	outcomeError         = "error"
	outcomeCircuitOpen   = "circuit_open"
	outcomeNotConfigured = "not_configured"
)

// Advisor analyzes a donation snapshot. Implementations must not retain or
// mutate the snapshot.
type Advisor interface {
	Analyze(ctx context.Context, snapshot models.Snapshot) (*models.Report, error)
}

// Donations supplies the ledger snapshot.
type Donations interface {
	Snapshot(ctx context.Context) ([]donationModels.DonationRecord, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	advisor   Advisor
	donations Donations
	breaker   *circuit.Breaker
	timeout   time.Duration
	auditor   AuditPublisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

type Option func(*Service)

func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(s *Service) {
		if b != nil {
			s.breaker = b
		}
	}
}

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

// New builds the guarded caller. advisor may be nil, in which case every
// analysis reports advisory_unavailable.
func New(advisor Advisor, donations Donations, opts ...Option) *Service {
	s := &Service{
		advisor:   advisor,
		donations: donations,
		breaker:   circuit.New("advisor"),
		timeout:   DefaultTimeout,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AnalyzeDonations runs the advisor over the current donation ledger.
func (s *Service) AnalyzeDonations(ctx context.Context, role domain.Role) (*models.Report, error) {
	if err := access.Require(role, access.ViewFundDetail); err != nil {
		return nil, err
	}
	snapshot, err := s.donations.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	report, err := s.AnalyzeSnapshot(ctx, snapshot)
	if err != nil {
		return nil, err
	}
	s.emitAudit(ctx, audit.NewEvent(ctx, audit.EventAdvisoryRequested, "", ""))
	return report, nil
}

// AnalyzeSnapshot calls the advisor with a bounded deadline. It does not check
// capabilities; the scheduled scan uses it directly.
func (s *Service) AnalyzeSnapshot(ctx context.Context, snapshot []donationModels.DonationRecord) (*models.Report, error) {
	ctx, span := tracer.Start(ctx, "advisor.Analyze")
	defer span.End()
	span.SetAttributes(attribute.Int("snapshot_size", len(snapshot)))

	report, outcome, err := s.call(ctx, snapshot)
	s.metrics.IncrementCall(outcome)
	span.SetAttributes(attribute.String("outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		s.logger.WarnContext(ctx, "advisory unavailable",
			"request_id", requestcontext.RequestID(ctx),
			"outcome", outcome,
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "advisory service is unavailable").
			WithMeta("reason", outcome)
	}
	for _, f := range report.Findings {
		s.metrics.IncrementFindings(string(f.Severity))
	}
	span.SetAttributes(attribute.Int("findings", len(report.Findings)))
	return report, nil
}

var errNotConfigured = errors.New("no advisor configured")
var errCircuitOpen = errors.New("advisor circuit is open")

func (s *Service) call(ctx context.Context, snapshot []donationModels.DonationRecord) (*models.Report, string, error) {
	if s.advisor == nil {
		return nil, outcomeNotConfigured, errNotConfigured
	}
	if !s.breaker.Allow() {
		return nil, outcomeCircuitOpen, errCircuitOpen
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// The advisor gets its own copy so it cannot reach ledger state.
	frozen := make(models.Snapshot, len(snapshot))
	copy(frozen, snapshot)

	start := time.Now()
	report, err := s.analyze(callCtx, frozen)
	s.metrics.ObserveDuration(time.Since(start))
	if err != nil {
		s.recordFailure(ctx)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, outcomeTimeout, err
		}
		return nil, outcomeError, err
	}
	if report == nil {
		s.recordFailure(ctx)
		return nil, outcomeError, errors.New("advisor returned no report")
	}
	s.recordSuccess(ctx)

	out := *report
	out.Analyzed = len(frozen)
	if out.GeneratedAt.IsZero() {
		out.GeneratedAt = requestcontext.Now(ctx)
	}
	if out.Findings == nil {
		out.Findings = []models.Finding{}
	}
	return &out, outcomeOK, nil
}

// analyze runs the advisor in its own goroutine so an implementation that
// ignores its context still cannot hold the caller past the deadline.
func (s *Service) analyze(ctx context.Context, snapshot models.Snapshot) (*models.Report, error) {
	type result struct {
		report *models.Report
		err    error
	}
	done := make(chan result, 1)
	go func() {
		r, err := s.advisor.Analyze(ctx, snapshot)
		done <- result{r, err}
	}()
	select {
	case res := <-done:
		return res.report, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Service) recordFailure(ctx context.Context) {
	_, change := s.breaker.RecordFailure()
	if change.Opened {
		s.metrics.SetCircuitOpen(true)
		s.logger.WarnContext(ctx, "advisor circuit opened", "breaker", s.breaker.Name())
	}
}

func (s *Service) recordSuccess(ctx context.Context) {
	_, change := s.breaker.RecordSuccess()
	if change.Closed {
		s.metrics.SetCircuitOpen(false)
		s.logger.InfoContext(ctx, "advisor circuit closed", "breaker", s.breaker.Name())
	}
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
