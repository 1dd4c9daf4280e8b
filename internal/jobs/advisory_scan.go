// Package jobs holds the background work scheduled next to the HTTP server.
package jobs

import (
	"context"
	"log/slog"
	"time"

	advisorModels "carewatch/internal/advisor/models"
	donationModels "carewatch/internal/donation/models"
	dErrors "carewatch/pkg/domain-errors"
	"carewatch/pkg/requestcontext"
)

type Donations interface {
	Snapshot(ctx context.Context) ([]donationModels.DonationRecord, error)
}

type Analyzer interface {
	AnalyzeSnapshot(ctx context.Context, snapshot []donationModels.DonationRecord) (*advisorModels.Report, error)
}

// AdvisoryScan runs the anomaly advisor over the donation ledger and logs
// what it finds. It only reads the ledger.
type AdvisoryScan struct {
	donations Donations
	analyzer  Analyzer
	timeout   time.Duration
	logger    *slog.Logger
}

func NewAdvisoryScan(donations Donations, analyzer Analyzer, logger *slog.Logger) *AdvisoryScan {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdvisoryScan{
		donations: donations,
		analyzer:  analyzer,
		timeout:   time.Minute,
		logger:    logger,
	}
}

func (j *AdvisoryScan) Name() string {
	return "advisory_scan"
}

// Run performs one scan. An unavailable advisor is logged and is not an error.
func (j *AdvisoryScan) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()
	ctx = requestcontext.WithRequestID(ctx, "job-"+j.Name())

	snapshot, err := j.donations.Snapshot(ctx)
	if err != nil {
		return err
	}
	if len(snapshot) == 0 {
		j.logger.DebugContext(ctx, "advisory scan skipped, ledger is empty")
		return nil
	}

	report, err := j.analyzer.AnalyzeSnapshot(ctx, snapshot)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnavailable) {
			j.logger.WarnContext(ctx, "advisory scan skipped, advisor unavailable", "error", err)
			return nil
		}
		return err
	}

	j.logger.InfoContext(ctx, "advisory scan completed",
		"donations", len(snapshot),
		"findings", len(report.Findings),
		"summary", report.Summary,
	)
	for _, f := range report.Findings {
		j.logger.WarnContext(ctx, "advisory finding",
			"subject_ids", f.SubjectIDs,
			"severity", string(f.Severity),
			"reason", f.Reason,
			"recommendation", f.Recommendation,
		)
	}
	return nil
}
