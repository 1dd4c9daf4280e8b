package models

import (
	"strings"
	"time"

	donationModels "carewatch/internal/donation/models"
)

type Severity string

const (
	SeverityHigh   Severity = "High"
	SeverityMedium Severity = "Medium"
	SeverityLow    Severity = "Low"
)

func (s Severity) IsValid() bool {
	return s == SeverityHigh || s == SeverityMedium || s == SeverityLow
}

// ParseSeverity is case-insensitive.
func ParseSeverity(raw string) (Severity, bool) {
	for _, s := range []Severity{SeverityHigh, SeverityMedium, SeverityLow} {
		if strings.EqualFold(strings.TrimSpace(raw), string(s)) {
			return s, true
		}
	}
	return "", false
}

// Finding flags one or more donations. SubjectIDs are donation ids.
type Finding struct {
	SubjectIDs     []string `json:"subject_ids"`
	Reason         string   `json:"reason"`
	Severity       Severity `json:"severity"`
	Recommendation string   `json:"recommendation"`
}

// Report is an advisory result. It is informational and never changes ledger state.
type Report struct {
	Summary     string    `json:"summary"`
	Findings    []Finding `json:"findings"`
	GeneratedAt time.Time `json:"generated_at"`
	// Analyzed is the number of donations in the snapshot sent to the advisor.
	Analyzed int `json:"analyzed"`
}

// Snapshot is the immutable ledger copy handed to an advisor.
type Snapshot []donationModels.DonationRecord
