// Package client calls a remote anomaly advisor over HTTP/JSON.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"carewatch/internal/advisor/models"
	strutil "carewatch/pkg/platform/strings"
)

const maxResponseBytes = 1 << 20

// HTTP posts the donation snapshot to an advisor endpoint and decodes its report.
type HTTP struct {
	url    string
	client *http.Client
}

type Option func(*HTTP)

func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTP) {
		if c != nil {
			h.client = c
		}
	}
}

func NewHTTP(url string, opts ...Option) *HTTP {
	h := &HTTP{url: url, client: &http.Client{Timeout: 30 * time.Second}}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type donationPayload struct {
	ID            string `json:"id"`
	InstitutionID string `json:"institution_id"`
	Amount        string `json:"amount"`
	Donor         string `json:"donor"`
	Date          string `json:"date"`
}

type requestPayload struct {
	Donations []donationPayload `json:"donations"`
}

// responsePayload accepts both the findings form and the older anomalies
// form, where donationId is a comma separated list.
type responsePayload struct {
	Summary   string           `json:"summary"`
	Findings  []models.Finding `json:"findings"`
	Anomalies []struct {
		DonationID     string `json:"donationId"`
		Reason         string `json:"reason"`
		Severity       string `json:"severity"`
		Recommendation string `json:"recommendation"`
	} `json:"anomalies"`
}

func (h *HTTP) Analyze(ctx context.Context, snapshot models.Snapshot) (*models.Report, error) {
	body := requestPayload{Donations: make([]donationPayload, 0, len(snapshot))}
	for _, d := range snapshot {
		body.Donations = append(body.Donations, donationPayload{
			ID:            d.ID.String(),
			InstitutionID: d.InstitutionID.String(),
			Amount:        d.Amount.StringFixed(2),
			Donor:         d.DonorLabel,
			Date:          d.RecordedAt.UTC().Format(time.DateOnly),
		})
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode advisory request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("build advisory request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call advisor: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, fmt.Errorf("advisor returned status %d", resp.StatusCode)
	}

	var payload responsePayload
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode advisory response: %w", err)
	}
	return toReport(payload)
}

func toReport(p responsePayload) (*models.Report, error) {
	report := &models.Report{Summary: p.Summary, Findings: []models.Finding{}}
	for _, f := range p.Findings {
		sev, ok := models.ParseSeverity(string(f.Severity))
		if !ok {
			return nil, fmt.Errorf("advisor returned unknown severity %q", f.Severity)
		}
		f.Severity = sev
		report.Findings = append(report.Findings, f)
	}
	for _, a := range p.Anomalies {
		sev, ok := models.ParseSeverity(a.Severity)
		if !ok {
			return nil, fmt.Errorf("advisor returned unknown severity %q", a.Severity)
		}
		report.Findings = append(report.Findings, models.Finding{
			SubjectIDs:     strutil.SplitList(a.DonationID, ","),
			Reason:         a.Reason,
			Severity:       sev,
			Recommendation: a.Recommendation,
		})
	}
	return report, nil
}
