package models

import (
	"carewatch/pkg/domain"
)

type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Need is an item the institution has asked donors for.
type Need struct {
	Item     string   `json:"item"`
	Quantity int      `json:"quantity"`
	Priority Priority `json:"priority"`
}

// UtilizationShare is one slice of the publicly reported fund breakdown.
// Informational only; it is not derived from the allocation ledger.
type UtilizationShare struct {
	Category   string `json:"category"`
	Percentage int    `json:"percentage"`
}

// Institution is immutable reference data owned by the catalog.
type Institution struct {
	ID              domain.InstitutionID `json:"id"`
	Name            string               `json:"name"`
	Location        string               `json:"location"`
	ImageURL        string               `json:"image_url"`
	Description     string               `json:"description"`
	Verified        bool                 `json:"is_verified"`
	RegistrationID  string               `json:"registration_id"`
	ChildrenCount   int                  `json:"children_count"`
	Needs           []Need               `json:"needs"`
	FundUtilization []UtilizationShare   `json:"fund_utilization"`
}

// Clone returns a deep copy so callers cannot mutate catalog state.
func (i Institution) Clone() Institution {
	out := i
	out.Needs = append([]Need(nil), i.Needs...)
	out.FundUtilization = append([]UtilizationShare(nil), i.FundUtilization...)
	return out
}

type InspectionStatus string

const (
	InspectionPending        InspectionStatus = "Pending"
	InspectionCompleted      InspectionStatus = "Completed"
	InspectionActionRequired InspectionStatus = "Action Required"
)

// Scores are percentages; a pending inspection carries zeros.
type Scores struct {
	Hygiene    int `json:"hygiene"`
	Safety     int `json:"safety"`
	Nutrition  int `json:"nutrition"`
	Compliance int `json:"compliance"`
}

type InspectionReport struct {
	ID            string               `json:"id"`
	InstitutionID domain.InstitutionID `json:"institution_id"`
	InspectorID   string               `json:"inspector_id"`
	Date          domain.Date          `json:"date"`
	Status        InspectionStatus     `json:"status"`
	Summary       string               `json:"summary"`
	Scores        Scores               `json:"scores"`
}
