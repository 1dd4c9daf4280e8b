// Package access is the static role to capability table. Every gated
// operation asks it through Require before touching state.
package access

import (
	"slices"

	"carewatch/pkg/domain"
	dErrors "carewatch/pkg/domain-errors"
)

// Capability is a named permission checked by one or more operations.
type Capability string

const (
	Donate            Capability = "donate"
	BookVisit         Capability = "book_visit"
	LogExpenditure    Capability = "log_expenditure"
	ViewFundDetail    Capability = "view_fund_detail"
	ConductInspection Capability = "conduct_inspection"
	ViewInspections   Capability = "view_inspections"
)

// table is immutable after package init.
var table = map[domain.Role][]Capability{
	domain.RolePublic:              {Donate, BookVisit},
	domain.RoleInstitutionAdmin:    {Donate, LogExpenditure, ViewFundDetail},
	domain.RoleInspector:           {ConductInspection, ViewInspections},
	domain.RoleGovernmentAuthority: {ViewFundDetail},
}

// Can reports whether role holds capability. Unknown roles hold nothing.
func Can(role domain.Role, capability Capability) bool {
	return slices.Contains(table[role], capability)
}

// Require returns a forbidden error when role lacks capability.
func Require(role domain.Role, capability Capability) error {
	if Can(role, capability) {
		return nil
	}
	return dErrors.New(dErrors.CodeForbidden, "role is not permitted to perform this action").
		WithMeta("role", string(role)).
		WithMeta("capability", string(capability))
}

// Capabilities returns a copy of role's capability set.
func Capabilities(role domain.Role) []Capability {
	return slices.Clone(table[role])
}
