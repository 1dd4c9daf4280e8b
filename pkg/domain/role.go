package domain

import (
	"strings"

	dErrors "carewatch/pkg/domain-errors"
)

// Role is the caller's actor type. It is asserted per request and never
// persisted or authenticated by the core.
//
// Usage: construct via ParseRole at trust boundaries; unknown strings are
// rejected there, while an unknown Role value reaching the access policy maps
// to no capabilities.
type Role string

const (
	RolePublic              Role = "public"
	RoleInstitutionAdmin    Role = "institution_admin"
	RoleInspector           Role = "inspector"
	RoleGovernmentAuthority Role = "government"
)

var validRoles = map[Role]bool{
	RolePublic:              true,
	RoleInstitutionAdmin:    true,
	RoleInspector:           true,
	RoleGovernmentAuthority: true,
}

// ParseRole constructs a Role from external input. Matching is case-insensitive.
func ParseRole(s string) (Role, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, "role cannot be empty")
	}
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unknown role")
	}
	return r, nil
}

func (r Role) IsValid() bool {
	return validRoles[r]
}

func (r Role) String() string {
	return string(r)
}
