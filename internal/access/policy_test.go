package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carewatch/pkg/domain"
	dErrors "carewatch/pkg/domain-errors"
)

var allCapabilities = []Capability{Donate, BookVisit, LogExpenditure, ViewFundDetail, ConductInspection, ViewInspections}

func TestCan_Table(t *testing.T) {
	want := map[domain.Role][]Capability{
		domain.RolePublic:              {Donate, BookVisit},
		domain.RoleInstitutionAdmin:    {Donate, LogExpenditure, ViewFundDetail},
		domain.RoleInspector:           {ConductInspection, ViewInspections},
		domain.RoleGovernmentAuthority: {ViewFundDetail},
	}

	for role, granted := range want {
		for _, c := range allCapabilities {
			expected := false
			for _, g := range granted {
				if g == c {
					expected = true
				}
			}
			assert.Equal(t, expected, Can(role, c), "role=%s capability=%s", role, c)
		}
	}
}

func TestCan_UnknownRoleHasNothing(t *testing.T) {
	for _, role := range []domain.Role{"", "superuser"} {
		for _, c := range allCapabilities {
			assert.False(t, Can(role, c))
		}
		assert.Empty(t, Capabilities(role))
	}
}

func TestRequire(t *testing.T) {
	require.NoError(t, Require(domain.RoleInstitutionAdmin, LogExpenditure))

	err := Require(domain.RolePublic, LogExpenditure)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

	de, ok := dErrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "log_expenditure", de.Meta["capability"])
}

func TestCapabilities_ReturnsCopy(t *testing.T) {
	caps := Capabilities(domain.RolePublic)
	caps[0] = ConductInspection
	assert.False(t, Can(domain.RolePublic, ConductInspection))
}
