package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carewatch/internal/catalog/models"
)

func TestInMemory_FindByID(t *testing.T) {
	s := NewSeeded()

	inst, err := s.FindByID(context.Background(), "O001")
	require.NoError(t, err)
	assert.Equal(t, "Asha Kiran Children's Home", inst.Name)
	assert.True(t, inst.Verified)

	_, err = s.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemory_DuplicateIDsKeepLastAndSingleOrderEntry(t *testing.T) {
	s := New([]models.Institution{
		{ID: "A", Name: "first"},
		{ID: "A", Name: "second"},
	}, nil)

	list, err := s.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "second", list[0].Name)
}

func TestInMemory_ListInspectionsReturnsCopy(t *testing.T) {
	s := NewSeeded()
	reports, err := s.ListInspections(context.Background())
	require.NoError(t, err)
	reports[0].Summary = "changed"

	again, err := s.ListInspections(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, "changed", again[0].Summary)
}
