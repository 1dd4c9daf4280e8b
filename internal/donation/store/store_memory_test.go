package store

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carewatch/internal/donation/models"
	"carewatch/pkg/domain"
)

func TestInMemory_AppendAssignsIncreasingIDs(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	a, err := s.Append(ctx, &models.DonationRecord{InstitutionID: "O001", Amount: decimal.NewFromInt(10)})
	require.NoError(t, err)
	b, err := s.Append(ctx, &models.DonationRecord{InstitutionID: "O002", Amount: decimal.NewFromInt(20)})
	require.NoError(t, err)
	c, err := s.Append(ctx, &models.DonationRecord{InstitutionID: "O001", Amount: decimal.NewFromInt(30)})
	require.NoError(t, err)

	assert.Equal(t, domain.DonationID(1), a.ID)
	assert.Equal(t, domain.DonationID(2), b.ID)
	assert.Equal(t, domain.DonationID(3), c.ID)

	o1, err := s.ListByInstitution(ctx, "O001")
	require.NoError(t, err)
	require.Len(t, o1, 2)
	assert.Equal(t, a.ID, o1[0].ID)
	assert.Equal(t, c.ID, o1[1].ID)

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []domain.DonationID{1, 2, 3}, []domain.DonationID{all[0].ID, all[1].ID, all[2].ID})
}

func TestInMemory_ReturnsCopies(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	rec := &models.DonationRecord{InstitutionID: "O001", DonorLabel: "Rahul", Amount: decimal.NewFromInt(10)}
	_, err := s.Append(ctx, rec)
	require.NoError(t, err)

	rec.DonorLabel = "changed"
	list, err := s.ListByInstitution(ctx, "O001")
	require.NoError(t, err)
	list[0].DonorLabel = "changed again"

	again, err := s.ListByInstitution(ctx, "O001")
	require.NoError(t, err)
	assert.Equal(t, "Rahul", again[0].DonorLabel)
}

func TestInMemory_ConcurrentAppendsAreContiguous(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	const n = 50

	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inst := domain.InstitutionID("O001")
			if i%2 == 1 {
				inst = "O002"
			}
			_, err := s.Append(ctx, &models.DonationRecord{InstitutionID: inst, Amount: decimal.NewFromInt(1)})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, n)
	for i, rec := range all {
		assert.Equal(t, domain.DonationID(i+1), rec.ID)
	}
}

func TestInMemory_AppendHonoursCancelledContext(t *testing.T) {
	s := NewInMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Append(ctx, &models.DonationRecord{InstitutionID: "O001", Amount: decimal.NewFromInt(1)})
	require.Error(t, err)
	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
