package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carewatch/internal/allocation/models"
	"carewatch/pkg/domain"
)

func TestPostgres_Append(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).
		WithArgs("fund_allocations:O002").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO fund_allocations")).
		WithArgs("O002", "Government", sqlmock.AnyArg(), "Infrastructure", "proofs/O002/x-inv.pdf", now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(9)))
	mock.ExpectCommit()

	rec, err := NewPostgres(db).Append(context.Background(), &models.FundAllocationRecord{
		InstitutionID: "O002",
		Source:        models.SourceGovernment,
		Amount:        decimal.NewFromInt(50000),
		UsageCategory: models.UsageInfrastructure,
		ProofRef:      "proofs/O002/x-inv.pdf",
		RecordedAt:    now,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.AllocationID(9), rec.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_AppendError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("INSERT INTO fund_allocations").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()
	_, err = NewPostgres(db).Append(context.Background(), &models.FundAllocationRecord{InstitutionID: "O002"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert allocation")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_AppendLockFailureInsertsNothing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").WithArgs("fund_allocations:O002").
		WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()

	_, err = NewPostgres(db).Append(context.Background(), &models.FundAllocationRecord{InstitutionID: "O002"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "advisory lock")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListByInstitution(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ts := time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "institution_id", "source", "amount", "usage_category", "proof_ref", "recorded_at"}).
		AddRow(int64(1), "O001", "Government", "50000.00", "Infrastructure", "proofs/O001/a.pdf", ts).
		AddRow(int64(2), "O001", "Public Donation", "15000.00", "Education", "proofs/O001/b.pdf", ts)
	mock.ExpectQuery("SELECT id, institution_id, source").WithArgs("O001").WillReturnRows(rows)

	list, err := NewPostgres(db).ListByInstitution(context.Background(), "O001")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, models.SourcePublicDonation, list[1].Source)
	assert.Equal(t, models.UsageEducation, list[1].UsageCategory)
	assert.True(t, decimal.NewFromInt(15000).Equal(list[1].Amount))
	require.NoError(t, mock.ExpectationsWereMet())
}
