package tx

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_CommitsOnSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO donations").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err = Run(context.Background(), db, func(ctx context.Context) error {
		_, ok := From(ctx)
		assert.True(t, ok)
		_, err := Or(ctx, db).ExecContext(ctx, "INSERT INTO donations DEFAULT VALUES")
		return err
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_RollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("seed failed")
	err = Run(context.Background(), db, func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_ReusesOuterTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	err = Run(context.Background(), db, func(outer context.Context) error {
		outerTx, _ := From(outer)
		return Run(outer, db, func(inner context.Context) error {
			innerTx, _ := From(inner)
			assert.Same(t, outerTx, innerTx)
			return nil
		})
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOr_WithoutTransactionUsesDB(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	assert.Same(t, db, Or(context.Background(), db))
}
