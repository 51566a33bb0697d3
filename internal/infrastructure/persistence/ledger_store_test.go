package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/remitdesk/backend/internal/domain/ledger"
	"github.com/remitdesk/backend/internal/domain/shared"
)

// newMockLedgerStore creates a GormLedgerStore with a mocked SQL connection
func newMockLedgerStore(t *testing.T) (*GormLedgerStore, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormLedgerStore(gormDB), mock, mockDB
}

func invoiceRows(t *testing.T) *sqlmock.Rows {
	t.Helper()
	return sqlmock.NewRows([]string{
		"id", "transaction_id", "sender_name", "recipient_name", "pix_key",
		"amount", "credit", "balance", "notes", "source_group",
		"is_manual", "is_deleted", "received_at", "created_at", "updated_at",
	})
}

func TestGormLedgerStore_LatestBefore(t *testing.T) {
	t.Run("returns predecessor ordered by received_at and id", func(t *testing.T) {
		store, mock, mockDB := newMockLedgerStore(t)
		defer mockDB.Close()

		boundary := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
		received := boundary.Add(-time.Hour)

		rows := invoiceRows(t).
			AddRow(7, "tx-7", "Alice", "Ops", "key", "100.00", "", "350.00", "", "",
				false, false, received, received, received)

		mock.ExpectQuery(`SELECT \* FROM "invoices" WHERE is_deleted = \$1 AND received_at < \$2 ORDER BY received_at DESC, id DESC,.* LIMIT .*`).
			WithArgs(false, boundary, 1).
			WillReturnRows(rows)

		invoice, err := store.LatestBefore(context.Background(), boundary)

		require.NoError(t, err)
		require.NotNil(t, invoice)
		assert.Equal(t, uint64(7), invoice.ID)
		assert.Equal(t, "350.00", invoice.Balance)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns nil without error when no predecessor exists", func(t *testing.T) {
		store, mock, mockDB := newMockLedgerStore(t)
		defer mockDB.Close()

		boundary := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

		mock.ExpectQuery(`SELECT \* FROM "invoices"`).
			WithArgs(false, boundary, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		invoice, err := store.LatestBefore(context.Background(), boundary)

		require.NoError(t, err)
		assert.Nil(t, invoice)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormLedgerStore_ListFrom(t *testing.T) {
	store, mock, mockDB := newMockLedgerStore(t)
	defer mockDB.Close()

	boundary := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	r1 := boundary.Add(time.Hour)
	r2 := boundary.Add(2 * time.Hour)

	rows := invoiceRows(t).
		AddRow(1, "tx-1", "A", "B", "k", "10.00", "", "", "", "", false, false, r1, r1, r1).
		AddRow(2, "tx-2", "C", "D", "k", "20.00", "5.00", "", "", "", false, false, r2, r2, r2)

	mock.ExpectQuery(`SELECT \* FROM "invoices" WHERE is_deleted = \$1 AND received_at >= \$2 ORDER BY received_at ASC, id ASC`).
		WithArgs(false, boundary).
		WillReturnRows(rows)

	invoices, err := store.ListFrom(context.Background(), boundary)

	require.NoError(t, err)
	require.Len(t, invoices, 2)
	assert.Equal(t, uint64(1), invoices[0].ID)
	assert.Equal(t, uint64(2), invoices[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormLedgerStore_UpdateBalance(t *testing.T) {
	store, mock, mockDB := newMockLedgerStore(t)
	defer mockDB.Close()

	mock.ExpectExec(`UPDATE "invoices" SET "balance"=\$1,"updated_at"=\$2 WHERE id = \$3`).
		WithArgs("1,250.00", sqlmock.AnyArg(), uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.UpdateBalance(context.Background(), 9, "1,250.00")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormLedgerStore_FindByID(t *testing.T) {
	t.Run("returns ErrNotFound for missing invoice", func(t *testing.T) {
		store, mock, mockDB := newMockLedgerStore(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "invoices" WHERE id = \$1`).
			WithArgs(uint64(42), 1).
			WillReturnError(gorm.ErrRecordNotFound)

		invoice, err := store.FindByID(context.Background(), 42)

		assert.Nil(t, invoice)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormLedgerStore_Delete(t *testing.T) {
	t.Run("deletes existing invoice", func(t *testing.T) {
		store, mock, mockDB := newMockLedgerStore(t)
		defer mockDB.Close()

		mock.ExpectExec(`DELETE FROM "invoices" WHERE id = \$1`).
			WithArgs(uint64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := store.Delete(context.Background(), 3)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound when nothing was deleted", func(t *testing.T) {
		store, mock, mockDB := newMockLedgerStore(t)
		defer mockDB.Close()

		mock.ExpectExec(`DELETE FROM "invoices" WHERE id = \$1`).
			WithArgs(uint64(3)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := store.Delete(context.Background(), 3)

		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormUnitOfWork_TakesAdvisoryLock(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	dialector := postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"})
	gormDB, err := gorm.Open(dialector, &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	uow := NewGormUnitOfWork(&Database{DB: gormDB})

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock\(\$1\)`).
		WithArgs(int64(ledgerLockKey)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	var sawTx bool
	err = uow.WithinLedger(context.Background(), func(tx ledger.LedgerTx) error {
		sawTx = tx != nil
		return nil
	})

	require.NoError(t, err)
	assert.True(t, sawTx)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormUnitOfWork_RollsBackOnError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	dialector := postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"})
	gormDB, err := gorm.Open(dialector, &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	uow := NewGormUnitOfWork(&Database{DB: gormDB})

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock\(\$1\)`).
		WithArgs(int64(ledgerLockKey)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	wantErr := assert.AnError
	err = uow.WithinLedger(context.Background(), func(tx ledger.LedgerTx) error {
		return wantErr
	})

	assert.ErrorIs(t, err, wantErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}
