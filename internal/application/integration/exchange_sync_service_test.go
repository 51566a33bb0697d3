package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/remitdesk/backend/internal/domain/integration"
	"github.com/remitdesk/backend/internal/domain/shared"
)

type mockExchangeStatementGateway struct {
	mock.Mock
}

func (m *mockExchangeStatementGateway) FetchTransactions(ctx context.Context, from, to time.Time) ([]*integration.ExchangeTransaction, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*integration.ExchangeTransaction), args.Error(1)
}

func (m *mockExchangeStatementGateway) ListSubaccounts(ctx context.Context) ([]*integration.ExchangeSubaccount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*integration.ExchangeSubaccount), args.Error(1)
}

type mockExchangeTransactionRepo struct {
	mock.Mock
}

func (m *mockExchangeTransactionRepo) Upsert(ctx context.Context, tx *integration.ExchangeTransaction) (bool, error) {
	args := m.Called(ctx, tx)
	return args.Bool(0), args.Error(1)
}

func (m *mockExchangeTransactionRepo) ListRecent(ctx context.Context, limit int) ([]*integration.ExchangeTransaction, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*integration.ExchangeTransaction), args.Error(1)
}

func exchangeTx(externalID, value string, date time.Time) *integration.ExchangeTransaction {
	return &integration.ExchangeTransaction{
		ExternalID:      externalID,
		Subaccount:      "SUB-1",
		Operation:       integration.OperationCredit,
		Value:           value,
		TransactionDate: date,
	}
}

func TestExchangeSyncService_Sync_UpsertsWindow(t *testing.T) {
	gw := new(mockExchangeStatementGateway)
	txRepo := new(mockExchangeTransactionRepo)
	cursors := new(mockCursorRepo)

	date := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	txs := []*integration.ExchangeTransaction{
		exchangeTx("X-1", "100.00", date),
		exchangeTx("X-2", "50.00", date),
	}

	gw.On("FetchTransactions", mock.Anything, mock.Anything, mock.Anything).Return(txs, nil)
	txRepo.On("Upsert", mock.Anything, txs[0]).Return(true, nil)
	txRepo.On("Upsert", mock.Anything, txs[1]).Return(false, nil)
	cursors.On("Get", mock.Anything, integration.SourceExchange).Return(&integration.SyncCursor{Source: integration.SourceExchange}, nil)
	cursors.On("Save", mock.Anything, mock.MatchedBy(func(c *integration.SyncCursor) bool {
		return c.Source == integration.SourceExchange && c.LastStatus == "SUCCESS"
	})).Return(nil)

	svc := NewExchangeSyncService(gw, txRepo, cursors, 3, zap.NewNop())

	result, err := svc.Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Fetched)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Refreshed)
	gw.AssertExpectations(t)
	txRepo.AssertExpectations(t)
	cursors.AssertExpectations(t)
}

func TestExchangeSyncService_Sync_GatewayFailureMarksCursor(t *testing.T) {
	gw := new(mockExchangeStatementGateway)
	txRepo := new(mockExchangeTransactionRepo)
	cursors := new(mockCursorRepo)

	wantErr := errors.New("exchange unavailable")
	gw.On("FetchTransactions", mock.Anything, mock.Anything, mock.Anything).Return(nil, wantErr)
	cursors.On("Get", mock.Anything, integration.SourceExchange).Return(nil, shared.ErrNotFound)
	cursors.On("Save", mock.Anything, mock.MatchedBy(func(c *integration.SyncCursor) bool {
		return c.LastStatus == "FAILED" && c.LastError == "exchange unavailable"
	})).Return(nil)

	svc := NewExchangeSyncService(gw, txRepo, cursors, 3, zap.NewNop())

	_, err := svc.Sync(context.Background())
	assert.ErrorIs(t, err, wantErr)
	cursors.AssertExpectations(t)
}

func TestExchangeSyncService_Sync_SkipsEntriesWithoutExternalID(t *testing.T) {
	gw := new(mockExchangeStatementGateway)
	txRepo := new(mockExchangeTransactionRepo)
	cursors := new(mockCursorRepo)

	date := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	gw.On("FetchTransactions", mock.Anything, mock.Anything, mock.Anything).
		Return([]*integration.ExchangeTransaction{exchangeTx("", "10.00", date)}, nil)
	cursors.On("Get", mock.Anything, integration.SourceExchange).Return(nil, shared.ErrNotFound)
	cursors.On("Save", mock.Anything, mock.Anything).Return(nil)

	svc := NewExchangeSyncService(gw, txRepo, cursors, 3, zap.NewNop())

	result, err := svc.Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.Created)
	txRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestExchangeSyncService_Status_NeverSynced(t *testing.T) {
	cursors := new(mockCursorRepo)
	cursors.On("Get", mock.Anything, integration.SourceExchange).Return(nil, shared.ErrNotFound)

	svc := NewExchangeSyncService(new(mockExchangeStatementGateway), new(mockExchangeTransactionRepo), cursors, 3, zap.NewNop())

	cursor, err := svc.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, integration.SourceExchange, cursor.Source)
	assert.True(t, cursor.LastSyncedAt.IsZero())
}

func TestExchangeSyncService_Subaccounts(t *testing.T) {
	gw := new(mockExchangeStatementGateway)
	subs := []*integration.ExchangeSubaccount{
		{Number: "SUB-1", Name: "alpha", Balance: "1,250.00"},
		{Number: "SUB-2", Name: "beta", Balance: "0.00"},
	}
	gw.On("ListSubaccounts", mock.Anything).Return(subs, nil)

	svc := NewExchangeSyncService(gw, new(mockExchangeTransactionRepo), new(mockCursorRepo), 3, zap.NewNop())

	got, err := svc.Subaccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "SUB-1", got[0].Number)
	gw.AssertExpectations(t)
}
