package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	integrationapp "github.com/remitdesk/backend/internal/application/integration"
	"github.com/remitdesk/backend/internal/domain/integration"
	"github.com/remitdesk/backend/internal/domain/ledger"
	"github.com/remitdesk/backend/internal/domain/shared"
)

// MockBankGateway implements integration.BankGateway
type MockBankGateway struct {
	mock.Mock
}

func (m *MockBankGateway) FetchTransactions(ctx context.Context, from, to time.Time) ([]*integration.BankTransaction, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*integration.BankTransaction), args.Error(1)
}

// MockBankTransactionRepository implements integration.BankTransactionRepository
type MockBankTransactionRepository struct {
	mock.Mock
}

func (m *MockBankTransactionRepository) Upsert(ctx context.Context, tx *integration.BankTransaction) (bool, error) {
	args := m.Called(ctx, tx)
	return args.Bool(0), args.Error(1)
}

func (m *MockBankTransactionRepository) FindByEndToEndID(ctx context.Context, endToEndID string) (*integration.BankTransaction, error) {
	args := m.Called(ctx, endToEndID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.BankTransaction), args.Error(1)
}

func (m *MockBankTransactionRepository) ListRecent(ctx context.Context, limit int) ([]*integration.BankTransaction, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*integration.BankTransaction), args.Error(1)
}

// MockSyncCursorRepository implements integration.SyncCursorRepository
type MockSyncCursorRepository struct {
	mock.Mock
}

func (m *MockSyncCursorRepository) Get(ctx context.Context, source string) (*integration.SyncCursor, error) {
	args := m.Called(ctx, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.SyncCursor), args.Error(1)
}

func (m *MockSyncCursorRepository) Save(ctx context.Context, cursor *integration.SyncCursor) error {
	return m.Called(ctx, cursor).Error(0)
}

// MockExchangeStatementGateway implements integration.ExchangeStatementGateway
type MockExchangeStatementGateway struct {
	mock.Mock
}

func (m *MockExchangeStatementGateway) FetchTransactions(ctx context.Context, from, to time.Time) ([]*integration.ExchangeTransaction, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*integration.ExchangeTransaction), args.Error(1)
}

func (m *MockExchangeStatementGateway) ListSubaccounts(ctx context.Context) ([]*integration.ExchangeSubaccount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*integration.ExchangeSubaccount), args.Error(1)
}

// MockExchangeTransactionRepository implements integration.ExchangeTransactionRepository
type MockExchangeTransactionRepository struct {
	mock.Mock
}

func (m *MockExchangeTransactionRepository) Upsert(ctx context.Context, tx *integration.ExchangeTransaction) (bool, error) {
	args := m.Called(ctx, tx)
	return args.Bool(0), args.Error(1)
}

func (m *MockExchangeTransactionRepository) ListRecent(ctx context.Context, limit int) ([]*integration.ExchangeTransaction, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*integration.ExchangeTransaction), args.Error(1)
}

// MockUSDTVerifier implements integration.USDTVerifier
type MockUSDTVerifier struct {
	mock.Mock
}

func (m *MockUSDTVerifier) ConfirmTransfer(ctx context.Context, txID, recipient string, amount decimal.Decimal) (*integration.TransferCheck, error) {
	args := m.Called(ctx, txID, recipient, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.TransferCheck), args.Error(1)
}

type syncTestEnv struct {
	engine    *gin.Engine
	gateway   *MockBankGateway
	txRepo    *MockBankTransactionRepository
	cursors   *MockSyncCursorRepository
	exGateway *MockExchangeStatementGateway
	exTxRepo  *MockExchangeTransactionRepository
	verifier  *MockUSDTVerifier
}

func newSyncTestRouter(t *testing.T) *syncTestEnv {
	t.Helper()
	env := &syncTestEnv{
		gateway:   new(MockBankGateway),
		txRepo:    new(MockBankTransactionRepository),
		cursors:   new(MockSyncCursorRepository),
		exGateway: new(MockExchangeStatementGateway),
		exTxRepo:  new(MockExchangeTransactionRepository),
		verifier:  new(MockUSDTVerifier),
	}

	store := newMemoryLedger()
	syncSvc := integrationapp.NewBankSyncService(
		env.gateway, env.txRepo, env.cursors,
		store, ledger.NewRecalculator(zap.NewNop()),
		3, true, zap.NewNop(),
	)
	exchangeSvc := integrationapp.NewExchangeSyncService(
		env.exGateway, env.exTxRepo, env.cursors, 3, zap.NewNop(),
	)
	usdtSvc := integrationapp.NewUSDTService(env.verifier, env.cursors, zap.NewNop())

	env.engine = gin.New()
	api := env.engine.Group("/api/v1")
	NewSyncHandler(syncSvc, exchangeSvc, usdtSvc, env.txRepo, env.exTxRepo).RegisterRoutes(api)
	return env
}

func TestSyncHandler_TriggerBankSync(t *testing.T) {
	env := newSyncTestRouter(t)

	entry := &integration.BankTransaction{
		EndToEndID:      "E2E-1",
		Operation:       integration.OperationCredit,
		Value:           "150.00",
		TransactionDate: time.Date(2026, 5, 10, 10, 0, 0, 0, time.UTC),
	}
	env.cursors.On("Get", mock.Anything, integration.SourceBank).Return(nil, shared.ErrNotFound)
	env.gateway.On("FetchTransactions", mock.Anything, mock.Anything, mock.Anything).
		Return([]*integration.BankTransaction{entry}, nil)
	env.txRepo.On("Upsert", mock.Anything, entry).Return(true, nil)
	env.cursors.On("Save", mock.Anything, mock.AnythingOfType("*integration.SyncCursor")).Return(nil)

	w := doJSON(t, env.engine, http.MethodPost, "/api/v1/sync/bank", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp SyncResultResponse
	decodeData(t, w, &resp)
	assert.Equal(t, 1, resp.Fetched)
	assert.Equal(t, 1, resp.Created)
	assert.Equal(t, 1, resp.Ingested)
	env.gateway.AssertExpectations(t)
	env.txRepo.AssertExpectations(t)
}

func TestSyncHandler_BankSyncStatus_NeverSynced(t *testing.T) {
	env := newSyncTestRouter(t)
	env.cursors.On("Get", mock.Anything, integration.SourceBank).Return(nil, shared.ErrNotFound)

	w := doJSON(t, env.engine, http.MethodGet, "/api/v1/sync/bank/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp SyncStatusResponse
	decodeData(t, w, &resp)
	assert.Equal(t, integration.SourceBank, resp.Source)
	assert.Nil(t, resp.LastSyncedAt)
}

func TestSyncHandler_BankSyncStatus_WithCursor(t *testing.T) {
	env := newSyncTestRouter(t)

	at := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	cursor := &integration.SyncCursor{Source: integration.SourceBank}
	cursor.MarkSuccess(at)
	env.cursors.On("Get", mock.Anything, integration.SourceBank).Return(cursor, nil)

	w := doJSON(t, env.engine, http.MethodGet, "/api/v1/sync/bank/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp SyncStatusResponse
	decodeData(t, w, &resp)
	assert.Equal(t, "SUCCESS", resp.LastStatus)
	require.NotNil(t, resp.LastSyncedAt)
	assert.True(t, resp.LastSyncedAt.Equal(at))
}

func TestSyncHandler_RecentTransactions(t *testing.T) {
	env := newSyncTestRouter(t)

	txs := []*integration.BankTransaction{
		{ID: 2, EndToEndID: "E2E-2", Operation: integration.OperationDebit, Value: "20.00"},
		{ID: 1, EndToEndID: "E2E-1", Operation: integration.OperationCredit, Value: "10.00"},
	}
	env.txRepo.On("ListRecent", mock.Anything, 2).Return(txs, nil)

	w := doJSON(t, env.engine, http.MethodGet, "/api/v1/sync/bank/transactions?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp []BankTransactionResponse
	decodeData(t, w, &resp)
	require.Len(t, resp, 2)
	assert.Equal(t, "E2E-2", resp[0].EndToEndID)
	assert.Equal(t, "D", resp[0].Operation)
}

func TestSyncHandler_RecentTransactions_BadLimit(t *testing.T) {
	env := newSyncTestRouter(t)

	w := doJSON(t, env.engine, http.MethodGet, "/api/v1/sync/bank/transactions?limit=9999", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env.txRepo.AssertNotCalled(t, "ListRecent", mock.Anything, mock.Anything)
}

func TestSyncHandler_TriggerExchangeSync(t *testing.T) {
	env := newSyncTestRouter(t)

	entry := &integration.ExchangeTransaction{
		ExternalID:      "XP-1",
		Subaccount:      "sub-alpha",
		Operation:       integration.OperationCredit,
		Value:           "300.00",
		TransactionDate: time.Date(2026, 5, 10, 10, 0, 0, 0, time.UTC),
	}
	env.cursors.On("Get", mock.Anything, integration.SourceExchange).Return(nil, shared.ErrNotFound)
	env.exGateway.On("FetchTransactions", mock.Anything, mock.Anything, mock.Anything).
		Return([]*integration.ExchangeTransaction{entry}, nil)
	env.exTxRepo.On("Upsert", mock.Anything, entry).Return(true, nil)
	env.cursors.On("Save", mock.Anything, mock.AnythingOfType("*integration.SyncCursor")).Return(nil)

	w := doJSON(t, env.engine, http.MethodPost, "/api/v1/sync/exchange", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp SyncResultResponse
	decodeData(t, w, &resp)
	assert.Equal(t, 1, resp.Fetched)
	assert.Equal(t, 1, resp.Created)
	assert.Equal(t, 0, resp.Ingested)
	env.exGateway.AssertExpectations(t)
	env.exTxRepo.AssertExpectations(t)
}

func TestSyncHandler_ExchangeSyncStatus_NeverSynced(t *testing.T) {
	env := newSyncTestRouter(t)
	env.cursors.On("Get", mock.Anything, integration.SourceExchange).Return(nil, shared.ErrNotFound)

	w := doJSON(t, env.engine, http.MethodGet, "/api/v1/sync/exchange/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp SyncStatusResponse
	decodeData(t, w, &resp)
	assert.Equal(t, integration.SourceExchange, resp.Source)
	assert.Nil(t, resp.LastSyncedAt)
}

func TestSyncHandler_RecentExchangeTransactions(t *testing.T) {
	env := newSyncTestRouter(t)

	txs := []*integration.ExchangeTransaction{
		{ID: 2, ExternalID: "XP-2", Subaccount: "sub-beta", Operation: integration.OperationDebit, Value: "45.00"},
		{ID: 1, ExternalID: "XP-1", Subaccount: "sub-alpha", Operation: integration.OperationCredit, Value: "300.00"},
	}
	env.exTxRepo.On("ListRecent", mock.Anything, 2).Return(txs, nil)

	w := doJSON(t, env.engine, http.MethodGet, "/api/v1/sync/exchange/transactions?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp []ExchangeTransactionResponse
	decodeData(t, w, &resp)
	require.Len(t, resp, 2)
	assert.Equal(t, "XP-2", resp[0].ExternalID)
	assert.Equal(t, "D", resp[0].Operation)
}

func TestSyncHandler_RecentExchangeTransactions_BadLimit(t *testing.T) {
	env := newSyncTestRouter(t)

	w := doJSON(t, env.engine, http.MethodGet, "/api/v1/sync/exchange/transactions?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env.exTxRepo.AssertNotCalled(t, "ListRecent", mock.Anything, mock.Anything)
}

func TestSyncHandler_ExchangeSubaccounts(t *testing.T) {
	env := newSyncTestRouter(t)

	subs := []*integration.ExchangeSubaccount{
		{Number: "SUB-1", Name: "alpha", Balance: "1,250.00"},
		{Number: "SUB-2", Name: "beta", Balance: "0.00"},
	}
	env.exGateway.On("ListSubaccounts", mock.Anything).Return(subs, nil)

	w := doJSON(t, env.engine, http.MethodGet, "/api/v1/sync/exchange/subaccounts", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp []ExchangeSubaccountResponse
	decodeData(t, w, &resp)
	require.Len(t, resp, 2)
	assert.Equal(t, "SUB-1", resp[0].Number)
	assert.Equal(t, "1,250.00", resp[0].Balance)
}

func TestSyncHandler_USDTStatus_NeverVerified(t *testing.T) {
	env := newSyncTestRouter(t)
	env.cursors.On("Get", mock.Anything, integration.SourceUSDT).Return(nil, shared.ErrNotFound)

	w := doJSON(t, env.engine, http.MethodGet, "/api/v1/sync/usdt/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp SyncStatusResponse
	decodeData(t, w, &resp)
	assert.Equal(t, integration.SourceUSDT, resp.Source)
	assert.Nil(t, resp.LastSyncedAt)
}

func TestSyncHandler_ConfirmUSDT(t *testing.T) {
	env := newSyncTestRouter(t)

	check := &integration.TransferCheck{
		TxID:      "abc123",
		Confirmed: true,
		Recipient: "TRecipientAddr",
		Amount:    decimal.RequireFromString("150.25"),
	}
	env.verifier.On("ConfirmTransfer", mock.Anything, "abc123", "TRecipientAddr", mock.Anything).
		Return(check, nil)
	env.cursors.On("Get", mock.Anything, integration.SourceUSDT).Return(nil, shared.ErrNotFound)
	env.cursors.On("Save", mock.Anything, mock.AnythingOfType("*integration.SyncCursor")).Return(nil)

	w := doJSON(t, env.engine, http.MethodPost, "/api/v1/sync/usdt/confirm", gin.H{
		"tx_id":     "abc123",
		"recipient": "TRecipientAddr",
		"amount":    "150.25",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp TransferCheckResponse
	decodeData(t, w, &resp)
	assert.True(t, resp.Confirmed)
	assert.Equal(t, "150.25", resp.Amount)
	env.verifier.AssertExpectations(t)
}

func TestSyncHandler_ConfirmUSDT_InvalidAmount(t *testing.T) {
	env := newSyncTestRouter(t)

	w := doJSON(t, env.engine, http.MethodPost, "/api/v1/sync/usdt/confirm", gin.H{
		"tx_id":     "abc123",
		"recipient": "TRecipientAddr",
		"amount":    "garbage",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env.verifier.AssertNotCalled(t, "ConfirmTransfer", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncHandler_ConfirmUSDT_MissingFields(t *testing.T) {
	env := newSyncTestRouter(t)

	w := doJSON(t, env.engine, http.MethodPost, "/api/v1/sync/usdt/confirm", gin.H{
		"tx_id": "abc123",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
