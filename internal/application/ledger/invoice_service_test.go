package ledger

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/remitdesk/backend/internal/domain/ledger"
	"github.com/remitdesk/backend/internal/domain/shared"
)

// fakeLedger is an in-memory ledger implementing both the transactional
// store and the read repository, so service tests exercise the real
// recalculation path end to end.
type fakeLedger struct {
	mu       sync.Mutex
	nextID   uint64
	invoices map[uint64]*ledger.Invoice
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{nextID: 1, invoices: make(map[uint64]*ledger.Invoice)}
}

func (f *fakeLedger) live() []*ledger.Invoice {
	var out []*ledger.Invoice
	for _, inv := range f.invoices {
		if !inv.IsDeleted {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ReceivedAt.Equal(out[j].ReceivedAt) {
			return out[i].ReceivedAt.Before(out[j].ReceivedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (f *fakeLedger) LatestBefore(_ context.Context, t time.Time) (*ledger.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var found *ledger.Invoice
	for _, inv := range f.live() {
		if inv.ReceivedAt.Before(t) {
			found = inv
		}
	}
	if found == nil {
		return nil, nil
	}
	cp := *found
	return &cp, nil
}

func (f *fakeLedger) ListFrom(_ context.Context, t time.Time) ([]*ledger.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*ledger.Invoice
	for _, inv := range f.live() {
		if !inv.ReceivedAt.Before(t) {
			cp := *inv
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeLedger) UpdateBalance(_ context.Context, id uint64, balance string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invoices[id]
	if !ok {
		return shared.ErrNotFound
	}
	inv.Balance = balance
	return nil
}

func (f *fakeLedger) FindByID(_ context.Context, id uint64) (*ledger.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invoices[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (f *fakeLedger) FindByTransactionID(_ context.Context, transactionID string) (*ledger.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.invoices {
		if inv.TransactionID == transactionID {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakeLedger) Create(_ context.Context, invoice *ledger.Invoice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	invoice.ID = f.nextID
	f.nextID++
	cp := *invoice
	f.invoices[invoice.ID] = &cp
	return nil
}

func (f *fakeLedger) Update(_ context.Context, invoice *ledger.Invoice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.invoices[invoice.ID]; !ok {
		return shared.ErrNotFound
	}
	cp := *invoice
	f.invoices[invoice.ID] = &cp
	return nil
}

func (f *fakeLedger) Delete(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.invoices[id]; !ok {
		return shared.ErrNotFound
	}
	delete(f.invoices, id)
	return nil
}

func (f *fakeLedger) List(_ context.Context, filter ledger.InvoiceFilter) ([]*ledger.Invoice, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*ledger.Invoice
	for _, inv := range f.live() {
		cp := *inv
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func (f *fakeLedger) EarliestReceivedAt(_ context.Context) (*time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	live := f.live()
	if len(live) == 0 {
		return nil, nil
	}
	t := live[0].ReceivedAt
	return &t, nil
}

func (f *fakeLedger) WithinLedger(_ context.Context, fn func(tx ledger.LedgerTx) error) error {
	return fn(f)
}

var (
	_ ledger.LedgerTx          = (*fakeLedger)(nil)
	_ ledger.InvoiceRepository = (*fakeLedger)(nil)
	_ ledger.UnitOfWork        = (*fakeLedger)(nil)
)

func newTestService(t *testing.T) (*InvoiceService, *fakeLedger) {
	t.Helper()
	fake := newFakeLedger()
	svc := NewInvoiceService(fake, fake, ledger.NewRecalculator(zap.NewNop()), zap.NewNop())
	return svc, fake
}

func at(hour int) time.Time {
	return time.Date(2026, 5, 10, hour, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string { return &s }

func TestInvoiceService_Create(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	received := at(10)
	created, err := svc.Create(ctx, CreateInvoiceRequest{
		TransactionID: "tx-1",
		SenderName:    "Alice",
		Amount:        "100.00",
		ReceivedAt:    &received,
	})
	require.NoError(t, err)

	assert.NotZero(t, created.ID)
	assert.Equal(t, "100.00", created.Amount)
	assert.Equal(t, "100.00", created.Balance)
}

func TestInvoiceService_Create_NormalizesBlankAmount(t *testing.T) {
	svc, _ := newTestService(t)

	received := at(10)
	created, err := svc.Create(context.Background(), CreateInvoiceRequest{
		SenderName: "Alice",
		ReceivedAt: &received,
	})
	require.NoError(t, err)

	assert.Equal(t, "0.00", created.Amount)
	assert.Equal(t, "0.00", created.Balance)
}

func TestInvoiceService_Create_DuplicateTransactionID(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	received := at(10)
	_, err := svc.Create(ctx, CreateInvoiceRequest{TransactionID: "tx-1", Amount: "10.00", ReceivedAt: &received})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateInvoiceRequest{TransactionID: "tx-1", Amount: "20.00", ReceivedAt: &received})
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "DUPLICATE_TRANSACTION", domainErr.Code)
}

func TestInvoiceService_Create_BackfillRepairsLaterBalances(t *testing.T) {
	svc, fake := newTestService(t)
	ctx := context.Background()

	r1, r3 := at(10), at(14)
	_, err := svc.Create(ctx, CreateInvoiceRequest{Amount: "100.00", ReceivedAt: &r1})
	require.NoError(t, err)
	later, err := svc.Create(ctx, CreateInvoiceRequest{Amount: "50.00", ReceivedAt: &r3})
	require.NoError(t, err)
	assert.Equal(t, "150.00", later.Balance)

	// Insert between the two; everything from the new record forward is rebuilt
	r2 := at(12)
	middle, err := svc.Create(ctx, CreateInvoiceRequest{Credit: "30.00", ReceivedAt: &r2})
	require.NoError(t, err)
	assert.Equal(t, "70.00", middle.Balance)

	refreshed, err := fake.FindByID(ctx, later.ID)
	require.NoError(t, err)
	assert.Equal(t, "120.00", refreshed.Balance)
}

func TestInvoiceService_Update_MoveEarlierRepairsBothRegions(t *testing.T) {
	svc, fake := newTestService(t)
	ctx := context.Background()

	r1, r2, r3 := at(10), at(12), at(14)
	first, err := svc.Create(ctx, CreateInvoiceRequest{Amount: "100.00", ReceivedAt: &r1})
	require.NoError(t, err)
	second, err := svc.Create(ctx, CreateInvoiceRequest{Amount: "50.00", ReceivedAt: &r3})
	require.NoError(t, err)

	// Move the second record from 14:00 back to 12:00 and change its amount
	updated, err := svc.Update(ctx, second.ID, UpdateInvoiceRequest{
		Amount:     strPtr("25.00"),
		ReceivedAt: &r2,
	})
	require.NoError(t, err)
	assert.Equal(t, "125.00", updated.Balance)

	refreshed, err := fake.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "100.00", refreshed.Balance)
}

func TestInvoiceService_Update_NotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Update(context.Background(), 99, UpdateInvoiceRequest{Amount: strPtr("1.00")})
	assert.Equal(t, shared.ErrNotFound, err)
}

func TestInvoiceService_SoftDelete_ExcludesFromBalances(t *testing.T) {
	svc, fake := newTestService(t)
	ctx := context.Background()

	r1, r2 := at(10), at(12)
	first, err := svc.Create(ctx, CreateInvoiceRequest{Amount: "100.00", ReceivedAt: &r1})
	require.NoError(t, err)
	second, err := svc.Create(ctx, CreateInvoiceRequest{Amount: "50.00", ReceivedAt: &r2})
	require.NoError(t, err)
	assert.Equal(t, "150.00", second.Balance)

	require.NoError(t, svc.SoftDelete(ctx, first.ID))

	// Row remains but no longer contributes
	hidden, err := fake.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, hidden.IsDeleted)

	refreshed, err := fake.FindByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "50.00", refreshed.Balance)
}

func TestInvoiceService_SoftDelete_AlreadyDeleted(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	r1 := at(10)
	inv, err := svc.Create(ctx, CreateInvoiceRequest{Amount: "10.00", ReceivedAt: &r1})
	require.NoError(t, err)

	require.NoError(t, svc.SoftDelete(ctx, inv.ID))
	assert.Equal(t, shared.ErrNotFound, svc.SoftDelete(ctx, inv.ID))
}

func TestInvoiceService_Delete_RemovesRow(t *testing.T) {
	svc, fake := newTestService(t)
	ctx := context.Background()

	r1, r2 := at(10), at(12)
	first, err := svc.Create(ctx, CreateInvoiceRequest{Amount: "100.00", ReceivedAt: &r1})
	require.NoError(t, err)
	second, err := svc.Create(ctx, CreateInvoiceRequest{Amount: "50.00", ReceivedAt: &r2})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, first.ID))

	_, err = fake.FindByID(ctx, first.ID)
	assert.Equal(t, shared.ErrNotFound, err)

	refreshed, err := fake.FindByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "50.00", refreshed.Balance)
}

func TestInvoiceService_Recalculate_FullLedger(t *testing.T) {
	svc, fake := newTestService(t)
	ctx := context.Background()

	r1, r2 := at(10), at(12)
	first, err := svc.Create(ctx, CreateInvoiceRequest{Amount: "100.00", ReceivedAt: &r1})
	require.NoError(t, err)
	second, err := svc.Create(ctx, CreateInvoiceRequest{Credit: "40.00", ReceivedAt: &r2})
	require.NoError(t, err)

	// Corrupt the stored balances, then rebuild
	require.NoError(t, fake.UpdateBalance(ctx, first.ID, "999.99"))
	require.NoError(t, fake.UpdateBalance(ctx, second.ID, "999.99"))

	require.NoError(t, svc.Recalculate(ctx))

	a, err := fake.FindByID(ctx, first.ID)
	require.NoError(t, err)
	b, err := fake.FindByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "100.00", a.Balance)
	assert.Equal(t, "60.00", b.Balance)
}

func TestInvoiceService_Recalculate_EmptyLedgerIsNoop(t *testing.T) {
	svc, _ := newTestService(t)
	assert.NoError(t, svc.Recalculate(context.Background()))
}
