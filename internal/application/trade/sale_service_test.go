package trade

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/catalog"
	"github.com/pharmacy/backend/internal/domain/identity"
	"github.com/pharmacy/backend/internal/domain/inventory"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/pharmacy/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type saleFixture struct {
	service   *SaleService
	scope     *memScope
	tenantID  uuid.UUID
	warehouse *catalog.Warehouse
	medicine  *catalog.Medicine
	item      *inventory.InventoryItem
	cashier   identity.Actor
	manager   identity.Actor
}

func newSaleFixture(t *testing.T, quantity int64) *saleFixture {
	t.Helper()
	tenantID := uuid.New()
	warehouse := &catalog.Warehouse{ID: uuid.New(), TenantID: tenantID, Code: "WH-1", Name: "Front Store", IsActive: true}
	medicine := &catalog.Medicine{ID: uuid.New(), TenantID: tenantID, TradeName: "Paracetamol 500mg", DefaultSellingPrice: decimal.NewFromInt(12000)}

	item, err := inventory.NewInventoryItem(tenantID, medicine.ID, warehouse.ID, quantity)
	require.NoError(t, err)
	price := decimal.NewFromInt(15000)
	item.SellingPrice = &price

	ledger := newMemLedger()
	require.NoError(t, ledger.Save(context.Background(), item))
	scope := &memScope{sales: newMemSales(), sequence: &scriptedSequence{}, ledger: ledger}

	service := NewSaleService(
		fakeWarehouses{warehouse.ID: warehouse},
		fakeMedicines{medicine.ID: medicine},
		ledger,
		scope.sales,
		scope,
		DefaultSaleServiceConfig(),
		zap.NewNop(),
	)

	cashier, err := identity.NewActor(tenantID, uuid.New(), identity.RoleCashier)
	require.NoError(t, err)
	manager, err := identity.NewActor(tenantID, uuid.New(), identity.RoleManager)
	require.NoError(t, err)

	return &saleFixture{
		service:   service,
		scope:     scope,
		tenantID:  tenantID,
		warehouse: warehouse,
		medicine:  medicine,
		item:      item,
		cashier:   cashier,
		manager:   manager,
	}
}

func (f *saleFixture) request(lines ...CreateSaleItemInput) CreateSaleRequest {
	return CreateSaleRequest{
		WarehouseID:   f.warehouse.ID,
		PaymentMethod: "CASH",
		Items:         lines,
	}
}

func (f *saleFixture) line(qty int64) CreateSaleItemInput {
	return CreateSaleItemInput{InventoryItemID: f.item.ID, Quantity: qty}
}

func TestSaleService_CreateSale(t *testing.T) {
	ctx := context.Background()

	t.Run("prices, numbers and deducts", func(t *testing.T) {
		f := newSaleFixture(t, 10)
		line := f.line(2)
		line.DiscountPercent = decimal.NewFromInt(10)

		resp, err := f.service.CreateSale(ctx, f.cashier, f.request(line))

		require.NoError(t, err)
		assert.Equal(t, "COMPLETED", resp.Status)
		assert.Regexp(t, `^SALE-\d{8}-0001$`, resp.SaleNumber)
		require.Len(t, resp.Items, 1)
		assert.Equal(t, "27000.00", resp.Items[0].Subtotal.StringFixed(2))
		assert.Equal(t, "Paracetamol 500mg", resp.Items[0].MedicineName)
		assert.Equal(t, "27000.00", resp.FinalAmount.StringFixed(2))

		stored, err := f.scope.ledger.get(f.tenantID, f.item.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(8), stored.Quantity)
		require.Len(t, f.scope.ledger.movements, 1)
		m := f.scope.ledger.movements[0]
		assert.Equal(t, inventory.MovementTypeOut, m.MovementType)
		assert.Equal(t, int64(2), m.Quantity)
		assert.Equal(t, inventory.ReferenceTypeSale, m.ReferenceType)
		assert.Equal(t, resp.ID.String(), m.ReferenceID)
	})

	t.Run("second sale of the day gets the next number", func(t *testing.T) {
		f := newSaleFixture(t, 10)

		first, err := f.service.CreateSale(ctx, f.cashier, f.request(f.line(1)))
		require.NoError(t, err)
		second, err := f.service.CreateSale(ctx, f.cashier, f.request(f.line(1)))
		require.NoError(t, err)

		assert.Equal(t, first.SaleNumber[:len(first.SaleNumber)-4]+"0002", second.SaleNumber)
	})

	t.Run("duplicate lines are summed for the availability check", func(t *testing.T) {
		f := newSaleFixture(t, 5)

		_, err := f.service.CreateSale(ctx, f.cashier, f.request(f.line(3), f.line(3)))

		require.ErrorIs(t, err, shared.ErrInsufficientStock)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "Paracetamol 500mg", de.Details["medicine"])
		assert.Equal(t, int64(5), de.Details["available"])
		assert.Equal(t, int64(6), de.Details["requested"])
		assert.Empty(t, f.scope.ledger.movements)
		assert.Empty(t, f.scope.sales.sales)
	})

	t.Run("duplicate lines deduct once per item", func(t *testing.T) {
		f := newSaleFixture(t, 10)

		resp, err := f.service.CreateSale(ctx, f.cashier, f.request(f.line(2), f.line(1)))

		require.NoError(t, err)
		require.Len(t, resp.Items, 2)
		assert.Equal(t, 1, resp.Items[0].LineNo)
		assert.Equal(t, 2, resp.Items[1].LineNo)
		stored, err := f.scope.ledger.get(f.tenantID, f.item.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(7), stored.Quantity)
		require.Len(t, f.scope.ledger.movements, 1)
		assert.Equal(t, int64(3), f.scope.ledger.movements[0].Quantity)
	})

	t.Run("shortage under lock reports the summed quantity", func(t *testing.T) {
		f := newSaleFixture(t, 5)
		// Another sale takes two units between the check and the transaction
		f.scope.onBegin = func() {
			drained := *f.item
			drained.Quantity = 3
			require.NoError(t, f.scope.ledger.Save(ctx, &drained))
		}

		_, err := f.service.CreateSale(ctx, f.cashier, f.request(f.line(2), f.line(2)))

		require.ErrorIs(t, err, shared.ErrInsufficientStock)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, int64(3), de.Details["available"])
		assert.Equal(t, int64(4), de.Details["requested"])
		assert.Empty(t, f.scope.ledger.movements)
		stored, err := f.scope.ledger.get(f.tenantID, f.item.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), stored.Quantity)
	})

	t.Run("falls back to catalog price", func(t *testing.T) {
		f := newSaleFixture(t, 5)
		stored := f.scope.ledger.items[f.item.ID]
		stored.SellingPrice = nil
		f.scope.ledger.items[f.item.ID] = stored

		resp, err := f.service.CreateSale(ctx, f.cashier, f.request(f.line(1)))

		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(12000).Equal(resp.Items[0].UnitPrice))
	})

	t.Run("no positive price is a validation error", func(t *testing.T) {
		f := newSaleFixture(t, 5)
		stored := f.scope.ledger.items[f.item.ID]
		stored.SellingPrice = nil
		f.scope.ledger.items[f.item.ID] = stored
		f.medicine.DefaultSellingPrice = decimal.Zero

		_, err := f.service.CreateSale(ctx, f.cashier, f.request(f.line(1)))

		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("inactive warehouse is not found", func(t *testing.T) {
		f := newSaleFixture(t, 5)
		f.warehouse.IsActive = false

		_, err := f.service.CreateSale(ctx, f.cashier, f.request(f.line(1)))

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("item from another warehouse is not found", func(t *testing.T) {
		f := newSaleFixture(t, 5)
		stored := f.scope.ledger.items[f.item.ID]
		stored.WarehouseID = uuid.New()
		f.scope.ledger.items[f.item.ID] = stored

		_, err := f.service.CreateSale(ctx, f.cashier, f.request(f.line(1)))

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("rejects unknown payment method", func(t *testing.T) {
		f := newSaleFixture(t, 5)
		req := f.request(f.line(1))
		req.PaymentMethod = "BARTER"

		_, err := f.service.CreateSale(ctx, f.cashier, req)

		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("discount above line amount is rejected", func(t *testing.T) {
		f := newSaleFixture(t, 5)
		line := f.line(1)
		line.DiscountAmount = decimal.NewFromInt(20000)

		_, err := f.service.CreateSale(ctx, f.cashier, f.request(line))

		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestSaleService_CreateSale_NumberRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("retries after a collision", func(t *testing.T) {
		f := newSaleFixture(t, 5)
		f.scope.sequence.failures = 2

		resp, err := f.service.CreateSale(ctx, f.cashier, f.request(f.line(1)))

		require.NoError(t, err)
		assert.Equal(t, 3, f.scope.sequence.calls)
		assert.Regexp(t, `-0001$`, resp.SaleNumber)
	})

	t.Run("gives up with a conflict", func(t *testing.T) {
		f := newSaleFixture(t, 5)
		f.scope.sequence.failures = 100

		_, err := f.service.CreateSale(ctx, f.cashier, f.request(f.line(1)))

		assert.ErrorIs(t, err, shared.ErrConflict)
		assert.Equal(t, DefaultSaleServiceConfig().NumberMaxRetries, f.scope.sequence.calls)
		stored, _ := f.scope.ledger.get(f.tenantID, f.item.ID)
		assert.Equal(t, int64(5), stored.Quantity)
	})
}

func TestSaleService_CreateSale_Idempotency(t *testing.T) {
	ctx := context.Background()
	f := newSaleFixture(t, 10)
	store := &memIdempotency{}
	f.service.SetIdempotencyStore(store)

	req := f.request(f.line(1))
	req.IdempotencyKey = "till-7-basket-42"

	_, err := f.service.CreateSale(ctx, f.cashier, req)
	require.NoError(t, err)

	_, err = f.service.CreateSale(ctx, f.cashier, req)
	assert.ErrorIs(t, err, shared.ErrConflict)
	assert.Len(t, f.scope.sales.sales, 1)

	failing := f.request(f.line(100))
	failing.IdempotencyKey = "till-7-basket-43"
	_, err = f.service.CreateSale(ctx, f.cashier, failing)
	require.ErrorIs(t, err, shared.ErrInsufficientStock)

	claimed, err := store.IsClaimed(ctx, idempotencyKey(f.tenantID, "till-7-basket-43"))
	require.NoError(t, err)
	assert.False(t, claimed, "failed sale releases its key")
}

func TestSaleService_CancelSale(t *testing.T) {
	ctx := context.Background()

	t.Run("same day restores stock", func(t *testing.T) {
		f := newSaleFixture(t, 10)
		sale, err := f.service.CreateSale(ctx, f.cashier, f.request(f.line(2)))
		require.NoError(t, err)

		resp, err := f.service.CancelSale(ctx, f.manager, sale.ID)

		require.NoError(t, err)
		assert.Equal(t, "CANCELLED", resp.Status)
		require.NotNil(t, resp.CancelledBy)
		assert.Equal(t, f.manager.UserID, *resp.CancelledBy)
		stored, _ := f.scope.ledger.get(f.tenantID, f.item.ID)
		assert.Equal(t, int64(10), stored.Quantity)
		require.Len(t, f.scope.ledger.movements, 2)
		ret := f.scope.ledger.movements[1]
		assert.Equal(t, inventory.MovementTypeReturn, ret.MovementType)
		assert.Equal(t, inventory.ReferenceTypeSaleCancellation, ret.ReferenceType)

		_, err = f.service.CancelSale(ctx, f.manager, sale.ID)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		assert.Len(t, f.scope.ledger.movements, 2)
	})

	t.Run("cashier is forbidden", func(t *testing.T) {
		f := newSaleFixture(t, 10)
		sale, err := f.service.CreateSale(ctx, f.cashier, f.request(f.line(2)))
		require.NoError(t, err)

		_, err = f.service.CancelSale(ctx, f.cashier, sale.ID)

		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("yesterday's sale is forbidden", func(t *testing.T) {
		f := newSaleFixture(t, 10)
		f.service.SetClock(func() time.Time { return time.Now().AddDate(0, 0, -1) })
		sale, err := f.service.CreateSale(ctx, f.cashier, f.request(f.line(2)))
		require.NoError(t, err)
		f.service.SetClock(time.Now)

		_, err = f.service.CancelSale(ctx, f.manager, sale.ID)

		assert.ErrorIs(t, err, shared.ErrForbidden)
		got, err := f.service.GetSale(ctx, f.manager, sale.ID)
		require.NoError(t, err)
		assert.Equal(t, trade.SaleStatusCompleted.String(), got.Status)
	})

	t.Run("unknown sale is not found", func(t *testing.T) {
		f := newSaleFixture(t, 10)

		_, err := f.service.CancelSale(ctx, f.manager, uuid.New())

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestSaleService_GetReceipt(t *testing.T) {
	ctx := context.Background()
	f := newSaleFixture(t, 10)
	line := f.line(2)
	line.DiscountPercent = decimal.NewFromInt(10)
	sale, err := f.service.CreateSale(ctx, f.cashier, f.request(line))
	require.NoError(t, err)

	receipt, err := f.service.GetReceipt(ctx, f.cashier, sale.ID)

	require.NoError(t, err)
	assert.Equal(t, sale.SaleNumber, receipt.SaleNumber)
	assert.Equal(t, "Front Store", receipt.Warehouse)
	require.Len(t, receipt.Items, 1)
	require.NotNil(t, receipt.Items[0].DiscountAmount)
	assert.Equal(t, "3000.00", receipt.Items[0].DiscountAmount.StringFixed(2))
	assert.Nil(t, receipt.Items[0].TaxAmount)
	assert.Contains(t, receipt.Display.FinalAmount, "27")
	assert.Equal(t, "CASH", receipt.PaymentMethod)
}

func TestReceiptFormatter(t *testing.T) {
	f, err := NewReceiptFormatter("en-US", "USD")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(f.Format(decimal.RequireFromString("1234.5")), " 1,234.50"))
	assert.True(t, strings.HasSuffix(f.Format(decimal.RequireFromString("0.005")), " 0.01"))
	assert.True(t, strings.HasSuffix(f.Format(decimal.RequireFromString("-12.5")), " -12.50"))

	// Past float64 precision every digit must survive
	large := f.Format(decimal.RequireFromString("12345678901234567.89"))
	assert.True(t, strings.HasSuffix(large, " 12,345,678,901,234,567.89"), large)

	idr := DefaultReceiptFormatter().Format(decimal.RequireFromString("1234567.5"))
	assert.True(t, strings.HasPrefix(idr, "Rp "), idr)
	// Rupiah has no minor unit on receipts
	assert.True(t, strings.HasSuffix(idr, " 1.234.568"), idr)

	_, err = NewReceiptFormatter("en-US", "XYZW")
	assert.Error(t, err)
}
