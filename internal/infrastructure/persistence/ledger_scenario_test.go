package persistence

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	appinv "github.com/pharmacy/backend/internal/application/inventory"
	"github.com/pharmacy/backend/internal/application/report"
	apptrade "github.com/pharmacy/backend/internal/application/trade"
	"github.com/pharmacy/backend/internal/domain/identity"
	"github.com/pharmacy/backend/internal/domain/inventory"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/pharmacy/backend/internal/domain/trade"
	"github.com/pharmacy/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ledgerFixture wires the real services over an in-memory sqlite database
type ledgerFixture struct {
	db          *gorm.DB
	tenantID    uuid.UUID
	warehouseID uuid.UUID
	manager     identity.Actor
	sales       *apptrade.SaleService
	stock       *appinv.InventoryService
	reports     *report.LedgerQueryService
	items       *GormInventoryItemRepository
	movements   *GormStockMovementRepository
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))

	tenantID := uuid.New()
	warehouseID := uuid.New()
	require.NoError(t, db.Create(&models.WarehouseModel{
		BaseModel: models.BaseModel{ID: warehouseID, CreatedAt: time.Now(), UpdatedAt: time.Now()},
		TenantID:  tenantID,
		Code:      "MAIN",
		Name:      "Main counter",
		IsActive:  true,
	}).Error)

	manager, err := identity.NewActor(tenantID, uuid.New(), identity.RoleManager)
	require.NoError(t, err)

	items := NewGormInventoryItemRepository(db)
	movements := NewGormStockMovementRepository(db)
	sales := NewGormSaleRepository(db)
	logger := zap.NewNop()

	return &ledgerFixture{
		db:          db,
		tenantID:    tenantID,
		warehouseID: warehouseID,
		manager:     manager,
		sales: apptrade.NewSaleService(
			NewGormWarehouseRepository(db),
			NewGormMedicineRepository(db),
			items,
			sales,
			NewGormSaleTransactionScope(db),
			apptrade.DefaultSaleServiceConfig(),
			logger,
		),
		stock:     appinv.NewInventoryService(items, NewGormInventoryTransactionScope(db), logger),
		reports:   report.NewLedgerQueryService(items, movements, sales, logger),
		items:     items,
		movements: movements,
	}
}

// seedItem creates a medicine and a stocked inventory item for it
func (f *ledgerFixture) seedItem(t *testing.T, name string, qty int64, price string, reorderPoint *int64) uuid.UUID {
	t.Helper()

	medicineID := uuid.New()
	require.NoError(t, f.db.Create(&models.MedicineModel{
		BaseModel:           models.BaseModel{ID: medicineID, CreatedAt: time.Now(), UpdatedAt: time.Now()},
		TenantID:            f.tenantID,
		TradeName:           name,
		DefaultSellingPrice: decimal.RequireFromString(price),
	}).Error)

	item, err := inventory.NewInventoryItem(f.tenantID, medicineID, f.warehouseID, qty)
	require.NoError(t, err)
	if reorderPoint != nil {
		require.NoError(t, item.SetReorderPoint(*reorderPoint))
	}
	require.NoError(t, f.items.Save(context.Background(), item))
	return item.ID
}

func (f *ledgerFixture) quantity(t *testing.T, itemID uuid.UUID) int64 {
	t.Helper()
	item, err := f.items.FindByIDForTenant(context.Background(), f.tenantID, itemID)
	require.NoError(t, err)
	return item.Quantity
}

func (f *ledgerFixture) sell(itemID uuid.UUID, qty int64) (*apptrade.SaleResponse, error) {
	return f.sales.CreateSale(context.Background(), f.manager, apptrade.CreateSaleRequest{
		WarehouseID:   f.warehouseID,
		PaymentMethod: "cash",
		Items: []apptrade.CreateSaleItemInput{
			{InventoryItemID: itemID, Quantity: qty},
		},
	})
}

func int64Ptr(v int64) *int64 { return &v }

func TestLedger_ConcurrentSalesNeverOversell(t *testing.T) {
	f := newLedgerFixture(t)
	itemID := f.seedItem(t, "Paracetamol 500mg", 5, "3.50", nil)

	const buyers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded []string
		shortages int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := f.sell(itemID, 1)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if assert.ErrorIs(t, err, shared.ErrInsufficientStock) {
					shortages++
				}
				return
			}
			succeeded = append(succeeded, resp.SaleNumber)
		}()
	}
	wg.Wait()

	assert.Len(t, succeeded, 5)
	assert.Equal(t, 5, shortages)
	assert.Equal(t, int64(0), f.quantity(t, itemID))

	seen := make(map[string]bool, len(succeeded))
	for _, number := range succeeded {
		assert.False(t, seen[number], "duplicate sale number %s", number)
		seen[number] = true
	}

	history, err := f.movements.FindByItem(context.Background(), f.tenantID, itemID)
	require.NoError(t, err)
	assert.Len(t, history, 5)
	for _, m := range history {
		assert.Equal(t, inventory.MovementTypeOut, m.MovementType)
		assert.Equal(t, int64(-1), m.QuantityDelta)
	}
}

func TestLedger_SaleNumbersAreSequentialPerDay(t *testing.T) {
	f := newLedgerFixture(t)
	itemID := f.seedItem(t, "Ibuprofen 200mg", 10, "4.20", nil)
	dateKey := trade.SaleDateKey(time.Now())

	for i := 1; i <= 3; i++ {
		resp, err := f.sell(itemID, 1)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("SALE-%s-%04d", dateKey, i), resp.SaleNumber)
		assert.Equal(t, string(trade.SaleStatusCompleted), resp.Status)
	}
}

func TestLedger_SaleTotalsSurviveRoundTrip(t *testing.T) {
	f := newLedgerFixture(t)
	syrupID := f.seedItem(t, "Cough syrup", 10, "12.50", nil)
	vitaminID := f.seedItem(t, "Vitamin C", 10, "3.99", nil)

	resp, err := f.sales.CreateSale(context.Background(), f.manager, apptrade.CreateSaleRequest{
		WarehouseID:   f.warehouseID,
		PaymentMethod: "CARD",
		Items: []apptrade.CreateSaleItemInput{
			{
				InventoryItemID: syrupID,
				Quantity:        2,
				DiscountPercent: decimal.NewFromInt(10),
				TaxPercent:      decimal.NewFromInt(8),
			},
			{InventoryItemID: vitaminID, Quantity: 1},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "28.99", resp.TotalAmount.StringFixed(2))
	assert.Equal(t, "2.50", resp.DiscountAmount.StringFixed(2))
	assert.Equal(t, "1.80", resp.TaxAmount.StringFixed(2))
	assert.Equal(t, "28.29", resp.FinalAmount.StringFixed(2))

	stored, err := f.sales.GetSale(context.Background(), f.manager, resp.ID)
	require.NoError(t, err)
	assert.True(t, stored.FinalAmount.Equal(stored.TotalAmount.Sub(stored.DiscountAmount).Add(stored.TaxAmount)))
	assert.True(t, stored.FinalAmount.Equal(resp.FinalAmount))
	require.Len(t, stored.Items, 2)

	var subtotals decimal.Decimal
	for _, item := range stored.Items {
		subtotals = subtotals.Add(item.Subtotal)
	}
	assert.True(t, subtotals.Equal(stored.FinalAmount))

	assert.Equal(t, int64(8), f.quantity(t, syrupID))
	assert.Equal(t, int64(9), f.quantity(t, vitaminID))
}

func TestLedger_SaleLinesKeepEntryOrder(t *testing.T) {
	f := newLedgerFixture(t)
	zincID := f.seedItem(t, "Zinc tablets", 10, "4.00", nil)
	antacidID := f.seedItem(t, "Antacid", 10, "6.00", nil)

	resp, err := f.sales.CreateSale(context.Background(), f.manager, apptrade.CreateSaleRequest{
		WarehouseID:   f.warehouseID,
		PaymentMethod: "CASH",
		Items: []apptrade.CreateSaleItemInput{
			{InventoryItemID: zincID, Quantity: 1},
			{InventoryItemID: antacidID, Quantity: 2},
			{InventoryItemID: zincID, Quantity: 3},
		},
	})
	require.NoError(t, err)

	stored, err := f.sales.GetSale(context.Background(), f.manager, resp.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 3)
	for i, want := range []struct {
		itemID uuid.UUID
		qty    int64
	}{{zincID, 1}, {antacidID, 2}, {zincID, 3}} {
		assert.Equal(t, i+1, stored.Items[i].LineNo)
		assert.Equal(t, want.itemID, stored.Items[i].InventoryItemID)
		assert.Equal(t, want.qty, stored.Items[i].Quantity)
	}

	assert.Equal(t, int64(6), f.quantity(t, zincID))
	assert.Equal(t, int64(8), f.quantity(t, antacidID))
	deductions, err := f.movements.FindByReference(context.Background(), f.tenantID,
		inventory.ReferenceTypeSale, resp.ID.String())
	require.NoError(t, err)
	assert.Len(t, deductions, 2)
}

func TestLedger_CancelRestoresStockOnce(t *testing.T) {
	f := newLedgerFixture(t)
	itemID := f.seedItem(t, "Amoxicillin 250mg", 6, "8.00", nil)

	sale, err := f.sell(itemID, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(2), f.quantity(t, itemID))

	cancelled, err := f.sales.CancelSale(context.Background(), f.manager, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, string(trade.SaleStatusCancelled), cancelled.Status)
	require.NotNil(t, cancelled.CancelledBy)
	assert.Equal(t, f.manager.UserID, *cancelled.CancelledBy)
	assert.Equal(t, int64(6), f.quantity(t, itemID))

	_, err = f.sales.CancelSale(context.Background(), f.manager, sale.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInvalidState)
	assert.Equal(t, int64(6), f.quantity(t, itemID))

	returns, err := f.movements.FindByReference(context.Background(), f.tenantID,
		inventory.ReferenceTypeSaleCancellation, sale.ID.String())
	require.NoError(t, err)
	require.Len(t, returns, 1)
	assert.Equal(t, inventory.MovementTypeReturn, returns[0].MovementType)
	assert.Equal(t, int64(4), returns[0].QuantityDelta)
}

func TestLedger_FailedSaleLeavesNoTrace(t *testing.T) {
	f := newLedgerFixture(t)
	plentyID := f.seedItem(t, "Saline", 10, "1.00", nil)
	scarceID := f.seedItem(t, "Insulin pen", 1, "30.00", nil)

	_, err := f.sales.CreateSale(context.Background(), f.manager, apptrade.CreateSaleRequest{
		WarehouseID:   f.warehouseID,
		PaymentMethod: "CASH",
		Items: []apptrade.CreateSaleItemInput{
			{InventoryItemID: plentyID, Quantity: 3},
			{InventoryItemID: scarceID, Quantity: 2},
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	assert.Equal(t, int64(10), f.quantity(t, plentyID))
	assert.Equal(t, int64(1), f.quantity(t, scarceID))

	var saleCount int64
	require.NoError(t, f.db.Model(&models.SaleModel{}).Count(&saleCount).Error)
	assert.Zero(t, saleCount)
	var movementCount int64
	require.NoError(t, f.db.Model(&models.StockMovementModel{}).Count(&movementCount).Error)
	assert.Zero(t, movementCount)
}

func TestLedger_LowStockOrdering(t *testing.T) {
	f := newLedgerFixture(t)
	emptyID := f.seedItem(t, "Aspirin", 0, "2.00", int64Ptr(5))
	lowHighPointID := f.seedItem(t, "Cetirizine", 3, "2.50", int64Ptr(10))
	lowLowPointID := f.seedItem(t, "Loratadine", 3, "2.50", int64Ptr(4))
	f.seedItem(t, "Plasters", 50, "0.99", int64Ptr(10))
	f.seedItem(t, "Cotton", 0, "0.50", nil)

	low, err := f.reports.ListLowStock(context.Background(), f.manager)
	require.NoError(t, err)

	ids := make([]uuid.UUID, len(low))
	for i, item := range low {
		ids[i] = item.ID
		assert.True(t, item.IsLowStock)
	}
	// Items without a reorder point count as reorder point 0, so an empty one is low too
	require.Len(t, ids, 4)
	assert.Equal(t, []uuid.UUID{lowHighPointID, lowLowPointID}, ids[2:])
	assert.Contains(t, ids[:2], emptyID)
}

func TestLedger_MovementsReplayToCurrentQuantity(t *testing.T) {
	f := newLedgerFixture(t)
	itemID := f.seedItem(t, "Omeprazole 20mg", 0, "6.00", nil)
	ctx := context.Background()

	_, err := f.stock.RecordStockMovement(ctx, f.manager, appinv.RecordMovementRequest{
		InventoryItemID: itemID,
		WarehouseID:     f.warehouseID,
		MovementType:    "in",
		Quantity:        20,
		ReferenceType:   "PURCHASE_ORDER",
		ReferenceID:     "PO-1001",
	})
	require.NoError(t, err)

	sale, err := f.sell(itemID, 7)
	require.NoError(t, err)

	_, err = f.stock.AdjustStock(ctx, f.manager, appinv.AdjustStockRequest{
		InventoryItemID: itemID,
		NewQuantity:     int64Ptr(12),
		Notes:           "shelf count",
	})
	require.NoError(t, err)

	_, err = f.sales.CancelSale(ctx, f.manager, sale.ID)
	require.NoError(t, err)

	history, err := f.movements.FindByItem(ctx, f.tenantID, itemID)
	require.NoError(t, err)
	require.Len(t, history, 4)

	types := make([]inventory.MovementType, len(history))
	for i, m := range history {
		types[i] = m.MovementType
		assert.Equal(t, m.BalanceBefore+m.QuantityDelta, m.BalanceAfter)
		if i > 0 {
			assert.Equal(t, history[i-1].BalanceAfter, m.BalanceBefore)
		}
	}
	assert.Equal(t, []inventory.MovementType{
		inventory.MovementTypeIn,
		inventory.MovementTypeOut,
		inventory.MovementTypeAdjustment,
		inventory.MovementTypeReturn,
	}, types)

	current := f.quantity(t, itemID)
	assert.Equal(t, int64(19), current)
	assert.Equal(t, current, inventory.Replay(history))

	page, err := f.reports.ListMovements(ctx, f.manager, report.MovementFilter{InventoryItemID: &itemID})
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.Total)
	require.Len(t, page.Items, 4)
	assert.Equal(t, inventory.MovementTypeReturn.String(), page.Items[0].MovementType)
}

func TestLedger_SalesStatistics(t *testing.T) {
	f := newLedgerFixture(t)
	itemID := f.seedItem(t, "Zinc tablets", 20, "5.00", nil)
	ctx := context.Background()

	_, err := f.sell(itemID, 2)
	require.NoError(t, err)
	_, err = f.sales.CreateSale(ctx, f.manager, apptrade.CreateSaleRequest{
		WarehouseID:   f.warehouseID,
		PaymentMethod: "QRIS",
		Items:         []apptrade.CreateSaleItemInput{{InventoryItemID: itemID, Quantity: 1}},
	})
	require.NoError(t, err)
	cancelled, err := f.sell(itemID, 4)
	require.NoError(t, err)
	_, err = f.sales.CancelSale(ctx, f.manager, cancelled.ID)
	require.NoError(t, err)

	today := time.Now()
	stats, err := f.reports.GetSalesStatistics(ctx, f.manager, report.StatisticsFilter{From: &today, To: &today})
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.TotalSales)
	assert.Equal(t, "15.00", stats.TotalRevenue.StringFixed(2))
	assert.Equal(t, "7.50", stats.AverageTransaction.StringFixed(2))
	assert.Equal(t, int64(1), stats.SalesByPaymentMethod["CASH"])
	assert.Equal(t, int64(1), stats.SalesByPaymentMethod["QRIS"])
}
