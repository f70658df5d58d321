package inventory

import (
	"testing"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestInventoryItem(t *testing.T, quantity int64) *InventoryItem {
	t.Helper()
	item, err := NewInventoryItem(uuid.New(), uuid.New(), uuid.New(), quantity)
	require.NoError(t, err)
	return item
}

func TestNewInventoryItem(t *testing.T) {
	tenantID := uuid.New()
	medicineID := uuid.New()
	warehouseID := uuid.New()

	t.Run("creates inventory item successfully", func(t *testing.T) {
		item, err := NewInventoryItem(tenantID, medicineID, warehouseID, 10)

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, item.ID)
		assert.Equal(t, tenantID, item.TenantID)
		assert.Equal(t, medicineID, item.MedicineID)
		assert.Equal(t, warehouseID, item.WarehouseID)
		assert.Equal(t, int64(10), item.Quantity)
		assert.Equal(t, 1, item.GetVersion())
	})

	t.Run("fails with nil warehouse ID", func(t *testing.T) {
		item, err := NewInventoryItem(tenantID, medicineID, uuid.Nil, 0)

		require.Error(t, err)
		assert.Nil(t, item)
		assert.Contains(t, err.Error(), "Warehouse ID")
	})

	t.Run("fails with negative quantity", func(t *testing.T) {
		_, err := NewInventoryItem(tenantID, medicineID, warehouseID, -1)
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestInventoryItem_Available(t *testing.T) {
	item := createTestInventoryItem(t, 100)
	item.ReservedQty = 20

	assert.Equal(t, int64(80), item.Available())
}

func TestInventoryItem_IsLowStock(t *testing.T) {
	item := createTestInventoryItem(t, 5)
	assert.False(t, item.IsLowStock(), "unset reorder point counts as zero")

	require.NoError(t, item.SetReorderPoint(5))
	assert.True(t, item.IsLowStock())

	item.Quantity = 6
	assert.False(t, item.IsLowStock())

	item.Quantity = 0
	item.ReorderPoint = nil
	assert.True(t, item.IsLowStock())
}

func TestInventoryItem_Receive(t *testing.T) {
	item := createTestInventoryItem(t, 10)
	actor := uuid.New()

	m, err := item.Receive(5, MovementContext{Reference: NewReference("", "PO-1"), ActorID: actor})

	require.NoError(t, err)
	assert.Equal(t, int64(15), item.Quantity)
	assert.Equal(t, MovementTypeIn, m.MovementType)
	assert.Equal(t, int64(5), m.Quantity)
	assert.Equal(t, int64(5), m.QuantityDelta)
	assert.Equal(t, int64(10), m.BalanceBefore)
	assert.Equal(t, int64(15), m.BalanceAfter)
	assert.Equal(t, ReferenceTypeManual, m.ReferenceType)
	assert.Equal(t, "PO-1", m.ReferenceID)
	assert.Equal(t, actor, m.CreatedBy)
	assert.Equal(t, item.ID, m.InventoryItemID)
	assert.Equal(t, 2, item.GetVersion())

	_, err = item.Receive(0, MovementContext{})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestInventoryItem_Deduct(t *testing.T) {
	t.Run("deducts within available", func(t *testing.T) {
		item := createTestInventoryItem(t, 10)

		m, err := item.Deduct(4, MovementContext{})

		require.NoError(t, err)
		assert.Equal(t, int64(6), item.Quantity)
		assert.Equal(t, MovementTypeOut, m.MovementType)
		assert.Equal(t, int64(4), m.Quantity)
		assert.Equal(t, int64(-4), m.QuantityDelta)
	})

	t.Run("reserved quantity is not sellable", func(t *testing.T) {
		item := createTestInventoryItem(t, 10)
		item.ReservedQty = 8

		_, err := item.Deduct(3, MovementContext{Label: "Paracetamol"})

		require.ErrorIs(t, err, shared.ErrInsufficientStock)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "Paracetamol", de.Details["medicine"])
		assert.Equal(t, int64(2), de.Details["available"])
		assert.Equal(t, int64(3), de.Details["requested"])
		assert.Equal(t, int64(10), item.Quantity)
	})

	t.Run("raises threshold event when crossing reorder point", func(t *testing.T) {
		item := createTestInventoryItem(t, 10)
		require.NoError(t, item.SetReorderPoint(5))

		_, err := item.Deduct(4, MovementContext{})
		require.NoError(t, err)
		assert.Empty(t, item.GetDomainEvents())

		_, err = item.Deduct(1, MovementContext{})
		require.NoError(t, err)
		events := item.PullDomainEvents()
		require.Len(t, events, 1)
		ev, ok := events[0].(*StockBelowThresholdEvent)
		require.True(t, ok)
		assert.Equal(t, int64(5), ev.Quantity)
		assert.Equal(t, int64(5), ev.ReorderPoint)
		assert.Equal(t, EventTypeStockBelowThreshold, ev.EventType())
	})
}

func TestInventoryItem_SetAbsolute(t *testing.T) {
	t.Run("records signed delta for a downward count", func(t *testing.T) {
		item := createTestInventoryItem(t, 10)

		m, err := item.SetAbsolute(7, MovementContext{Reference: NewReference(ReferenceTypeStockAdjustment, "")})

		require.NoError(t, err)
		assert.Equal(t, int64(7), item.Quantity)
		assert.Equal(t, MovementTypeAdjustment, m.MovementType)
		assert.Equal(t, int64(3), m.Quantity)
		assert.Equal(t, int64(-3), m.QuantityDelta)
		assert.Equal(t, int64(10), m.BalanceBefore)
		assert.Equal(t, int64(7), m.BalanceAfter)
	})

	t.Run("rejects unchanged quantity", func(t *testing.T) {
		item := createTestInventoryItem(t, 10)

		m, err := item.SetAbsolute(10, MovementContext{})

		assert.Nil(t, m)
		assert.ErrorIs(t, err, shared.ErrValidation)
		assert.Equal(t, 1, item.GetVersion())
	})

	t.Run("rejects negative quantity", func(t *testing.T) {
		item := createTestInventoryItem(t, 10)
		_, err := item.SetAbsolute(-1, MovementContext{})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestReplay_ReproducesQuantity(t *testing.T) {
	item := createTestInventoryItem(t, 0)
	var history []StockMovement

	steps := []func() (*StockMovement, error){
		func() (*StockMovement, error) { return item.Receive(20, MovementContext{}) },
		func() (*StockMovement, error) { return item.Deduct(7, MovementContext{}) },
		func() (*StockMovement, error) { return item.SetAbsolute(10, MovementContext{}) },
		func() (*StockMovement, error) { return item.Restore(3, MovementContext{}) },
		func() (*StockMovement, error) { return item.SetAbsolute(15, MovementContext{}) },
	}
	for _, step := range steps {
		m, err := step()
		require.NoError(t, err)
		history = append(history, *m)
	}

	assert.Equal(t, int64(15), item.Quantity)
	assert.Equal(t, item.Quantity, Replay(history))
}
