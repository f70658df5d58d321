package inventory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypeInventoryItem names the aggregate in domain events
const AggregateTypeInventoryItem = "InventoryItem"

// InventoryItem is one stock-keeping unit of a medicine in a warehouse,
// optionally scoped to a batch. Quantity only changes through the methods
// below, each of which yields exactly one StockMovement.
type InventoryItem struct {
	shared.TenantAggregateRoot
	MedicineID   uuid.UUID
	WarehouseID  uuid.UUID
	Quantity     int64
	ReservedQty  int64
	ReorderPoint *int64
	MaxStock     *int64
	CostPrice    *decimal.Decimal
	SellingPrice *decimal.Decimal
	BatchNumber  *string
	ExpiryDate   *time.Time
}

// NewInventoryItem creates an inventory item with an opening quantity
func NewInventoryItem(tenantID, medicineID, warehouseID uuid.UUID, quantity int64) (*InventoryItem, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewValidationError("Tenant ID cannot be empty")
	}
	if medicineID == uuid.Nil {
		return nil, shared.NewValidationError("Medicine ID cannot be empty")
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewValidationError("Warehouse ID cannot be empty")
	}
	if quantity < 0 {
		return nil, shared.NewValidationError("Quantity cannot be negative")
	}

	return &InventoryItem{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		MedicineID:          medicineID,
		WarehouseID:         warehouseID,
		Quantity:            quantity,
	}, nil
}

// Available returns the sellable quantity
func (i *InventoryItem) Available() int64 {
	return i.Quantity - i.ReservedQty
}

// ReorderLevel returns the reorder point, 0 when unset
func (i *InventoryItem) ReorderLevel() int64 {
	if i.ReorderPoint == nil {
		return 0
	}
	return *i.ReorderPoint
}

// IsLowStock reports quantity <= reorder point (unset counts as 0)
func (i *InventoryItem) IsLowStock() bool {
	return i.Quantity <= i.ReorderLevel()
}

// SetReorderPoint sets the low-stock threshold
func (i *InventoryItem) SetReorderPoint(point int64) error {
	if point < 0 {
		return shared.NewValidationError("Reorder point cannot be negative")
	}
	i.ReorderPoint = &point
	return nil
}

// MovementContext describes who caused a movement and why
type MovementContext struct {
	Reference Reference
	ActorID   uuid.UUID
	Notes     string
	// Label names the stock in error messages, usually the medicine trade name
	Label string
}

// Receive adds stock and returns the IN movement
func (i *InventoryItem) Receive(qty int64, mc MovementContext) (*StockMovement, error) {
	if qty <= 0 {
		return nil, shared.NewValidationError("Quantity must be positive")
	}
	return i.apply(MovementTypeIn, qty, mc), nil
}

// Deduct removes stock and returns the OUT movement.
// Fails when the available quantity cannot cover qty.
func (i *InventoryItem) Deduct(qty int64, mc MovementContext) (*StockMovement, error) {
	if qty <= 0 {
		return nil, shared.NewValidationError("Quantity must be positive")
	}
	if i.Available() < qty {
		return nil, shared.NewInsufficientStockError(i.label(mc), i.Available(), qty)
	}
	return i.apply(MovementTypeOut, -qty, mc), nil
}

// SetAbsolute overwrites the quantity after a physical count and returns the
// ADJUSTMENT movement. A count equal to the current quantity is rejected.
func (i *InventoryItem) SetAbsolute(newQty int64, mc MovementContext) (*StockMovement, error) {
	if newQty < 0 {
		return nil, shared.NewValidationError("Quantity cannot be negative")
	}
	diff := newQty - i.Quantity
	if diff == 0 {
		return nil, shared.NewValidationError(fmt.Sprintf("Stock is already %d, nothing to adjust", newQty))
	}
	return i.apply(MovementTypeAdjustment, diff, mc), nil
}

// Restore puts stock back (sale cancellation) and returns the RETURN movement
func (i *InventoryItem) Restore(qty int64, mc MovementContext) (*StockMovement, error) {
	if qty <= 0 {
		return nil, shared.NewValidationError("Quantity must be positive")
	}
	return i.apply(MovementTypeReturn, qty, mc), nil
}

func (i *InventoryItem) apply(movementType MovementType, delta int64, mc MovementContext) *StockMovement {
	before := i.Quantity
	i.Quantity += delta
	i.Touch()
	i.IncrementVersion()

	magnitude := delta
	if magnitude < 0 {
		magnitude = -magnitude
	}

	if delta < 0 && i.ReorderPoint != nil && i.IsLowStock() {
		i.AddDomainEvent(NewStockBelowThresholdEvent(i))
	}

	return &StockMovement{
		ID:              uuid.New(),
		TenantID:        i.TenantID,
		InventoryItemID: i.ID,
		WarehouseID:     i.WarehouseID,
		MovementType:    movementType,
		Quantity:        magnitude,
		QuantityDelta:   delta,
		BalanceBefore:   before,
		BalanceAfter:    i.Quantity,
		ReferenceType:   mc.Reference.Type,
		ReferenceID:     mc.Reference.ID,
		Notes:           mc.Notes,
		CreatedBy:       mc.ActorID,
		CreatedAt:       i.UpdatedAt,
	}
}

func (i *InventoryItem) label(mc MovementContext) string {
	if mc.Label != "" {
		return mc.Label
	}
	return i.ID.String()
}
