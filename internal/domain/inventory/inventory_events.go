package inventory

import (
	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/shared"
)

// EventTypeStockBelowThreshold is raised when a decrease leaves an item at or below its reorder point
const EventTypeStockBelowThreshold = "StockBelowThreshold"

// StockBelowThresholdEvent carries the state of an item that needs reordering
type StockBelowThresholdEvent struct {
	shared.BaseDomainEvent
	InventoryItemID uuid.UUID `json:"inventory_item_id"`
	WarehouseID     uuid.UUID `json:"warehouse_id"`
	MedicineID      uuid.UUID `json:"medicine_id"`
	Quantity        int64     `json:"quantity"`
	ReorderPoint    int64     `json:"reorder_point"`
}

// NewStockBelowThresholdEvent creates a new StockBelowThresholdEvent
func NewStockBelowThresholdEvent(item *InventoryItem) *StockBelowThresholdEvent {
	return &StockBelowThresholdEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockBelowThreshold, AggregateTypeInventoryItem, item.ID, item.TenantID),
		InventoryItemID: item.ID,
		WarehouseID:     item.WarehouseID,
		MedicineID:      item.MedicineID,
		Quantity:        item.Quantity,
		ReorderPoint:    item.ReorderLevel(),
	}
}

// EventType returns the event type name
func (e *StockBelowThresholdEvent) EventType() string {
	return EventTypeStockBelowThreshold
}
