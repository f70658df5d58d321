package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// InventoryItemResponse represents an inventory item in API responses
type InventoryItemResponse struct {
	ID           uuid.UUID        `json:"id"`
	TenantID     uuid.UUID        `json:"tenant_id"`
	MedicineID   uuid.UUID        `json:"medicine_id"`
	WarehouseID  uuid.UUID        `json:"warehouse_id"`
	Quantity     int64            `json:"quantity"`
	ReservedQty  int64            `json:"reserved_qty"`
	Available    int64            `json:"available"`
	ReorderPoint *int64           `json:"reorder_point,omitempty"`
	MaxStock     *int64           `json:"max_stock,omitempty"`
	CostPrice    *decimal.Decimal `json:"cost_price,omitempty"`
	SellingPrice *decimal.Decimal `json:"selling_price,omitempty"`
	BatchNumber  *string          `json:"batch_number,omitempty"`
	ExpiryDate   *time.Time       `json:"expiry_date,omitempty"`
	IsLowStock   bool             `json:"is_low_stock"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	Version      int              `json:"version"`
}

// MovementResponse represents a stock movement in API responses
type MovementResponse struct {
	ID              uuid.UUID `json:"id"`
	InventoryItemID uuid.UUID `json:"inventory_item_id"`
	WarehouseID     uuid.UUID `json:"warehouse_id"`
	MovementType    string    `json:"movement_type"`
	Quantity        int64     `json:"quantity"`
	QuantityDelta   int64     `json:"quantity_delta"`
	BalanceBefore   int64     `json:"balance_before"`
	BalanceAfter    int64     `json:"balance_after"`
	ReferenceType   string    `json:"reference_type,omitempty"`
	ReferenceID     string    `json:"reference_id,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	CreatedBy       uuid.UUID `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
}

// RecordMovementRequest records an IN, OUT or RETURN movement against an item
type RecordMovementRequest struct {
	InventoryItemID uuid.UUID `json:"inventory_item_id" binding:"required"`
	WarehouseID     uuid.UUID `json:"warehouse_id" binding:"required"`
	MovementType    string    `json:"movement_type" binding:"required"`
	Quantity        int64     `json:"quantity" binding:"required"`
	ReferenceType   string    `json:"reference_type" binding:"max=50"`
	ReferenceID     string    `json:"reference_id" binding:"max=100"`
	Notes           string    `json:"notes" binding:"max=500"`
}

// AdjustStockRequest overwrites an item's quantity after a physical count
type AdjustStockRequest struct {
	InventoryItemID uuid.UUID `json:"-"`
	NewQuantity     *int64    `json:"new_quantity" binding:"required"`
	Notes           string    `json:"notes" binding:"max=500"`
}

// ToInventoryItemResponse converts domain InventoryItem to response DTO
func ToInventoryItemResponse(item *inventory.InventoryItem) InventoryItemResponse {
	return InventoryItemResponse{
		ID:           item.ID,
		TenantID:     item.TenantID,
		MedicineID:   item.MedicineID,
		WarehouseID:  item.WarehouseID,
		Quantity:     item.Quantity,
		ReservedQty:  item.ReservedQty,
		Available:    item.Available(),
		ReorderPoint: item.ReorderPoint,
		MaxStock:     item.MaxStock,
		CostPrice:    item.CostPrice,
		SellingPrice: item.SellingPrice,
		BatchNumber:  item.BatchNumber,
		ExpiryDate:   item.ExpiryDate,
		IsLowStock:   item.IsLowStock(),
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
		Version:      item.Version,
	}
}

// ToInventoryItemResponses converts a slice of domain items to responses
func ToInventoryItemResponses(items []inventory.InventoryItem) []InventoryItemResponse {
	responses := make([]InventoryItemResponse, len(items))
	for i := range items {
		responses[i] = ToInventoryItemResponse(&items[i])
	}
	return responses
}

// ToMovementResponse converts a domain StockMovement to response DTO
func ToMovementResponse(m *inventory.StockMovement) MovementResponse {
	return MovementResponse{
		ID:              m.ID,
		InventoryItemID: m.InventoryItemID,
		WarehouseID:     m.WarehouseID,
		MovementType:    m.MovementType.String(),
		Quantity:        m.Quantity,
		QuantityDelta:   m.QuantityDelta,
		BalanceBefore:   m.BalanceBefore,
		BalanceAfter:    m.BalanceAfter,
		ReferenceType:   m.ReferenceType,
		ReferenceID:     m.ReferenceID,
		Notes:           m.Notes,
		CreatedBy:       m.CreatedBy,
		CreatedAt:       m.CreatedAt,
	}
}

// ToMovementResponses converts a slice of domain movements to responses
func ToMovementResponses(movements []inventory.StockMovement) []MovementResponse {
	responses := make([]MovementResponse, len(movements))
	for i := range movements {
		responses[i] = ToMovementResponse(&movements[i])
	}
	return responses
}
