package inventory

import (
	"time"

	"github.com/google/uuid"
)

// MovementType classifies a stock movement
type MovementType string

const (
	MovementTypeIn         MovementType = "IN"
	MovementTypeOut        MovementType = "OUT"
	MovementTypeAdjustment MovementType = "ADJUSTMENT"
	MovementTypeTransfer   MovementType = "TRANSFER"
	MovementTypeReturn     MovementType = "RETURN"
)

// String returns the string representation of MovementType
func (t MovementType) String() string {
	return string(t)
}

// IsValid returns true if the movement type is known
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeIn, MovementTypeOut, MovementTypeAdjustment, MovementTypeTransfer, MovementTypeReturn:
		return true
	}
	return false
}

// Reference types linking a movement to the business event that caused it
const (
	ReferenceTypeSale             = "SALE"
	ReferenceTypeSaleCancellation = "SALE_CANCELLATION"
	ReferenceTypeStockAdjustment  = "STOCK_ADJUSTMENT"
	ReferenceTypeManual           = "MANUAL"
)

// Reference is a free-form pointer to the causing business event
type Reference struct {
	Type string
	ID   string
}

// NewReference builds a Reference; an empty type falls back to MANUAL
func NewReference(refType, refID string) Reference {
	if refType == "" {
		refType = ReferenceTypeManual
	}
	return Reference{Type: refType, ID: refID}
}

// StockMovement is an immutable audit record of one quantity change.
// Quantity is always the positive magnitude; QuantityDelta carries the sign so
// that summing deltas from an empty item reproduces its current quantity.
type StockMovement struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	InventoryItemID uuid.UUID
	WarehouseID     uuid.UUID
	MovementType    MovementType
	Quantity        int64
	QuantityDelta   int64
	BalanceBefore   int64
	BalanceAfter    int64
	ReferenceType   string
	ReferenceID     string
	Notes           string
	CreatedBy       uuid.UUID
	CreatedAt       time.Time
}

// Replay returns the quantity reached by applying movements in order from zero
func Replay(movements []StockMovement) int64 {
	var qty int64
	for _, m := range movements {
		qty += m.QuantityDelta
	}
	return qty
}
