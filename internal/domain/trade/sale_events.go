package trade

import (
	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event type constants
const (
	EventTypeSaleCompleted = "SaleCompleted"
	EventTypeSaleCancelled = "SaleCancelled"
)

// SaleLineInfo represents line information for events
type SaleLineInfo struct {
	InventoryItemID uuid.UUID `json:"inventory_item_id"`
	MedicineID      uuid.UUID `json:"medicine_id"`
	Quantity        int64     `json:"quantity"`
}

func saleLines(s *Sale) []SaleLineInfo {
	lines := make([]SaleLineInfo, len(s.Items))
	for i, item := range s.Items {
		lines[i] = SaleLineInfo{
			InventoryItemID: item.InventoryItemID,
			MedicineID:      item.MedicineID,
			Quantity:        item.Quantity,
		}
	}
	return lines
}

// SaleCompletedEvent is raised when a sale is committed
type SaleCompletedEvent struct {
	shared.BaseDomainEvent
	SaleID        uuid.UUID       `json:"sale_id"`
	SaleNumber    string          `json:"sale_number"`
	WarehouseID   uuid.UUID       `json:"warehouse_id"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	FinalAmount   decimal.Decimal `json:"final_amount"`
	Lines         []SaleLineInfo  `json:"lines"`
}

// NewSaleCompletedEvent creates a new SaleCompletedEvent
func NewSaleCompletedEvent(s *Sale) *SaleCompletedEvent {
	return &SaleCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCompleted, AggregateTypeSale, s.ID, s.TenantID),
		SaleID:          s.ID,
		SaleNumber:      s.SaleNumber,
		WarehouseID:     s.WarehouseID,
		PaymentMethod:   s.PaymentMethod,
		FinalAmount:     s.FinalAmount,
		Lines:           saleLines(s),
	}
}

// EventType returns the event type name
func (e *SaleCompletedEvent) EventType() string {
	return EventTypeSaleCompleted
}

// SaleCancelledEvent is raised when a sale is cancelled and its stock restored
type SaleCancelledEvent struct {
	shared.BaseDomainEvent
	SaleID      uuid.UUID       `json:"sale_id"`
	SaleNumber  string          `json:"sale_number"`
	FinalAmount decimal.Decimal `json:"final_amount"`
	CancelledBy uuid.UUID       `json:"cancelled_by"`
	Lines       []SaleLineInfo  `json:"lines"`
}

// NewSaleCancelledEvent creates a new SaleCancelledEvent
func NewSaleCancelledEvent(s *Sale) *SaleCancelledEvent {
	var by uuid.UUID
	if s.CancelledBy != nil {
		by = *s.CancelledBy
	}
	return &SaleCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCancelled, AggregateTypeSale, s.ID, s.TenantID),
		SaleID:          s.ID,
		SaleNumber:      s.SaleNumber,
		FinalAmount:     s.FinalAmount,
		CancelledBy:     by,
		Lines:           saleLines(s),
	}
}

// EventType returns the event type name
func (e *SaleCancelledEvent) EventType() string {
	return EventTypeSaleCancelled
}
