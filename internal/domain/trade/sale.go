package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SaleStatus represents the status of a sale
type SaleStatus string

const (
	SaleStatusPending   SaleStatus = "PENDING"
	SaleStatusCompleted SaleStatus = "COMPLETED"
	SaleStatusCancelled SaleStatus = "CANCELLED"
	SaleStatusRefunded  SaleStatus = "REFUNDED"
)

// IsValid checks if the status is a valid SaleStatus
func (s SaleStatus) IsValid() bool {
	switch s {
	case SaleStatusPending, SaleStatusCompleted, SaleStatusCancelled, SaleStatusRefunded:
		return true
	}
	return false
}

// IsTerminal reports whether no transition may leave the status
func (s SaleStatus) IsTerminal() bool {
	return s == SaleStatusCancelled || s == SaleStatusRefunded
}

// String returns the string representation of SaleStatus
func (s SaleStatus) String() string {
	return string(s)
}

// PaymentMethod is how the customer paid
type PaymentMethod string

const (
	PaymentMethodCash      PaymentMethod = "CASH"
	PaymentMethodCard      PaymentMethod = "CARD"
	PaymentMethodQRIS      PaymentMethod = "QRIS"
	PaymentMethodTransfer  PaymentMethod = "TRANSFER"
	PaymentMethodInsurance PaymentMethod = "INSURANCE"
	PaymentMethodOther     PaymentMethod = "OTHER"
)

// AllPaymentMethods lists the accepted payment methods
var AllPaymentMethods = []PaymentMethod{
	PaymentMethodCash,
	PaymentMethodCard,
	PaymentMethodQRIS,
	PaymentMethodTransfer,
	PaymentMethodInsurance,
	PaymentMethodOther,
}

// IsValid checks if the payment method is accepted
func (p PaymentMethod) IsValid() bool {
	for _, m := range AllPaymentMethods {
		if p == m {
			return true
		}
	}
	return false
}

// String returns the string representation of PaymentMethod
func (p PaymentMethod) String() string {
	return string(p)
}

// AggregateTypeSale names the aggregate in domain events
const AggregateTypeSale = "Sale"

// Sale is one point-of-sale transaction with its lines
type Sale struct {
	shared.TenantAggregateRoot
	SaleNumber     string
	WarehouseID    uuid.UUID
	CashierID      uuid.UUID
	Status         SaleStatus
	PaymentMethod  PaymentMethod
	TotalAmount    decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	FinalAmount    decimal.Decimal
	Notes          string
	CancelledAt    *time.Time
	CancelledBy    *uuid.UUID
	Items          []SaleItem
}

// NewSale creates a PENDING sale stamped with createdAt
func NewSale(tenantID, warehouseID, cashierID uuid.UUID, method PaymentMethod, createdAt time.Time) (*Sale, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewValidationError("Tenant ID cannot be empty")
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewValidationError("Warehouse ID cannot be empty")
	}
	if !method.IsValid() {
		return nil, shared.NewValidationError("Invalid payment method: " + string(method))
	}

	sale := &Sale{
		TenantAggregateRoot: shared.NewTenantAggregateRootWithCreator(tenantID, cashierID),
		WarehouseID:         warehouseID,
		CashierID:           cashierID,
		Status:              SaleStatusPending,
		PaymentMethod:       method,
		TotalAmount:         decimal.Zero,
		DiscountAmount:      decimal.Zero,
		TaxAmount:           decimal.Zero,
		FinalAmount:         decimal.Zero,
	}
	sale.CreatedAt = createdAt
	sale.UpdatedAt = createdAt
	return sale, nil
}

// AddItem prices a line and appends it to a pending sale
func (s *Sale) AddItem(inventoryItemID, medicineID uuid.UUID, medicineName string, in LineInput, notes string) (*SaleItem, error) {
	if s.Status != SaleStatusPending {
		return nil, shared.NewInvalidStateError("Cannot add items to a sale in " + s.Status.String() + " status")
	}
	if inventoryItemID == uuid.Nil {
		return nil, shared.NewValidationError("Inventory item ID cannot be empty")
	}

	amounts, err := CalculateLine(in)
	if err != nil {
		return nil, err
	}

	item := SaleItem{
		ID:              uuid.New(),
		SaleID:          s.ID,
		LineNo:          len(s.Items) + 1,
		InventoryItemID: inventoryItemID,
		MedicineID:      medicineID,
		MedicineName:    medicineName,
		Quantity:        in.Quantity,
		UnitPrice:       in.UnitPrice,
		DiscountPercent: in.DiscountPercent,
		DiscountAmount:  amounts.Discount,
		TaxPercent:      in.TaxPercent,
		TaxAmount:       amounts.Tax,
		Subtotal:        amounts.Subtotal,
		Notes:           notes,
		CreatedAt:       s.CreatedAt,
	}
	s.Items = append(s.Items, item)
	s.recalculateTotals()

	return &s.Items[len(s.Items)-1], nil
}

func (s *Sale) recalculateTotals() {
	total := decimal.Zero
	discount := decimal.Zero
	tax := decimal.Zero
	for i := range s.Items {
		total = total.Add(s.Items[i].LineTotal())
		discount = discount.Add(s.Items[i].DiscountAmount)
		tax = tax.Add(s.Items[i].TaxAmount)
	}
	s.TotalAmount = total
	s.DiscountAmount = discount
	s.TaxAmount = tax
	s.FinalAmount = total.Sub(discount).Add(tax)
}

// Complete assigns the sale number and moves a pending sale to COMPLETED
func (s *Sale) Complete(saleNumber string) error {
	if s.Status != SaleStatusPending {
		return shared.NewInvalidStateError("Cannot complete sale in " + s.Status.String() + " status")
	}
	if len(s.Items) == 0 {
		return shared.NewValidationError("Sale must have at least one item")
	}
	if saleNumber == "" {
		return shared.NewValidationError("Sale number cannot be empty")
	}

	s.SaleNumber = saleNumber
	s.Status = SaleStatusCompleted
	s.AddDomainEvent(NewSaleCompletedEvent(s))
	return nil
}

// CanCancelAt checks the cancellation preconditions against the clock value now
func (s *Sale) CanCancelAt(now time.Time) error {
	if s.Status.IsTerminal() {
		return shared.NewInvalidStateError("Sale is already " + s.Status.String())
	}
	if s.Status != SaleStatusCompleted {
		return shared.NewInvalidStateError("Cannot cancel sale in " + s.Status.String() + " status")
	}
	if !SameCalendarDay(s.CreatedAt, now) {
		return shared.NewForbiddenError("Sales can only be cancelled on the day they were made")
	}
	return nil
}

// Cancel moves a same-day COMPLETED sale to CANCELLED
func (s *Sale) Cancel(actorID uuid.UUID, now time.Time) error {
	if err := s.CanCancelAt(now); err != nil {
		return err
	}

	s.Status = SaleStatusCancelled
	s.CancelledAt = &now
	s.CancelledBy = &actorID
	s.UpdatedAt = now
	s.AddDomainEvent(NewSaleCancelledEvent(s))
	return nil
}

// TotalQuantity sums the quantity of every line
func (s *Sale) TotalQuantity() int64 {
	var qty int64
	for _, item := range s.Items {
		qty += item.Quantity
	}
	return qty
}

// SameCalendarDay reports whether a and b fall on the same server-local date
func SameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.In(time.Local).Date()
	by, bm, bd := b.In(time.Local).Date()
	return ay == by && am == bm && ad == bd
}
