package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleItem is one immutable line of a sale
type SaleItem struct {
	ID              uuid.UUID
	SaleID          uuid.UUID
	LineNo          int // 1-based position on the receipt
	InventoryItemID uuid.UUID
	MedicineID      uuid.UUID
	MedicineName    string
	Quantity        int64
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	DiscountAmount  decimal.Decimal
	TaxPercent      decimal.Decimal
	TaxAmount       decimal.Decimal
	Subtotal        decimal.Decimal
	Notes           string
	CreatedAt       time.Time
}

// LineTotal is quantity * unit price rounded to 2 places
func (i *SaleItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(i.Quantity)).Round(2)
}
