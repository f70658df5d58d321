package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// CreateSaleRequest is a basket submitted at the till
type CreateSaleRequest struct {
	WarehouseID   uuid.UUID             `json:"warehouse_id" binding:"required"`
	PaymentMethod string                `json:"payment_method" binding:"required"`
	Items         []CreateSaleItemInput `json:"items" binding:"required,min=1,dive"`
	Notes         string                `json:"notes" binding:"max=500"`
	// IdempotencyKey comes from the Idempotency-Key header
	IdempotencyKey string `json:"-"`
}

// CreateSaleItemInput is one requested line
type CreateSaleItemInput struct {
	InventoryItemID uuid.UUID        `json:"inventory_item_id" binding:"required"`
	Quantity        int64            `json:"quantity" binding:"required,min=1"`
	UnitPrice       *decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal  `json:"discount_percent"`
	DiscountAmount  decimal.Decimal  `json:"discount_amount"`
	TaxPercent      decimal.Decimal  `json:"tax_percent"`
	Notes           string           `json:"notes" binding:"max=255"`
}

// SaleListFilter represents filter options for the sale list
type SaleListFilter struct {
	WarehouseID   *uuid.UUID
	Status        string
	PaymentMethod string
	From          *time.Time
	To            *time.Time
	Page          int
	PageSize      int
}

// SaleItemResponse represents a sale line in API responses
type SaleItemResponse struct {
	ID              uuid.UUID       `json:"id"`
	LineNo          int             `json:"line_no"`
	InventoryItemID uuid.UUID       `json:"inventory_item_id"`
	MedicineID      uuid.UUID       `json:"medicine_id"`
	MedicineName    string          `json:"medicine_name"`
	Quantity        int64           `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	TaxPercent      decimal.Decimal `json:"tax_percent"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Notes           string          `json:"notes,omitempty"`
}

// SaleResponse represents a sale in API responses
type SaleResponse struct {
	ID             uuid.UUID          `json:"id"`
	TenantID       uuid.UUID          `json:"tenant_id"`
	SaleNumber     string             `json:"sale_number"`
	WarehouseID    uuid.UUID          `json:"warehouse_id"`
	CashierID      uuid.UUID          `json:"cashier_id"`
	Status         string             `json:"status"`
	PaymentMethod  string             `json:"payment_method"`
	TotalAmount    decimal.Decimal    `json:"total_amount"`
	DiscountAmount decimal.Decimal    `json:"discount_amount"`
	TaxAmount      decimal.Decimal    `json:"tax_amount"`
	FinalAmount    decimal.Decimal    `json:"final_amount"`
	Notes          string             `json:"notes,omitempty"`
	Items          []SaleItemResponse `json:"items,omitempty"`
	CancelledAt    *time.Time         `json:"cancelled_at,omitempty"`
	CancelledBy    *uuid.UUID         `json:"cancelled_by,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// ReceiptLine is one printed receipt line
type ReceiptLine struct {
	MedicineName   string           `json:"medicine_name"`
	Quantity       int64            `json:"quantity"`
	UnitPrice      decimal.Decimal  `json:"unit_price"`
	Subtotal       decimal.Decimal  `json:"subtotal"`
	DiscountAmount *decimal.Decimal `json:"discount_amount,omitempty"`
	TaxAmount      *decimal.Decimal `json:"tax_amount,omitempty"`
}

// ReceiptTotals holds the localized display strings of the totals
type ReceiptTotals struct {
	TotalAmount    string `json:"total_amount"`
	DiscountAmount string `json:"discount_amount"`
	TaxAmount      string `json:"tax_amount"`
	FinalAmount    string `json:"final_amount"`
}

// ReceiptResponse is the printable view of a sale
type ReceiptResponse struct {
	SaleNumber     string          `json:"sale_number"`
	SaleDate       time.Time       `json:"sale_date"`
	Warehouse      string          `json:"warehouse"`
	Cashier        string          `json:"cashier"`
	Items          []ReceiptLine   `json:"items"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
	PaymentMethod  string          `json:"payment_method"`
	Status         string          `json:"status"`
	Display        ReceiptTotals   `json:"display"`
}

// ToSaleResponse converts a domain Sale to response DTO
func ToSaleResponse(s *trade.Sale) SaleResponse {
	items := make([]SaleItemResponse, len(s.Items))
	for i, item := range s.Items {
		items[i] = SaleItemResponse{
			ID:              item.ID,
			LineNo:          item.LineNo,
			InventoryItemID: item.InventoryItemID,
			MedicineID:      item.MedicineID,
			MedicineName:    item.MedicineName,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			DiscountPercent: item.DiscountPercent,
			DiscountAmount:  item.DiscountAmount,
			TaxPercent:      item.TaxPercent,
			TaxAmount:       item.TaxAmount,
			Subtotal:        item.Subtotal,
			Notes:           item.Notes,
		}
	}
	return SaleResponse{
		ID:             s.ID,
		TenantID:       s.TenantID,
		SaleNumber:     s.SaleNumber,
		WarehouseID:    s.WarehouseID,
		CashierID:      s.CashierID,
		Status:         s.Status.String(),
		PaymentMethod:  s.PaymentMethod.String(),
		TotalAmount:    s.TotalAmount,
		DiscountAmount: s.DiscountAmount,
		TaxAmount:      s.TaxAmount,
		FinalAmount:    s.FinalAmount,
		Notes:          s.Notes,
		Items:          items,
		CancelledAt:    s.CancelledAt,
		CancelledBy:    s.CancelledBy,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

// ToSaleResponses converts a slice of domain sales to responses
func ToSaleResponses(sales []trade.Sale) []SaleResponse {
	responses := make([]SaleResponse, len(sales))
	for i := range sales {
		responses[i] = ToSaleResponse(&sales[i])
	}
	return responses
}
