package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// SaleModel is the persistence model for the Sale aggregate root.
// sale_number is unique per tenant.
type SaleModel struct {
	TenantAggregateModel
	SaleNumber     string          `gorm:"type:varchar(50);not null"`
	WarehouseID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	CashierID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Status         string          `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	PaymentMethod  string          `gorm:"type:varchar(20);not null"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	FinalAmount    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Notes          string          `gorm:"type:text"`
	CancelledAt    *time.Time
	CancelledBy    *uuid.UUID      `gorm:"type:uuid"`
	Items          []SaleItemModel `gorm:"foreignKey:SaleID;references:ID"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// ToDomain converts the persistence model to a domain Sale.
func (m *SaleModel) ToDomain() *trade.Sale {
	sale := &trade.Sale{
		SaleNumber:     m.SaleNumber,
		WarehouseID:    m.WarehouseID,
		CashierID:      m.CashierID,
		Status:         trade.SaleStatus(m.Status),
		PaymentMethod:  trade.PaymentMethod(m.PaymentMethod),
		TotalAmount:    m.TotalAmount,
		DiscountAmount: m.DiscountAmount,
		TaxAmount:      m.TaxAmount,
		FinalAmount:    m.FinalAmount,
		Notes:          m.Notes,
		CancelledAt:    m.CancelledAt,
		CancelledBy:    m.CancelledBy,
		Items:          make([]trade.SaleItem, len(m.Items)),
	}
	m.PopulateTenantAggregateRoot(&sale.TenantAggregateRoot)
	for i := range m.Items {
		sale.Items[i] = *m.Items[i].ToDomain()
	}
	return sale
}

// FromDomain populates the persistence model from a domain Sale.
func (m *SaleModel) FromDomain(s *trade.Sale) {
	m.FromDomainTenantAggregateRoot(s.TenantAggregateRoot)
	m.SaleNumber = s.SaleNumber
	m.WarehouseID = s.WarehouseID
	m.CashierID = s.CashierID
	m.Status = string(s.Status)
	m.PaymentMethod = string(s.PaymentMethod)
	m.TotalAmount = s.TotalAmount
	m.DiscountAmount = s.DiscountAmount
	m.TaxAmount = s.TaxAmount
	m.FinalAmount = s.FinalAmount
	m.Notes = s.Notes
	m.CancelledAt = s.CancelledAt
	m.CancelledBy = s.CancelledBy
	m.Items = make([]SaleItemModel, len(s.Items))
	for i := range s.Items {
		m.Items[i] = *SaleItemModelFromDomain(&s.Items[i])
	}
}

// SaleModelFromDomain creates a new persistence model from a domain Sale.
func SaleModelFromDomain(s *trade.Sale) *SaleModel {
	m := &SaleModel{}
	m.FromDomain(s)
	return m
}

// SaleItemModel is the persistence model for one sale line.
type SaleItemModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	SaleID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo          int             `gorm:"not null"`
	InventoryItemID uuid.UUID       `gorm:"type:uuid;not null;index"`
	MedicineID      uuid.UUID       `gorm:"type:uuid;not null"`
	MedicineName    string          `gorm:"type:varchar(200);not null"`
	Quantity        int64           `gorm:"not null"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	DiscountAmount  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	TaxPercent      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TaxAmount       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Notes           string          `gorm:"type:text"`
	CreatedAt       time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SaleItemModel) TableName() string {
	return "sale_items"
}

// ToDomain converts the persistence model to a domain SaleItem.
func (m *SaleItemModel) ToDomain() *trade.SaleItem {
	return &trade.SaleItem{
		ID:              m.ID,
		SaleID:          m.SaleID,
		LineNo:          m.LineNo,
		InventoryItemID: m.InventoryItemID,
		MedicineID:      m.MedicineID,
		MedicineName:    m.MedicineName,
		Quantity:        m.Quantity,
		UnitPrice:       m.UnitPrice,
		DiscountPercent: m.DiscountPercent,
		DiscountAmount:  m.DiscountAmount,
		TaxPercent:      m.TaxPercent,
		TaxAmount:       m.TaxAmount,
		Subtotal:        m.Subtotal,
		Notes:           m.Notes,
		CreatedAt:       m.CreatedAt,
	}
}

// SaleItemModelFromDomain creates a new persistence model from a domain SaleItem.
func SaleItemModelFromDomain(i *trade.SaleItem) *SaleItemModel {
	return &SaleItemModel{
		ID:              i.ID,
		SaleID:          i.SaleID,
		LineNo:          i.LineNo,
		InventoryItemID: i.InventoryItemID,
		MedicineID:      i.MedicineID,
		MedicineName:    i.MedicineName,
		Quantity:        i.Quantity,
		UnitPrice:       i.UnitPrice,
		DiscountPercent: i.DiscountPercent,
		DiscountAmount:  i.DiscountAmount,
		TaxPercent:      i.TaxPercent,
		TaxAmount:       i.TaxAmount,
		Subtotal:        i.Subtotal,
		Notes:           i.Notes,
		CreatedAt:       i.CreatedAt,
	}
}

// SaleNumberSequenceModel is the per tenant per day sale number counter.
type SaleNumberSequenceModel struct {
	TenantID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	SaleDate  string    `gorm:"type:char(8);primaryKey"`
	LastValue int64     `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SaleNumberSequenceModel) TableName() string {
	return "sale_number_sequences"
}
