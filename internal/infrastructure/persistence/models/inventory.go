package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// InventoryItemModel is the persistence model for the InventoryItem aggregate root.
// The (tenant_id, medicine_id, warehouse_id, batch_number) unique key is created
// by the migrations and by AutoMigrate.
type InventoryItemModel struct {
	TenantAggregateModel
	MedicineID   uuid.UUID `gorm:"type:uuid;not null;index"`
	WarehouseID  uuid.UUID `gorm:"type:uuid;not null;index"`
	BatchNumber  *string   `gorm:"type:varchar(50)"`
	Quantity     int64     `gorm:"not null;default:0"`
	ReservedQty  int64     `gorm:"not null;default:0"`
	ReorderPoint *int64
	MaxStock     *int64
	CostPrice    *decimal.Decimal `gorm:"type:decimal(18,4)"`
	SellingPrice *decimal.Decimal `gorm:"type:decimal(18,4)"`
	ExpiryDate   *time.Time       `gorm:"type:date"`
}

// TableName returns the table name for GORM
func (InventoryItemModel) TableName() string {
	return "inventory_items"
}

// ToDomain converts the persistence model to a domain InventoryItem.
func (m *InventoryItemModel) ToDomain() *inventory.InventoryItem {
	item := &inventory.InventoryItem{
		MedicineID:   m.MedicineID,
		WarehouseID:  m.WarehouseID,
		Quantity:     m.Quantity,
		ReservedQty:  m.ReservedQty,
		ReorderPoint: m.ReorderPoint,
		MaxStock:     m.MaxStock,
		CostPrice:    m.CostPrice,
		SellingPrice: m.SellingPrice,
		BatchNumber:  m.BatchNumber,
		ExpiryDate:   m.ExpiryDate,
	}
	m.PopulateTenantAggregateRoot(&item.TenantAggregateRoot)
	return item
}

// FromDomain populates the persistence model from a domain InventoryItem.
func (m *InventoryItemModel) FromDomain(i *inventory.InventoryItem) {
	m.FromDomainTenantAggregateRoot(i.TenantAggregateRoot)
	m.MedicineID = i.MedicineID
	m.WarehouseID = i.WarehouseID
	m.BatchNumber = i.BatchNumber
	m.Quantity = i.Quantity
	m.ReservedQty = i.ReservedQty
	m.ReorderPoint = i.ReorderPoint
	m.MaxStock = i.MaxStock
	m.CostPrice = i.CostPrice
	m.SellingPrice = i.SellingPrice
	m.ExpiryDate = i.ExpiryDate
}

// InventoryItemModelFromDomain creates a new persistence model from a domain InventoryItem.
func InventoryItemModelFromDomain(i *inventory.InventoryItem) *InventoryItemModel {
	m := &InventoryItemModel{}
	m.FromDomain(i)
	return m
}

// StockMovementModel is the persistence model for the append-only movement ledger.
// Rows are never updated, so there is no updated_at or version column.
type StockMovementModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID        uuid.UUID `gorm:"type:uuid;not null;index:idx_stock_movement_tenant_created,priority:1"`
	InventoryItemID uuid.UUID `gorm:"type:uuid;not null;index"`
	WarehouseID     uuid.UUID `gorm:"type:uuid;not null;index"`
	MovementType    string    `gorm:"type:varchar(20);not null;index"`
	Quantity        int64     `gorm:"not null"`
	QuantityDelta   int64     `gorm:"not null"`
	BalanceBefore   int64     `gorm:"not null"`
	BalanceAfter    int64     `gorm:"not null"`
	ReferenceType   string    `gorm:"type:varchar(50);not null;index:idx_stock_movement_reference,priority:1"`
	ReferenceID     string    `gorm:"type:varchar(100);index:idx_stock_movement_reference,priority:2"`
	Notes           string    `gorm:"type:text"`
	CreatedBy       uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt       time.Time `gorm:"not null;index:idx_stock_movement_tenant_created,priority:2"`
}

// TableName returns the table name for GORM
func (StockMovementModel) TableName() string {
	return "stock_movements"
}

// ToDomain converts the persistence model to a domain StockMovement.
func (m *StockMovementModel) ToDomain() *inventory.StockMovement {
	return &inventory.StockMovement{
		ID:              m.ID,
		TenantID:        m.TenantID,
		InventoryItemID: m.InventoryItemID,
		WarehouseID:     m.WarehouseID,
		MovementType:    inventory.MovementType(m.MovementType),
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

// StockMovementModelFromDomain creates a new persistence model from a domain StockMovement.
func StockMovementModelFromDomain(mv *inventory.StockMovement) *StockMovementModel {
	return &StockMovementModel{
		ID:              mv.ID,
		TenantID:        mv.TenantID,
		InventoryItemID: mv.InventoryItemID,
		WarehouseID:     mv.WarehouseID,
		MovementType:    string(mv.MovementType),
		Quantity:        mv.Quantity,
		QuantityDelta:   mv.QuantityDelta,
		BalanceBefore:   mv.BalanceBefore,
		BalanceAfter:    mv.BalanceAfter,
		ReferenceType:   mv.ReferenceType,
		ReferenceID:     mv.ReferenceID,
		Notes:           mv.Notes,
		CreatedBy:       mv.CreatedBy,
		CreatedAt:       mv.CreatedAt,
	}
}
