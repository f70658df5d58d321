package models

import (
	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// WarehouseModel maps the warehouses table owned by the warehouse service.
// The ledger only reads it.
type WarehouseModel struct {
	BaseModel
	TenantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_warehouse_tenant_code,priority:1"`
	Code     string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_warehouse_tenant_code,priority:2"`
	Name     string    `gorm:"type:varchar(200);not null"`
	IsActive bool      `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (WarehouseModel) TableName() string {
	return "warehouses"
}

// ToDomain converts the persistence model to a domain Warehouse.
func (m *WarehouseModel) ToDomain() *catalog.Warehouse {
	return &catalog.Warehouse{
		ID:       m.ID,
		TenantID: m.TenantID,
		Code:     m.Code,
		Name:     m.Name,
		IsActive: m.IsActive,
	}
}

// MedicineModel maps the medicines table owned by the catalog service.
type MedicineModel struct {
	BaseModel
	TenantID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	TradeName           string          `gorm:"type:varchar(200);not null"`
	GenericName         string          `gorm:"type:varchar(200)"`
	DefaultSellingPrice decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (MedicineModel) TableName() string {
	return "medicines"
}

// ToDomain converts the persistence model to a domain Medicine.
func (m *MedicineModel) ToDomain() *catalog.Medicine {
	return &catalog.Medicine{
		ID:                  m.ID,
		TenantID:            m.TenantID,
		TradeName:           m.TradeName,
		GenericName:         m.GenericName,
		DefaultSellingPrice: m.DefaultSellingPrice,
	}
}
