package catalog

import (
	"context"

	"github.com/google/uuid"
)

// WarehouseRepository is the read port onto the warehouse catalog
type WarehouseRepository interface {
	// FindByIDForTenant returns shared.ErrNotFound when the warehouse is
	// absent or owned by another tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Warehouse, error)
}

// MedicineRepository is the read port onto the medicine catalog
type MedicineRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Medicine, error)
	// FindByIDs returns the medicines that exist; missing IDs are skipped
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Medicine, error)
}
