package catalog

import (
	"github.com/google/uuid"
)

// Warehouse is the read model of a pharmacy outlet or storeroom.
// Warehouse maintenance lives outside the ledger; sales only need to know
// whether the warehouse exists for the tenant and is open for business.
type Warehouse struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Code     string
	Name     string
	IsActive bool
}

// CanSell reports whether the warehouse accepts point-of-sale transactions
func (w *Warehouse) CanSell() bool {
	return w != nil && w.IsActive
}
