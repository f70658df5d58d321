package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/shared"
)

// InventoryItemRepository is the ledger store port for inventory items
type InventoryItemRepository interface {
	// FindByIDForTenant loads an item scoped to tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*InventoryItem, error)

	// FindByIDForUpdate loads an item scoped to tenant and holds a row lock
	// until the surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*InventoryItem, error)

	// FindByIDs loads every listed item that exists for the tenant, in one query
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]InventoryItem, error)

	// FindLowStock returns items with quantity <= COALESCE(reorder_point, 0),
	// ordered by quantity ascending then reorder point descending
	FindLowStock(ctx context.Context, tenantID uuid.UUID) ([]InventoryItem, error)

	// Save inserts a new item
	Save(ctx context.Context, item *InventoryItem) error

	// SaveQuantity persists the quantity of an item mutated in memory.
	// The write is guarded by the version the item was loaded with and
	// returns ErrConcurrencyConflict when another writer got there first.
	SaveQuantity(ctx context.Context, item *InventoryItem) error
}

// StockMovementRepository is the append-only ledger of stock movements
type StockMovementRepository interface {
	Create(ctx context.Context, movement *StockMovement) error

	// FindForTenant lists movements newest first. Supported filter keys:
	// warehouse_id, inventory_item_id, movement_type.
	FindForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]StockMovement, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// FindByItem returns the full history of an item oldest first
	FindByItem(ctx context.Context, tenantID, itemID uuid.UUID) ([]StockMovement, error)

	FindByReference(ctx context.Context, tenantID uuid.UUID, refType, refID string) ([]StockMovement, error)
}
