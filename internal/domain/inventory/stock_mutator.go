package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/shared"
)

// StockMutator is the single path through which item quantities change.
// It must be built from repositories bound to the caller's transaction so
// the row lock, quantity write and movement insert commit together.
type StockMutator struct {
	items     InventoryItemRepository
	movements StockMovementRepository
}

// NewStockMutator creates a StockMutator over transaction-bound repositories
func NewStockMutator(items InventoryItemRepository, movements StockMovementRepository) *StockMutator {
	return &StockMutator{items: items, movements: movements}
}

// MutationInput identifies the item, quantity and provenance of one mutation
type MutationInput struct {
	TenantID        uuid.UUID
	InventoryItemID uuid.UUID
	Quantity        int64
	Reference       Reference
	Notes           string
	ActorID         uuid.UUID
	// Label names the stock in InsufficientStock errors
	Label string
}

func (in MutationInput) movementContext() MovementContext {
	return MovementContext{
		Reference: in.Reference,
		ActorID:   in.ActorID,
		Notes:     in.Notes,
		Label:     in.Label,
	}
}

// MutationResult is the item after the change and the movement that recorded it
type MutationResult struct {
	Item     *InventoryItem
	Movement *StockMovement
}

// Receive increases stock (IN)
func (m *StockMutator) Receive(ctx context.Context, in MutationInput) (*MutationResult, error) {
	if in.Quantity <= 0 {
		return nil, shared.NewValidationError("Quantity must be positive")
	}
	return m.mutate(ctx, in.TenantID, in.InventoryItemID, func(item *InventoryItem) (*StockMovement, error) {
		return item.Receive(in.Quantity, in.movementContext())
	})
}

// Deduct decreases stock (OUT), failing with InsufficientStock when short
func (m *StockMutator) Deduct(ctx context.Context, in MutationInput) (*MutationResult, error) {
	if in.Quantity <= 0 {
		return nil, shared.NewValidationError("Quantity must be positive")
	}
	return m.mutate(ctx, in.TenantID, in.InventoryItemID, func(item *InventoryItem) (*StockMovement, error) {
		return item.Deduct(in.Quantity, in.movementContext())
	})
}

// SetAbsolute overwrites stock with in.Quantity (ADJUSTMENT)
func (m *StockMutator) SetAbsolute(ctx context.Context, in MutationInput) (*MutationResult, error) {
	if in.Quantity < 0 {
		return nil, shared.NewValidationError("Quantity cannot be negative")
	}
	return m.mutate(ctx, in.TenantID, in.InventoryItemID, func(item *InventoryItem) (*StockMovement, error) {
		return item.SetAbsolute(in.Quantity, in.movementContext())
	})
}

// Restore returns stock after a cancellation (RETURN)
func (m *StockMutator) Restore(ctx context.Context, in MutationInput) (*MutationResult, error) {
	if in.Quantity <= 0 {
		return nil, shared.NewValidationError("Quantity must be positive")
	}
	return m.mutate(ctx, in.TenantID, in.InventoryItemID, func(item *InventoryItem) (*StockMovement, error) {
		return item.Restore(in.Quantity, in.movementContext())
	})
}

func (m *StockMutator) mutate(
	ctx context.Context,
	tenantID, itemID uuid.UUID,
	change func(item *InventoryItem) (*StockMovement, error),
) (*MutationResult, error) {
	item, err := m.items.FindByIDForUpdate(ctx, tenantID, itemID)
	if err != nil {
		return nil, err
	}

	movement, err := change(item)
	if err != nil {
		return nil, err
	}

	if err := m.items.SaveQuantity(ctx, item); err != nil {
		return nil, err
	}
	if err := m.movements.Create(ctx, movement); err != nil {
		return nil, fmt.Errorf("failed to record stock movement: %w", err)
	}

	return &MutationResult{Item: item, Movement: movement}, nil
}
