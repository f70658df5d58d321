package inventory

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/identity"
	"github.com/pharmacy/backend/internal/domain/inventory"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/pharmacy/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// InventoryService handles stock movement recording and adjustments
type InventoryService struct {
	inventoryRepo   inventory.InventoryItemRepository
	txScope         TransactionScope
	eventPublisher  shared.EventPublisher
	businessMetrics *telemetry.BusinessMetrics
	logger          *zap.Logger
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(
	inventoryRepo inventory.InventoryItemRepository,
	txScope TransactionScope,
	logger *zap.Logger,
) *InventoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryService{
		inventoryRepo: inventoryRepo,
		txScope:       txScope,
		logger:        logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *InventoryService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetBusinessMetrics sets the business metrics collector
func (s *InventoryService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// GetByID retrieves an inventory item by ID
func (s *InventoryService) GetByID(ctx context.Context, actor identity.Actor, itemID uuid.UUID) (*InventoryItemResponse, error) {
	if err := actor.Authorize(identity.ActionViewInventory); err != nil {
		return nil, err
	}

	item, err := s.inventoryRepo.FindByIDForTenant(ctx, actor.TenantID, itemID)
	if err != nil {
		return nil, err
	}
	response := ToInventoryItemResponse(item)
	return &response, nil
}

// RecordStockMovement applies an IN, OUT or RETURN movement to an item.
// ADJUSTMENT goes through AdjustStock and TRANSFER is not supported.
func (s *InventoryService) RecordStockMovement(ctx context.Context, actor identity.Actor, req RecordMovementRequest) (*MovementResponse, error) {
	if err := actor.Authorize(identity.ActionRecordMovement); err != nil {
		return nil, err
	}

	movementType := inventory.MovementType(strings.ToUpper(req.MovementType))
	switch movementType {
	case inventory.MovementTypeIn, inventory.MovementTypeOut, inventory.MovementTypeReturn:
	case inventory.MovementTypeAdjustment:
		return nil, shared.NewValidationError("Use the stock adjustment operation for ADJUSTMENT movements")
	case inventory.MovementTypeTransfer:
		return nil, shared.NewValidationError("TRANSFER movements are not supported")
	default:
		return nil, shared.NewValidationError("Invalid movement type: " + req.MovementType)
	}
	if req.Quantity <= 0 {
		return nil, shared.NewValidationError("Quantity must be positive")
	}

	input := inventory.MutationInput{
		TenantID:        actor.TenantID,
		InventoryItemID: req.InventoryItemID,
		Quantity:        req.Quantity,
		Reference:       inventory.NewReference(req.ReferenceType, req.ReferenceID),
		Notes:           req.Notes,
		ActorID:         actor.UserID,
	}

	var result *inventory.MutationResult
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		item, err := repos.InventoryRepo().FindByIDForTenant(ctx, actor.TenantID, req.InventoryItemID)
		if err != nil {
			return err
		}
		if item.WarehouseID != req.WarehouseID {
			return shared.NewNotFoundError("Inventory item")
		}

		mutator := NewStockMutator(repos)
		switch movementType {
		case inventory.MovementTypeIn:
			result, err = mutator.Receive(ctx, input)
		case inventory.MovementTypeOut:
			result, err = mutator.Deduct(ctx, input)
		default:
			result, err = mutator.Restore(ctx, input)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterMutation(ctx, result)

	response := ToMovementResponse(result.Movement)
	return &response, nil
}

// AdjustStock overwrites an item's quantity with a physical count
func (s *InventoryService) AdjustStock(ctx context.Context, actor identity.Actor, req AdjustStockRequest) (*InventoryItemResponse, error) {
	if err := actor.Authorize(identity.ActionAdjustStock); err != nil {
		return nil, err
	}
	if req.NewQuantity == nil {
		return nil, shared.NewValidationError("New quantity is required")
	}

	var result *inventory.MutationResult
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		result, err = NewStockMutator(repos).SetAbsolute(ctx, inventory.MutationInput{
			TenantID:        actor.TenantID,
			InventoryItemID: req.InventoryItemID,
			Quantity:        *req.NewQuantity,
			Reference:       inventory.NewReference(inventory.ReferenceTypeStockAdjustment, req.InventoryItemID.String()),
			Notes:           req.Notes,
			ActorID:         actor.UserID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterMutation(ctx, result)

	response := ToInventoryItemResponse(result.Item)
	return &response, nil
}

// afterMutation runs once the transaction has committed
func (s *InventoryService) afterMutation(ctx context.Context, result *inventory.MutationResult) {
	m := result.Movement
	s.logger.Info("stock movement recorded",
		zap.String("tenant_id", m.TenantID.String()),
		zap.String("inventory_item_id", m.InventoryItemID.String()),
		zap.String("movement_type", m.MovementType.String()),
		zap.Int64("quantity_delta", m.QuantityDelta),
		zap.Int64("balance_after", m.BalanceAfter),
	)

	if s.businessMetrics != nil {
		s.businessMetrics.RecordStockMovement(ctx, m.TenantID, m.MovementType.String(), m.Quantity)
	}

	s.publishDomainEvents(ctx, result.Item)
}

// publishDomainEvents publishes all domain events from the inventory item
func (s *InventoryService) publishDomainEvents(ctx context.Context, item *inventory.InventoryItem) {
	if s.eventPublisher == nil {
		item.ClearDomainEvents()
		return
	}
	events := item.PullDomainEvents()
	if len(events) == 0 {
		return
	}
	// Publish errors are logged by the event bus, not propagated
	_ = s.eventPublisher.Publish(ctx, events...)
}
