package trade

import (
	"context"

	"github.com/pharmacy/backend/internal/domain/inventory"
	"github.com/pharmacy/backend/internal/domain/trade"
)

// TransactionScope runs sale creation and cancellation atomically.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the repositories a sale touches, all bound
// to the same transaction.
type TransactionalRepositories interface {
	SaleRepo() trade.SaleRepository
	SequenceRepo() trade.SaleSequenceRepository
	InventoryRepo() inventory.InventoryItemRepository
	MovementRepo() inventory.StockMovementRepository
}
