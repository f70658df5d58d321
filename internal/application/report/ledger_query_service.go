package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	appinventory "github.com/pharmacy/backend/internal/application/inventory"
	"github.com/pharmacy/backend/internal/domain/identity"
	"github.com/pharmacy/backend/internal/domain/inventory"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/pharmacy/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// LedgerQueryService answers read-only questions about the ledger
type LedgerQueryService struct {
	inventoryRepo inventory.InventoryItemRepository
	movementRepo  inventory.StockMovementRepository
	saleRepo      trade.SaleRepository
	logger        *zap.Logger
}

// NewLedgerQueryService creates a new LedgerQueryService
func NewLedgerQueryService(
	inventoryRepo inventory.InventoryItemRepository,
	movementRepo inventory.StockMovementRepository,
	saleRepo trade.SaleRepository,
	logger *zap.Logger,
) *LedgerQueryService {
	return &LedgerQueryService{
		inventoryRepo: inventoryRepo,
		movementRepo:  movementRepo,
		saleRepo:      saleRepo,
		logger:        logger,
	}
}

// ListMovements returns movements newest first
func (s *LedgerQueryService) ListMovements(ctx context.Context, actor identity.Actor, filter MovementFilter) (*shared.Paginated[appinventory.MovementResponse], error) {
	if err := actor.Authorize(identity.ActionViewInventory); err != nil {
		return nil, err
	}

	query := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  "created_at",
		OrderDir: "desc",
	}.Normalize()
	if filter.WarehouseID != nil {
		query.Filters["warehouse_id"] = *filter.WarehouseID
	}
	if filter.InventoryItemID != nil {
		query.Filters["inventory_item_id"] = *filter.InventoryItemID
	}
	if filter.MovementType != "" {
		movementType := inventory.MovementType(strings.ToUpper(filter.MovementType))
		if !movementType.IsValid() {
			return nil, shared.NewValidationError("Invalid movement type: " + filter.MovementType)
		}
		query.Filters["movement_type"] = movementType
	}

	movements, err := s.movementRepo.FindForTenant(ctx, actor.TenantID, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock movements: %w", err)
	}
	total, err := s.movementRepo.CountForTenant(ctx, actor.TenantID, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count stock movements: %w", err)
	}

	page := shared.NewPaginated(appinventory.ToMovementResponses(movements), total, query.Page, query.PageSize)
	return &page, nil
}

// ListLowStock returns every item at or below its reorder point, most urgent first
func (s *LedgerQueryService) ListLowStock(ctx context.Context, actor identity.Actor) ([]appinventory.InventoryItemResponse, error) {
	if err := actor.Authorize(identity.ActionViewInventory); err != nil {
		return nil, err
	}
	items, err := s.inventoryRepo.FindLowStock(ctx, actor.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock items: %w", err)
	}
	s.logger.Debug("low stock listed",
		zap.String("tenant_id", actor.TenantID.String()),
		zap.Int("count", len(items)),
	)
	return appinventory.ToInventoryItemResponses(items), nil
}

// GetSalesStatistics aggregates COMPLETED sales in the filter window
func (s *LedgerQueryService) GetSalesStatistics(ctx context.Context, actor identity.Actor, filter StatisticsFilter) (*SalesStatisticsResponse, error) {
	if err := actor.Authorize(identity.ActionViewReports); err != nil {
		return nil, err
	}

	query := trade.StatisticsFilter{WarehouseID: filter.WarehouseID}
	if filter.From != nil {
		from := startOfDay(*filter.From)
		query.From = &from
	}
	if filter.To != nil {
		to := startOfDay(*filter.To).AddDate(0, 0, 1)
		query.To = &to
	}
	if query.From != nil && query.To != nil && !query.From.Before(*query.To) {
		return nil, shared.NewValidationError("from must not be after to")
	}

	stats, err := s.saleRepo.Statistics(ctx, actor.TenantID, query)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate sales statistics: %w", err)
	}

	byMethod := make(map[string]int64, len(stats.SalesByPaymentMethod))
	for method, count := range stats.SalesByPaymentMethod {
		byMethod[method.String()] = count
	}
	return &SalesStatisticsResponse{
		TotalSales:           stats.TotalSales,
		TotalRevenue:         stats.TotalRevenue.Round(2),
		AverageTransaction:   stats.AverageTransaction,
		SalesByPaymentMethod: byMethod,
	}, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.In(time.Local).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}
