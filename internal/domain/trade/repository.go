package trade

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SaleRepository is the ledger store port for sales and their items
type SaleRepository interface {
	// Create inserts the sale and all its items
	Create(ctx context.Context, sale *Sale) error

	// FindByIDForTenant loads a sale with items
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Sale, error)

	// FindByIDForUpdate loads a sale with items and locks the sale row
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Sale, error)

	// FindForTenant lists sales newest first. Supported filter keys:
	// warehouse_id, status, payment_method, from, to.
	FindForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Sale, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// MarkCancelled persists a cancellation only if the stored status is still
	// COMPLETED; otherwise it returns an InvalidState error
	MarkCancelled(ctx context.Context, sale *Sale) error

	// Statistics aggregates COMPLETED sales
	Statistics(ctx context.Context, tenantID uuid.UUID, filter StatisticsFilter) (*SalesStatistics, error)
}

// SaleSequenceRepository allocates per tenant per day sale sequences
type SaleSequenceRepository interface {
	// Next returns the next sequence for (tenant, dateKey), starting at 1.
	// Concurrent first allocations surface as a duplicate-key error that the
	// caller retries.
	Next(ctx context.Context, tenantID uuid.UUID, dateKey string) (int64, error)
}

// StatisticsFilter narrows the statistics aggregation
type StatisticsFilter struct {
	WarehouseID *uuid.UUID
	From        *time.Time
	To          *time.Time
}

// SalesStatistics summarises COMPLETED sales
type SalesStatistics struct {
	TotalSales           int64
	TotalRevenue         decimal.Decimal
	AverageTransaction   decimal.Decimal
	SalesByPaymentMethod map[PaymentMethod]int64
}

// NewSalesStatistics derives the average from count and revenue
func NewSalesStatistics(count int64, revenue decimal.Decimal, byMethod map[PaymentMethod]int64) *SalesStatistics {
	avg := decimal.Zero
	if count > 0 {
		avg = revenue.Div(decimal.NewFromInt(count)).Round(2)
	}
	if byMethod == nil {
		byMethod = make(map[PaymentMethod]int64)
	}
	return &SalesStatistics{
		TotalSales:           count,
		TotalRevenue:         revenue,
		AverageTransaction:   avg,
		SalesByPaymentMethod: byMethod,
	}
}
