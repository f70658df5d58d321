// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics provides business metrics for the point of sale.
// It tracks completed and cancelled sales, stock movements and inventory health.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	saleCompletedTotal *Counter
	saleRevenueTotal   *Counter
	saleCancelledTotal *Counter
	stockMovementTotal *Counter
	stockMovementUnits *Counter
	lowStockAlertTotal *Counter

	// Gauge metrics (point-in-time values)
	inventoryReservedQuantity *Gauge
	inventoryLowStockCount    *Gauge

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	inventoryProvider InventoryMetricsProvider
}

// InventoryMetricsProvider provides inventory data for periodic metrics collection.
type InventoryMetricsProvider interface {
	// GetReservedQuantityByWarehouse returns total reserved quantity per warehouse for a tenant
	GetReservedQuantityByWarehouse(ctx context.Context, tenantID uuid.UUID) (map[uuid.UUID]int64, error)

	// GetLowStockCount returns count of items at or below their reorder point for a tenant
	GetLowStockCount(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter             metric.Meter
	Logger            *zap.Logger
	CollectInterval   time.Duration // Default: 5 minutes
	InventoryProvider InventoryMetricsProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:             cfg.Meter,
		logger:            logger,
		stopChan:          make(chan struct{}),
		inventoryProvider: cfg.InventoryProvider,
	}

	counters := []struct {
		target      **Counter
		name        string
		description string
		unit        string
	}{
		{&bm.saleCompletedTotal, "pos_sale_completed_total", "Total number of completed sales", "{sales}"},
		{&bm.saleRevenueTotal, "pos_sale_revenue_total", "Total final amount of completed sales in cents", "{cents}"},
		{&bm.saleCancelledTotal, "pos_sale_cancelled_total", "Total number of cancelled sales", "{sales}"},
		{&bm.stockMovementTotal, "pos_stock_movement_total", "Total number of stock movements", "{movements}"},
		{&bm.stockMovementUnits, "pos_stock_movement_units_total", "Total units moved by stock movements", "{units}"},
		{&bm.lowStockAlertTotal, "pos_low_stock_alert_total", "Total number of low stock threshold crossings", "{alerts}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(cfg.Meter, c.name, c.description, c.unit)
		if err != nil {
			return nil, err
		}
		*c.target = counter
	}

	var err error
	bm.inventoryReservedQuantity, err = NewGauge(
		cfg.Meter,
		"pos_inventory_reserved_quantity",
		"Current reserved inventory quantity",
		"{units}",
	)
	if err != nil {
		return nil, err
	}

	bm.inventoryLowStockCount, err = NewGauge(
		cfg.Meter,
		"pos_inventory_low_stock_count",
		"Number of inventory items at or below reorder point",
		"{items}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// =============================================================================
// Sale Metrics
// =============================================================================

// RecordSaleCompleted records a committed sale and its final amount.
func (bm *BusinessMetrics) RecordSaleCompleted(ctx context.Context, tenantID uuid.UUID, paymentMethod string, finalAmount decimal.Decimal) {
	attrs := []attributeKV{
		AttrTenantID.String(tenantID.String()),
		AttrPaymentMethod.String(paymentMethod),
	}
	bm.saleCompletedTotal.Inc(ctx, attrs...)
	bm.saleRevenueTotal.Add(ctx, finalAmount.Mul(decimal.NewFromInt(100)).IntPart(), attrs...)
}

// RecordSaleCancelled records a same-day cancellation.
func (bm *BusinessMetrics) RecordSaleCancelled(ctx context.Context, tenantID uuid.UUID) {
	bm.saleCancelledTotal.Inc(ctx, AttrTenantID.String(tenantID.String()))
}

// =============================================================================
// Inventory Metrics
// =============================================================================

// RecordStockMovement records one ledger movement of the given type and magnitude.
func (bm *BusinessMetrics) RecordStockMovement(ctx context.Context, tenantID uuid.UUID, movementType string, quantity int64) {
	attrs := []attributeKV{
		AttrTenantID.String(tenantID.String()),
		AttrMovementType.String(movementType),
	}
	bm.stockMovementTotal.Inc(ctx, attrs...)
	bm.stockMovementUnits.Add(ctx, quantity, attrs...)
}

// RecordLowStockAlert records an item crossing its reorder point.
func (bm *BusinessMetrics) RecordLowStockAlert(ctx context.Context, tenantID, warehouseID uuid.UUID) {
	bm.lowStockAlertTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrWarehouseID.String(warehouseID.String()),
	)
}

// RecordReservedQuantity records the current reserved quantity for a warehouse.
func (bm *BusinessMetrics) RecordReservedQuantity(ctx context.Context, tenantID, warehouseID uuid.UUID, quantity int64) {
	bm.inventoryReservedQuantity.Record(ctx, quantity,
		AttrTenantID.String(tenantID.String()),
		AttrWarehouseID.String(warehouseID.String()),
	)
}

// RecordLowStockCount records the number of items at or below reorder point.
func (bm *BusinessMetrics) RecordLowStockCount(ctx context.Context, tenantID uuid.UUID, count int64) {
	bm.inventoryLowStockCount.Record(ctx, count,
		AttrTenantID.String(tenantID.String()),
	)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// TenantProvider provides tenant IDs for periodic metrics collection.
type TenantProvider interface {
	GetActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// StartPeriodicCollection starts periodic collection of gauge metrics.
// This is non-blocking - use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, tenantProvider TenantProvider, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go bm.runPeriodicCollection(ctx, tenantProvider, interval)
	})
}

func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, tenantProvider TenantProvider, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	bm.collectInventoryMetrics(ctx, tenantProvider)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectInventoryMetrics(ctx, tenantProvider)
		}
	}
}

func (bm *BusinessMetrics) collectInventoryMetrics(ctx context.Context, tenantProvider TenantProvider) {
	if bm.inventoryProvider == nil {
		bm.logger.Debug("No inventory provider configured, skipping inventory metrics collection")
		return
	}

	tenantIDs, err := tenantProvider.GetActiveTenantIDs(ctx)
	if err != nil {
		bm.logger.Error("Failed to get tenant IDs for metrics collection", zap.Error(err))
		return
	}

	for _, tenantID := range tenantIDs {
		bm.collectTenantInventoryMetrics(ctx, tenantID)
	}
}

func (bm *BusinessMetrics) collectTenantInventoryMetrics(ctx context.Context, tenantID uuid.UUID) {
	reservedByWarehouse, err := bm.inventoryProvider.GetReservedQuantityByWarehouse(ctx, tenantID)
	if err != nil {
		bm.logger.Warn("Failed to get reserved quantity for tenant",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
	} else {
		for warehouseID, quantity := range reservedByWarehouse {
			bm.RecordReservedQuantity(ctx, tenantID, warehouseID, quantity)
		}
	}

	lowStockCount, err := bm.inventoryProvider.GetLowStockCount(ctx, tenantID)
	if err != nil {
		bm.logger.Warn("Failed to get low stock count for tenant",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
	} else {
		bm.RecordLowStockCount(ctx, tenantID, lowStockCount)
	}
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
