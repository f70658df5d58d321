package inventory

import (
	"context"
	"fmt"

	"github.com/pharmacy/backend/internal/domain/inventory"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/pharmacy/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// StockBelowThresholdHandler handles StockBelowThreshold events
// and raises reorder alerts when an item reaches its reorder point
type StockBelowThresholdHandler struct {
	logger          *zap.Logger
	notifier        StockAlertNotifier
	businessMetrics *telemetry.BusinessMetrics
}

// StockAlertNotifier is the interface for sending stock alerts
type StockAlertNotifier interface {
	SendAlert(ctx context.Context, alert StockAlert) error
}

// StockAlert represents a reorder alert
type StockAlert struct {
	TenantID        string `json:"tenant_id"`
	InventoryItemID string `json:"inventory_item_id"`
	WarehouseID     string `json:"warehouse_id"`
	MedicineID      string `json:"medicine_id"`
	Quantity        int64  `json:"quantity"`
	ReorderPoint    int64  `json:"reorder_point"`
	AlertType       string `json:"alert_type"` // "low_stock", "out_of_stock"
}

// NewStockBelowThresholdHandler creates a new handler for stock below threshold events
func NewStockBelowThresholdHandler(logger *zap.Logger) *StockBelowThresholdHandler {
	return &StockBelowThresholdHandler{
		logger: logger,
	}
}

// WithNotifier sets the notifier for sending alerts
func (h *StockBelowThresholdHandler) WithNotifier(notifier StockAlertNotifier) *StockBelowThresholdHandler {
	h.notifier = notifier
	return h
}

// WithBusinessMetrics counts alerts in the business metrics
func (h *StockBelowThresholdHandler) WithBusinessMetrics(bm *telemetry.BusinessMetrics) *StockBelowThresholdHandler {
	h.businessMetrics = bm
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *StockBelowThresholdHandler) EventTypes() []string {
	return []string{inventory.EventTypeStockBelowThreshold}
}

// Handle processes a StockBelowThresholdEvent
func (h *StockBelowThresholdHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	thresholdEvent, ok := event.(*inventory.StockBelowThresholdEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", inventory.EventTypeStockBelowThreshold),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			inventory.EventTypeStockBelowThreshold, event.EventType())
	}

	alertType := "low_stock"
	if thresholdEvent.Quantity == 0 {
		alertType = "out_of_stock"
	}

	h.logger.Warn("stock at or below reorder point",
		zap.String("tenant_id", event.TenantID().String()),
		zap.String("inventory_item_id", thresholdEvent.InventoryItemID.String()),
		zap.String("warehouse_id", thresholdEvent.WarehouseID.String()),
		zap.String("medicine_id", thresholdEvent.MedicineID.String()),
		zap.Int64("quantity", thresholdEvent.Quantity),
		zap.Int64("reorder_point", thresholdEvent.ReorderPoint),
		zap.String("alert_type", alertType),
	)

	if h.businessMetrics != nil {
		h.businessMetrics.RecordLowStockAlert(ctx, event.TenantID(), thresholdEvent.WarehouseID)
	}

	if h.notifier == nil {
		return nil
	}

	alert := StockAlert{
		TenantID:        event.TenantID().String(),
		InventoryItemID: thresholdEvent.InventoryItemID.String(),
		WarehouseID:     thresholdEvent.WarehouseID.String(),
		MedicineID:      thresholdEvent.MedicineID.String(),
		Quantity:        thresholdEvent.Quantity,
		ReorderPoint:    thresholdEvent.ReorderPoint,
		AlertType:       alertType,
	}
	if err := h.notifier.SendAlert(ctx, alert); err != nil {
		// Notification failure must not fail the event handling
		h.logger.Error("failed to send stock alert notification",
			zap.String("inventory_item_id", alert.InventoryItemID),
			zap.Error(err),
		)
	}

	return nil
}

var _ shared.EventHandler = (*StockBelowThresholdHandler)(nil)
