package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	inventoryapp "github.com/pharmacy/backend/internal/application/inventory"
	reportapp "github.com/pharmacy/backend/internal/application/report"
	"github.com/pharmacy/backend/internal/domain/identity"
	"github.com/pharmacy/backend/internal/domain/shared"
)

// InventoryCommands is the part of the inventory service the handler uses
type InventoryCommands interface {
	GetByID(ctx context.Context, actor identity.Actor, itemID uuid.UUID) (*inventoryapp.InventoryItemResponse, error)
	RecordStockMovement(ctx context.Context, actor identity.Actor, req inventoryapp.RecordMovementRequest) (*inventoryapp.MovementResponse, error)
	AdjustStock(ctx context.Context, actor identity.Actor, req inventoryapp.AdjustStockRequest) (*inventoryapp.InventoryItemResponse, error)
}

// LedgerQueries is the read side shared by the inventory and report handlers
type LedgerQueries interface {
	ListMovements(ctx context.Context, actor identity.Actor, filter reportapp.MovementFilter) (*shared.Paginated[inventoryapp.MovementResponse], error)
	ListLowStock(ctx context.Context, actor identity.Actor) ([]inventoryapp.InventoryItemResponse, error)
	GetSalesStatistics(ctx context.Context, actor identity.Actor, filter reportapp.StatisticsFilter) (*reportapp.SalesStatisticsResponse, error)
}

// InventoryHandler handles stock ledger endpoints
type InventoryHandler struct {
	BaseHandler
	inventory InventoryCommands
	ledger    LedgerQueries
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(inventory InventoryCommands, ledger LedgerQueries) *InventoryHandler {
	return &InventoryHandler{
		inventory: inventory,
		ledger:    ledger,
	}
}

// RecordMovement godoc
// @ID           recordStockMovement
// @Summary      Record a stock movement
// @Description  Records an IN, OUT or RETURN movement and updates the item balance
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        request body inventoryapp.RecordMovementRequest true "Movement"
// @Success      201 {object} APIResponse[inventoryapp.MovementResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/movements [post]
func (h *InventoryHandler) RecordMovement(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req inventoryapp.RecordMovementRequest
	if !h.bindJSON(c, &req) {
		return
	}

	movement, err := h.inventory.RecordStockMovement(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, movement)
}

// ListMovements godoc
// @ID           listStockMovements
// @Summary      List stock movements
// @Description  Pages through the movement ledger, newest first
// @Tags         inventory
// @Produce      json
// @Param        warehouse_id      query string false "Warehouse ID"
// @Param        inventory_item_id query string false "Inventory item ID"
// @Param        movement_type     query string false "IN, OUT, ADJUSTMENT or RETURN"
// @Param        page              query int    false "Page number" default(1)
// @Param        page_size         query int    false "Page size" default(20)
// @Success      200 {object} APIResponse[[]inventoryapp.MovementResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	var query movementQuery
	if !h.bindQuery(c, &query) {
		return
	}

	page, err := h.ledger.ListMovements(c.Request.Context(), actor, query.toFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetItem godoc
// @ID           getInventoryItem
// @Summary      Get inventory item
// @Tags         inventory
// @Produce      json
// @Param        id path string true "Inventory item ID"
// @Success      200 {object} APIResponse[inventoryapp.InventoryItemResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/items/{id} [get]
func (h *InventoryHandler) GetItem(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	item, err := h.inventory.GetByID(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// AdjustStock godoc
// @ID           adjustInventoryItem
// @Summary      Adjust stock to a counted quantity
// @Description  Overwrites the item's quantity and records an ADJUSTMENT movement
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        id      path string                          true "Inventory item ID"
// @Param        request body inventoryapp.AdjustStockRequest true "Counted quantity"
// @Success      200 {object} APIResponse[inventoryapp.InventoryItemResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/items/{id}/adjust [post]
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req inventoryapp.AdjustStockRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.InventoryItemID = id

	item, err := h.inventory.AdjustStock(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// ListLowStock godoc
// @ID           listLowStockItems
// @Summary      List items at or below their reorder point
// @Tags         inventory
// @Produce      json
// @Success      200 {object} APIResponse[[]inventoryapp.InventoryItemResponse]
// @Security     BearerAuth
// @Router       /inventory/low-stock [get]
func (h *InventoryHandler) ListLowStock(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	items, err := h.ledger.ListLowStock(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}
