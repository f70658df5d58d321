package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	inventoryapp "github.com/pharmacy/backend/internal/application/inventory"
	reportapp "github.com/pharmacy/backend/internal/application/report"
	"github.com/pharmacy/backend/internal/domain/identity"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/pharmacy/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func inventoryRouter(actor *identity.Actor, cmds *MockInventoryCommands, ledger *MockLedgerQueries) *gin.Engine {
	h := NewInventoryHandler(cmds, ledger)
	return newTestRouter(actor, func(r *gin.Engine) {
		g := r.Group("/inventory")
		g.POST("/movements", h.RecordMovement)
		g.GET("/movements", h.ListMovements)
		g.GET("/items/:id", h.GetItem)
		g.POST("/items/:id/adjust", h.AdjustStock)
		g.GET("/low-stock", h.ListLowStock)
	})
}

func TestInventoryHandler_RecordMovement(t *testing.T) {
	actor := testActor(identity.RolePharmacist)
	cmds := new(MockInventoryCommands)
	router := inventoryRouter(&actor, cmds, new(MockLedgerQueries))

	itemID, warehouseID := uuid.New(), uuid.New()
	req := inventoryapp.RecordMovementRequest{
		InventoryItemID: itemID,
		WarehouseID:     warehouseID,
		MovementType:    "IN",
		Quantity:        40,
		ReferenceType:   "PURCHASE",
		ReferenceID:     "PO-2026-0012",
	}
	cmds.On("RecordStockMovement", mock.Anything, actor, req).Return(&inventoryapp.MovementResponse{
		ID:              uuid.New(),
		InventoryItemID: itemID,
		WarehouseID:     warehouseID,
		MovementType:    "IN",
		Quantity:        40,
		QuantityDelta:   40,
		BalanceBefore:   10,
		BalanceAfter:    50,
		CreatedBy:       actor.UserID,
		CreatedAt:       time.Now(),
	}, nil)

	w := doRequest(router, http.MethodPost, "/inventory/movements", req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var movement inventoryapp.MovementResponse
	resp := decodeResponse(t, w, &movement)
	assert.True(t, resp.Success)
	assert.Equal(t, int64(50), movement.BalanceAfter)
	cmds.AssertExpectations(t)
}

func TestInventoryHandler_RecordMovement_Errors(t *testing.T) {
	actor := testActor(identity.RoleCashier)

	t.Run("missing fields", func(t *testing.T) {
		cmds := new(MockInventoryCommands)
		router := inventoryRouter(&actor, cmds, new(MockLedgerQueries))

		w := doRequest(router, http.MethodPost, "/inventory/movements", `{"movement_type":"IN"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, decodeResponse(t, w, nil).Error.Code)
		cmds.AssertNotCalled(t, "RecordStockMovement", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("insufficient stock", func(t *testing.T) {
		cmds := new(MockInventoryCommands)
		router := inventoryRouter(&actor, cmds, new(MockLedgerQueries))
		cmds.On("RecordStockMovement", mock.Anything, actor, mock.Anything).
			Return(nil, shared.NewInsufficientStockError("Ibuprofen 400mg", 1, 3))

		w := doRequest(router, http.MethodPost, "/inventory/movements", inventoryapp.RecordMovementRequest{
			InventoryItemID: uuid.New(),
			WarehouseID:     uuid.New(),
			MovementType:    "OUT",
			Quantity:        3,
		})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, dto.ErrCodeInsufficientStock, decodeResponse(t, w, nil).Error.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		router := inventoryRouter(nil, new(MockInventoryCommands), new(MockLedgerQueries))
		w := doRequest(router, http.MethodPost, "/inventory/movements", `{}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestInventoryHandler_ListMovements(t *testing.T) {
	actor := testActor(identity.RoleManager)
	ledger := new(MockLedgerQueries)
	router := inventoryRouter(&actor, new(MockInventoryCommands), ledger)

	warehouseID := uuid.New()
	ledger.On("ListMovements", mock.Anything, actor, reportapp.MovementFilter{
		WarehouseID:  &warehouseID,
		MovementType: "out",
		Page:         2,
		PageSize:     10,
	}).Return(&shared.Paginated[inventoryapp.MovementResponse]{
		Items:      []inventoryapp.MovementResponse{{ID: uuid.New(), MovementType: "OUT", Quantity: 2}},
		Total:      11,
		Page:       2,
		PageSize:   10,
		TotalPages: 2,
	}, nil)

	w := doRequest(router, http.MethodGet,
		"/inventory/movements?warehouse_id="+warehouseID.String()+"&movement_type=out&page=2&page_size=10", nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var items []inventoryapp.MovementResponse
	resp := decodeResponse(t, w, &items)
	assert.Len(t, items, 1)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(11), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Page)
	ledger.AssertExpectations(t)
}

func TestInventoryHandler_ListMovements_BadQuery(t *testing.T) {
	actor := testActor(identity.RoleManager)
	ledger := new(MockLedgerQueries)
	router := inventoryRouter(&actor, new(MockInventoryCommands), ledger)

	for _, query := range []string{"warehouse_id=nope", "page_size=500", "inventory_item_id=123"} {
		w := doRequest(router, http.MethodGet, "/inventory/movements?"+query, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, query)
	}
	ledger.AssertNotCalled(t, "ListMovements", mock.Anything, mock.Anything, mock.Anything)
}

func TestInventoryHandler_GetItem(t *testing.T) {
	actor := testActor(identity.RoleCashier)
	cmds := new(MockInventoryCommands)
	router := inventoryRouter(&actor, cmds, new(MockLedgerQueries))

	found, missing := uuid.New(), uuid.New()
	cmds.On("GetByID", mock.Anything, actor, found).Return(&inventoryapp.InventoryItemResponse{ID: found, Quantity: 12, Available: 12}, nil)
	cmds.On("GetByID", mock.Anything, actor, missing).Return(nil, shared.NewNotFoundError("Inventory item"))

	w := doRequest(router, http.MethodGet, "/inventory/items/"+found.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var item inventoryapp.InventoryItemResponse
	decodeResponse(t, w, &item)
	assert.Equal(t, int64(12), item.Quantity)

	w = doRequest(router, http.MethodGet, "/inventory/items/"+missing.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(router, http.MethodGet, "/inventory/items/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeBadRequest, decodeResponse(t, w, nil).Error.Code)
}

func TestInventoryHandler_AdjustStock(t *testing.T) {
	actor := testActor(identity.RoleManager)
	cmds := new(MockInventoryCommands)
	router := inventoryRouter(&actor, cmds, new(MockLedgerQueries))

	itemID := uuid.New()
	counted := int64(0)
	cmds.On("AdjustStock", mock.Anything, actor, inventoryapp.AdjustStockRequest{
		InventoryItemID: itemID,
		NewQuantity:     &counted,
		Notes:           "expired batch destroyed",
	}).Return(&inventoryapp.InventoryItemResponse{ID: itemID, Quantity: 0}, nil)

	w := doRequest(router, http.MethodPost, "/inventory/items/"+itemID.String()+"/adjust",
		`{"new_quantity":0,"notes":"expired batch destroyed"}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cmds.AssertExpectations(t)

	w = doRequest(router, http.MethodPost, "/inventory/items/"+itemID.String()+"/adjust", `{"notes":"no quantity"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInventoryHandler_AdjustStock_Forbidden(t *testing.T) {
	actor := testActor(identity.RoleCashier)
	cmds := new(MockInventoryCommands)
	router := inventoryRouter(&actor, cmds, new(MockLedgerQueries))
	cmds.On("AdjustStock", mock.Anything, actor, mock.Anything).Return(nil, shared.NewForbiddenError("not allowed"))

	w := doRequest(router, http.MethodPost, "/inventory/items/"+uuid.NewString()+"/adjust", `{"new_quantity":5}`)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestInventoryHandler_ListLowStock(t *testing.T) {
	actor := testActor(identity.RolePharmacist)
	ledger := new(MockLedgerQueries)
	router := inventoryRouter(&actor, new(MockInventoryCommands), ledger)

	reorder := int64(10)
	ledger.On("ListLowStock", mock.Anything, actor).Return([]inventoryapp.InventoryItemResponse{
		{ID: uuid.New(), Quantity: 4, ReorderPoint: &reorder, IsLowStock: true},
	}, nil)

	w := doRequest(router, http.MethodGet, "/inventory/low-stock", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var items []inventoryapp.InventoryItemResponse
	decodeResponse(t, w, &items)
	require.Len(t, items, 1)
	assert.True(t, items[0].IsLowStock)
}
