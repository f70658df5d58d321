package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	tradeapp "github.com/pharmacy/backend/internal/application/trade"
	"github.com/pharmacy/backend/internal/domain/identity"
)

// IdempotencyKeyHeader lets a till retry a sale submission safely
const IdempotencyKeyHeader = "Idempotency-Key"

// maxIdempotencyKeyLength bounds client-supplied idempotency keys
const maxIdempotencyKeyLength = 128

// SaleOperations is the part of the sale service the handler uses
type SaleOperations interface {
	CreateSale(ctx context.Context, actor identity.Actor, req tradeapp.CreateSaleRequest) (*tradeapp.SaleResponse, error)
	CancelSale(ctx context.Context, actor identity.Actor, saleID uuid.UUID) (*tradeapp.SaleResponse, error)
	GetSale(ctx context.Context, actor identity.Actor, saleID uuid.UUID) (*tradeapp.SaleResponse, error)
	ListSales(ctx context.Context, actor identity.Actor, filter tradeapp.SaleListFilter) ([]tradeapp.SaleResponse, int64, error)
	GetReceipt(ctx context.Context, actor identity.Actor, saleID uuid.UUID) (*tradeapp.ReceiptResponse, error)
}

// SaleHandler handles point-of-sale endpoints
type SaleHandler struct {
	BaseHandler
	sales SaleOperations
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(sales SaleOperations) *SaleHandler {
	return &SaleHandler{sales: sales}
}

// Create godoc
// @ID           createSale
// @Summary      Complete a sale
// @Description  Validates the basket, deducts stock and records the sale atomically
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string                       false "Retry key"
// @Param        request         body   tradeapp.CreateSaleRequest true  "Basket"
// @Success      201 {object} APIResponse[tradeapp.SaleResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales [post]
func (h *SaleHandler) Create(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req tradeapp.CreateSaleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
	if len(key) > maxIdempotencyKeyLength {
		h.BadRequest(c, "Idempotency-Key is too long")
		return
	}
	req.IdempotencyKey = key

	sale, err := h.sales.CreateSale(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sale)
}

// List godoc
// @ID           listSales
// @Summary      List sales
// @Tags         sales
// @Produce      json
// @Param        warehouse_id   query string false "Warehouse ID"
// @Param        status         query string false "COMPLETED or CANCELLED"
// @Param        payment_method query string false "CASH, CARD, QRIS, TRANSFER, INSURANCE or OTHER"
// @Param        from           query string false "First day (YYYY-MM-DD)"
// @Param        to             query string false "Last day (YYYY-MM-DD)"
// @Param        page           query int    false "Page number" default(1)
// @Param        page_size      query int    false "Page size" default(20)
// @Success      200 {object} APIResponse[[]tradeapp.SaleResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales [get]
func (h *SaleHandler) List(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	var query saleListQuery
	if !h.bindQuery(c, &query) {
		return
	}
	query.pageQuery = query.normalized()

	sales, total, err := h.sales.ListSales(c.Request.Context(), actor, query.toFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, sales, total, query.Page, query.PageSize)
}

// GetByID godoc
// @ID           getSale
// @Summary      Get a sale with its lines
// @Tags         sales
// @Produce      json
// @Param        id path string true "Sale ID"
// @Success      200 {object} APIResponse[tradeapp.SaleResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales/{id} [get]
func (h *SaleHandler) GetByID(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	sale, err := h.sales.GetSale(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// Cancel godoc
// @ID           cancelSale
// @Summary      Cancel a completed sale
// @Description  Marks the sale cancelled and returns every line to stock
// @Tags         sales
// @Produce      json
// @Param        id path string true "Sale ID"
// @Success      200 {object} APIResponse[tradeapp.SaleResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales/{id}/cancel [post]
func (h *SaleHandler) Cancel(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	sale, err := h.sales.CancelSale(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// GetReceipt godoc
// @ID           getSaleReceipt
// @Summary      Get the printable receipt of a sale
// @Tags         sales
// @Produce      json
// @Param        id path string true "Sale ID"
// @Success      200 {object} APIResponse[tradeapp.ReceiptResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales/{id}/receipt [get]
func (h *SaleHandler) GetReceipt(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	receipt, err := h.sales.GetReceipt(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, receipt)
}
