package handler

import (
	"github.com/gin-gonic/gin"
)

// ReportHandler handles reporting endpoints
type ReportHandler struct {
	BaseHandler
	ledger LedgerQueries
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(ledger LedgerQueries) *ReportHandler {
	return &ReportHandler{ledger: ledger}
}

// GetSalesStatistics godoc
// @ID           getSalesStatistics
// @Summary      Sales statistics
// @Description  Count, revenue and payment-method split over completed sales
// @Tags         reports
// @Produce      json
// @Param        warehouse_id query string false "Warehouse ID"
// @Param        from         query string false "First day (YYYY-MM-DD)"
// @Param        to           query string false "Last day (YYYY-MM-DD)"
// @Success      200 {object} APIResponse[reportapp.SalesStatisticsResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /reports/sales-statistics [get]
func (h *ReportHandler) GetSalesStatistics(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	var query statisticsQuery
	if !h.bindQuery(c, &query) {
		return
	}

	stats, err := h.ledger.GetSalesStatistics(c.Request.Context(), actor, query.toFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}
