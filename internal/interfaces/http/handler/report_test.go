package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	reportapp "github.com/pharmacy/backend/internal/application/report"
	"github.com/pharmacy/backend/internal/domain/identity"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func reportRouter(actor *identity.Actor, ledger *MockLedgerQueries) *gin.Engine {
	h := NewReportHandler(ledger)
	return newTestRouter(actor, func(r *gin.Engine) {
		r.GET("/reports/sales-statistics", h.GetSalesStatistics)
	})
}

func TestReportHandler_GetSalesStatistics(t *testing.T) {
	actor := testActor(identity.RoleManager)
	ledger := new(MockLedgerQueries)
	router := reportRouter(&actor, ledger)

	warehouseID := uuid.New()
	ledger.On("GetSalesStatistics", mock.Anything, actor, mock.MatchedBy(func(f reportapp.StatisticsFilter) bool {
		return f.WarehouseID != nil && *f.WarehouseID == warehouseID &&
			f.From != nil && f.From.Format(dateLayout) == "2026-10-01" &&
			f.To != nil && f.To.Format(dateLayout) == "2026-10-15"
	})).Return(&reportapp.SalesStatisticsResponse{
		TotalSales:           3,
		TotalRevenue:         decimal.NewFromInt(90000),
		AverageTransaction:   decimal.NewFromInt(30000),
		SalesByPaymentMethod: map[string]int64{"CASH": 2, "QRIS": 1},
	}, nil)

	w := doRequest(router, http.MethodGet,
		"/reports/sales-statistics?warehouse_id="+warehouseID.String()+"&from=2026-10-01&to=2026-10-15", nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var stats reportapp.SalesStatisticsResponse
	decodeResponse(t, w, &stats)
	assert.Equal(t, int64(3), stats.TotalSales)
	assert.Equal(t, int64(2), stats.SalesByPaymentMethod["CASH"])
	ledger.AssertExpectations(t)
}

func TestReportHandler_GetSalesStatistics_Errors(t *testing.T) {
	actor := testActor(identity.RoleCashier)
	ledger := new(MockLedgerQueries)
	router := reportRouter(&actor, ledger)
	ledger.On("GetSalesStatistics", mock.Anything, actor, mock.Anything).
		Return(nil, shared.NewForbiddenError("role CASHIER may not view reports"))

	w := doRequest(router, http.MethodGet, "/reports/sales-statistics", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(router, http.MethodGet, "/reports/sales-statistics?to=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
