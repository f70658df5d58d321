package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementFilter narrows the movement ledger listing
type MovementFilter struct {
	WarehouseID     *uuid.UUID
	InventoryItemID *uuid.UUID
	MovementType    string
	Page            int
	PageSize        int
}

// StatisticsFilter narrows the sales statistics; dates are inclusive calendar days
type StatisticsFilter struct {
	WarehouseID *uuid.UUID
	From        *time.Time
	To          *time.Time
}

// SalesStatisticsResponse is the aggregate over COMPLETED sales
type SalesStatisticsResponse struct {
	TotalSales           int64            `json:"total_sales"`
	TotalRevenue         decimal.Decimal  `json:"total_revenue"`
	AverageTransaction   decimal.Decimal  `json:"average_transaction"`
	SalesByPaymentMethod map[string]int64 `json:"sales_by_payment_method"`
}
