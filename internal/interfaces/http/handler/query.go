package handler

import (
	"time"

	"github.com/google/uuid"
	reportapp "github.com/pharmacy/backend/internal/application/report"
	tradeapp "github.com/pharmacy/backend/internal/application/trade"
	"github.com/pharmacy/backend/internal/domain/shared"
)

// dateLayout is the calendar-day format accepted by from/to query parameters
const dateLayout = "2006-01-02"

// pageQuery holds the common paging parameters
type pageQuery struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// normalized applies the repository paging defaults
func (q pageQuery) normalized() pageQuery {
	f := shared.Filter{Page: q.Page, PageSize: q.PageSize}.Normalize()
	return pageQuery{Page: f.Page, PageSize: f.PageSize}
}

// dateRangeQuery holds inclusive calendar-day bounds
type dateRangeQuery struct {
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To   string `form:"to" binding:"omitempty,datetime=2006-01-02"`
}

func (q dateRangeQuery) bounds() (from, to *time.Time) {
	return parseDate(q.From), parseDate(q.To)
}

// movementQuery is the query string of GET /inventory/movements
type movementQuery struct {
	pageQuery
	WarehouseID     string `form:"warehouse_id" binding:"omitempty,uuid"`
	InventoryItemID string `form:"inventory_item_id" binding:"omitempty,uuid"`
	MovementType    string `form:"movement_type"`
}

func (q movementQuery) toFilter() reportapp.MovementFilter {
	return reportapp.MovementFilter{
		WarehouseID:     parseUUID(q.WarehouseID),
		InventoryItemID: parseUUID(q.InventoryItemID),
		MovementType:    q.MovementType,
		Page:            q.Page,
		PageSize:        q.PageSize,
	}
}

// saleListQuery is the query string of GET /sales
type saleListQuery struct {
	pageQuery
	dateRangeQuery
	WarehouseID   string `form:"warehouse_id" binding:"omitempty,uuid"`
	Status        string `form:"status"`
	PaymentMethod string `form:"payment_method"`
}

func (q saleListQuery) toFilter() tradeapp.SaleListFilter {
	from, to := q.bounds()
	return tradeapp.SaleListFilter{
		WarehouseID:   parseUUID(q.WarehouseID),
		Status:        q.Status,
		PaymentMethod: q.PaymentMethod,
		From:          from,
		To:            to,
		Page:          q.Page,
		PageSize:      q.PageSize,
	}
}

// statisticsQuery is the query string of GET /reports/sales-statistics
type statisticsQuery struct {
	dateRangeQuery
	WarehouseID string `form:"warehouse_id" binding:"omitempty,uuid"`
}

func (q statisticsQuery) toFilter() reportapp.StatisticsFilter {
	from, to := q.bounds()
	return reportapp.StatisticsFilter{
		WarehouseID: parseUUID(q.WarehouseID),
		From:        from,
		To:          to,
	}
}

// parseUUID returns nil for an empty value; callers validate the format first
func parseUUID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}
