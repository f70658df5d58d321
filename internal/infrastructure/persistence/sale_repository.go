package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/pharmacy/backend/internal/domain/trade"
	"github.com/pharmacy/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSaleRepository implements SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// Create inserts the sale header and its items.
// A duplicate sale number surfaces as trade.ErrSaleNumberTaken.
func (r *GormSaleRepository) Create(ctx context.Context, sale *trade.Sale) error {
	if err := r.db.WithContext(ctx).Create(models.SaleModelFromDomain(sale)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return trade.ErrSaleNumberTaken
		}
		return err
	}
	return nil
}

// FindByIDForTenant finds a sale with its items
func (r *GormSaleRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*trade.Sale, error) {
	return r.findOne(r.db.WithContext(ctx), tenantID, id)
}

// FindByIDForUpdate finds a sale with its items and locks the sale row
func (r *GormSaleRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*trade.Sale, error) {
	return r.findOne(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), tenantID, id)
}

func (r *GormSaleRepository) findOne(query *gorm.DB, tenantID, id uuid.UUID) (*trade.Sale, error) {
	var model models.SaleModel
	if err := query.
		Preload("Items", orderItems).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Sale")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindForTenant lists sales newest first, with items
func (r *GormSaleRepository) FindForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]trade.Sale, error) {
	filter = filter.Normalize()

	var rows []models.SaleModel
	query := applySaleFilter(r.db.WithContext(ctx).Where("tenant_id = ?", tenantID), filter)
	if err := query.
		Preload("Items", orderItems).
		Order(ValidateSortField(filter.OrderBy, SaleSortFields, "created_at") + " " + ValidateSortOrder(filter.OrderDir)).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	sales := make([]trade.Sale, len(rows))
	for i := range rows {
		sales[i] = *rows[i].ToDomain()
	}
	return sales, nil
}

// CountForTenant counts sales matching filter
func (r *GormSaleRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := applySaleFilter(r.db.WithContext(ctx).Model(&models.SaleModel{}).Where("tenant_id = ?", tenantID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// MarkCancelled moves a sale from COMPLETED to its cancelled state.
// The status guard makes a second cancel of the same sale fail even when
// two cancels race past the application checks.
func (r *GormSaleRepository) MarkCancelled(ctx context.Context, sale *trade.Sale) error {
	result := r.db.WithContext(ctx).
		Model(&models.SaleModel{}).
		Where("tenant_id = ? AND id = ? AND status = ?", sale.TenantID, sale.ID, string(trade.SaleStatusCompleted)).
		Updates(map[string]any{
			"status":       string(sale.Status),
			"cancelled_at": sale.CancelledAt,
			"cancelled_by": sale.CancelledBy,
			"updated_at":   sale.UpdatedAt,
			"version":      gorm.Expr("version + 1"),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewInvalidStateError("Sale is no longer COMPLETED")
	}
	return nil
}

// Statistics aggregates COMPLETED sales grouped by payment method
func (r *GormSaleRepository) Statistics(ctx context.Context, tenantID uuid.UUID, filter trade.StatisticsFilter) (*trade.SalesStatistics, error) {
	type methodTotal struct {
		PaymentMethod string
		SaleCount     int64
		Revenue       decimal.Decimal
	}

	query := r.db.WithContext(ctx).
		Model(&models.SaleModel{}).
		Select("payment_method, COUNT(*) AS sale_count, COALESCE(SUM(final_amount), 0) AS revenue").
		Where("tenant_id = ? AND status = ?", tenantID, string(trade.SaleStatusCompleted))
	if filter.WarehouseID != nil {
		query = query.Where("warehouse_id = ?", *filter.WarehouseID)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", *filter.To)
	}

	var rows []methodTotal
	if err := query.Group("payment_method").Scan(&rows).Error; err != nil {
		return nil, err
	}

	var count int64
	revenue := decimal.Zero
	byMethod := make(map[trade.PaymentMethod]int64, len(rows))
	for _, row := range rows {
		count += row.SaleCount
		revenue = revenue.Add(row.Revenue)
		byMethod[trade.PaymentMethod(row.PaymentMethod)] = row.SaleCount
	}

	return trade.NewSalesStatistics(count, revenue.Round(2), byMethod), nil
}

func applySaleFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "warehouse_id":
			query = query.Where("warehouse_id = ?", value)
		case "status":
			query = query.Where("status = ?", stringValue(value))
		case "payment_method":
			query = query.Where("payment_method = ?", stringValue(value))
		case "from":
			query = query.Where("created_at >= ?", value)
		case "to":
			query = query.Where("created_at < ?", value)
		}
	}
	return query
}

// stringValue unwraps the named string types the services put into filters
func stringValue(v any) any {
	switch s := v.(type) {
	case trade.SaleStatus:
		return string(s)
	case trade.PaymentMethod:
		return string(s)
	default:
		return v
	}
}

func orderItems(db *gorm.DB) *gorm.DB {
	return db.Order("line_no ASC")
}

// GormSaleSequenceRepository implements SaleSequenceRepository on the
// sale_number_sequences table.
type GormSaleSequenceRepository struct {
	db *gorm.DB
}

// NewGormSaleSequenceRepository creates a new GormSaleSequenceRepository
func NewGormSaleSequenceRepository(db *gorm.DB) *GormSaleSequenceRepository {
	return &GormSaleSequenceRepository{db: db}
}

// Next increments the (tenant, day) counter and returns the new value.
// The UPDATE takes the row lock, so concurrent callers in other
// transactions queue behind it. The first sale of a day inserts the row;
// losing that insert race returns trade.ErrSaleNumberTaken.
func (r *GormSaleSequenceRepository) Next(ctx context.Context, tenantID uuid.UUID, dateKey string) (int64, error) {
	db := r.db.WithContext(ctx)
	now := time.Now()

	result := db.Model(&models.SaleNumberSequenceModel{}).
		Where("tenant_id = ? AND sale_date = ?", tenantID, dateKey).
		Updates(map[string]any{
			"last_value": gorm.Expr("last_value + 1"),
			"updated_at": now,
		})
	if result.Error != nil {
		return 0, result.Error
	}

	if result.RowsAffected == 0 {
		seq := &models.SaleNumberSequenceModel{
			TenantID:  tenantID,
			SaleDate:  dateKey,
			LastValue: 1,
			UpdatedAt: now,
		}
		if err := db.Create(seq).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return 0, trade.ErrSaleNumberTaken
			}
			return 0, err
		}
		return 1, nil
	}

	var seq models.SaleNumberSequenceModel
	if err := db.Where("tenant_id = ? AND sale_date = ?", tenantID, dateKey).First(&seq).Error; err != nil {
		return 0, err
	}
	return seq.LastValue, nil
}

// Ensure the GORM repositories implement the domain ports
var (
	_ trade.SaleRepository         = (*GormSaleRepository)(nil)
	_ trade.SaleSequenceRepository = (*GormSaleSequenceRepository)(nil)
)
