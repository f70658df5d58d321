package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/catalog"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/pharmacy/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormWarehouseRepository reads the warehouses table
type GormWarehouseRepository struct {
	db *gorm.DB
}

// NewGormWarehouseRepository creates a new GormWarehouseRepository
func NewGormWarehouseRepository(db *gorm.DB) *GormWarehouseRepository {
	return &GormWarehouseRepository{db: db}
}

// FindByIDForTenant finds a warehouse by ID within a tenant
func (r *GormWarehouseRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Warehouse, error) {
	var model models.WarehouseModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Warehouse")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// GormMedicineRepository reads the medicines table
type GormMedicineRepository struct {
	db *gorm.DB
}

// NewGormMedicineRepository creates a new GormMedicineRepository
func NewGormMedicineRepository(db *gorm.DB) *GormMedicineRepository {
	return &GormMedicineRepository{db: db}
}

// FindByIDForTenant finds a medicine by ID within a tenant
func (r *GormMedicineRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Medicine, error) {
	var model models.MedicineModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Medicine")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds the listed medicines; unknown IDs are skipped
func (r *GormMedicineRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]catalog.Medicine, error) {
	if len(ids) == 0 {
		return []catalog.Medicine{}, nil
	}

	var rows []models.MedicineModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	medicines := make([]catalog.Medicine, len(rows))
	for i := range rows {
		medicines[i] = *rows[i].ToDomain()
	}
	return medicines, nil
}

// Ensure the GORM repositories implement the catalog ports
var (
	_ catalog.WarehouseRepository = (*GormWarehouseRepository)(nil)
	_ catalog.MedicineRepository  = (*GormMedicineRepository)(nil)
)
