package persistence

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/infrastructure/config"
	"github.com/pharmacy/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

func sqliteConfig() *config.DatabaseConfig {
	return &config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: ":memory:",
	}
}

func TestNewDatabase_SQLite(t *testing.T) {
	db, err := NewDatabase(sqliteConfig(), zap.NewNop(), gormlogger.Silent)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, config.DriverSQLite, db.Driver)
	assert.NoError(t, db.Ping())

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MaxOpenConnections)
}

func TestNewDatabase_UnknownDriver(t *testing.T) {
	cfg := sqliteConfig()
	cfg.Driver = "oracle"

	db, err := NewDatabase(cfg, zap.NewNop(), gormlogger.Silent)
	require.Error(t, err)
	assert.Nil(t, db)
	assert.Contains(t, err.Error(), "oracle")
}

func TestAutoMigrate_CreatesLedgerSchema(t *testing.T) {
	db, err := NewDatabase(sqliteConfig(), zap.NewNop(), gormlogger.Silent)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, AutoMigrate(db.DB))

	for _, table := range []string{
		"warehouses", "medicines", "inventory_items", "stock_movements",
		"sales", "sale_items", "sale_number_sequences",
	} {
		assert.True(t, db.DB.Migrator().HasTable(table), table)
	}
	assert.True(t, db.DB.Migrator().HasIndex("inventory_items", "idx_inventory_items_sku"))
	assert.True(t, db.DB.Migrator().HasIndex("sales", "idx_sales_tenant_number"))

	// Running twice is harmless
	require.NoError(t, AutoMigrate(db.DB))
}

func TestAutoMigrate_SKUIndexTreatsMissingBatchAsOne(t *testing.T) {
	db, err := NewDatabase(sqliteConfig(), zap.NewNop(), gormlogger.Silent)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, AutoMigrate(db.DB))

	tenantID, medicineID, warehouseID := uuid.New(), uuid.New(), uuid.New()
	newItem := func(batch *string) *models.InventoryItemModel {
		now := time.Now()
		m := &models.InventoryItemModel{
			MedicineID:  medicineID,
			WarehouseID: warehouseID,
			BatchNumber: batch,
		}
		m.ID = uuid.New()
		m.TenantID = tenantID
		m.Version = 1
		m.CreatedAt = now
		m.UpdatedAt = now
		return m
	}

	require.NoError(t, db.DB.Create(newItem(nil)).Error)
	assert.Error(t, db.DB.Create(newItem(nil)).Error, "second item without batch must collide")

	batch := "B-001"
	require.NoError(t, db.DB.Create(newItem(&batch)).Error)
	assert.Error(t, db.DB.Create(newItem(&batch)).Error)

	other := "B-002"
	assert.NoError(t, db.DB.Create(newItem(&other)).Error)
}

func TestDatabase_Close(t *testing.T) {
	db, err := NewDatabase(sqliteConfig(), zap.NewNop(), gormlogger.Silent)
	require.NoError(t, err)

	require.NoError(t, db.Close())
	assert.Error(t, db.Ping())
}
