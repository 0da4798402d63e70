package infra

import (
	"fmt"

	"blendresto/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx and runs
// AutoMigrate to create / update all tables.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return db, nil
}

// RunMigrations applies the schema. Also used directly by integration tests
// against a containerized database.
func RunMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Tenant{},
		&model.Product{},
		&model.DiningTable{},
		&model.Order{},
		&model.OrderItem{},
		&model.OrderItemModifier{},
		&model.RawMaterial{},
		&model.RecipeItem{},
		&model.StockLot{},
		&model.StockMovement{},
		&model.PurchaseOrder{},
		&model.PurchaseOrderItem{},
		&model.Supplier{},
		&model.Customer{},
		&model.LoyaltyCredit{},
		&model.Shift{},
	)
}
