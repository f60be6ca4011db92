package database

import (
	"fmt"
	"log"
	"time"

	"pos-analytics/internal/config"
	"pos-analytics/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	db, err := Open(cfg.DatabaseDriver, cfg.DatabaseDSN, cfg.Production)
	if err != nil {
		log.Fatalf("No se pudo conectar a la base de datos: %v", err)
	}

	if err := Migrate(db); err != nil {
		log.Fatalf("Error en AutoMigrate: %v", err)
	}

	DB = db
	log.Printf("Base de datos conectada (%s). Migración completada.", cfg.DatabaseDriver)
}

// Open connects with the given driver and tunes the pool.
func Open(driver, dsn string, production bool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("driver no soportado: %s", driver)
	}

	gormLogger := logger.Default.LogMode(logger.Warn)
	if production {
		gormLogger = logger.Default.LogMode(logger.Silent)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, err
	}

	if sqlDB, err := db.DB(); err == nil {
		if driver == "sqlite" {
			// un solo escritor
			sqlDB.SetMaxOpenConns(1)
		} else {
			sqlDB.SetMaxOpenConns(10)
			sqlDB.SetMaxIdleConns(2)
			sqlDB.SetConnMaxLifetime(5 * time.Minute)
		}
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Supplier{},
		&models.Client{},
		&models.Product{},
		&models.Sale{},
		&models.SaleItem{},
		&models.AuditLog{},
		&models.ScaleConfig{},
		&models.StockCount{},
	)
}

// OpenMemory opens a private in-memory SQLite database and migrates it.
func OpenMemory(name string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := Open("sqlite", dsn, true)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
