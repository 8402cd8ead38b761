package database

import (
	"fmt"

	"github.com/suteetoe/rfitrack/pkg/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB opens the database connection for the configured driver
func InitDB(dbConfig *config.DBConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch dbConfig.Driver {
	case "sqlite":
		dialector = sqlite.Open(dbConfig.GetDSN())
	case "postgres", "":
		dialector = postgres.New(postgres.Config{
			DSN:                  dbConfig.GetDSN(),
			PreferSimpleProtocol: true, // Disables implicit prepared statement usage
		})
	default:
		return nil, fmt.Errorf("unsupported database driver %q", dbConfig.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(dbConfig.LogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get database object: %w", err)
	}

	if dbConfig.Driver == "sqlite" {
		// SQLite serializes writers; a single connection avoids "database is locked"
		sqlDB.SetMaxOpenConns(1)
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
		return db, nil
	}

	sqlDB.SetMaxIdleConns(dbConfig.MaxIdleConns)
	sqlDB.SetMaxOpenConns(dbConfig.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(dbConfig.ConnMaxLifetime)

	return db, nil
}

// OpenMemory opens a private in-memory SQLite database with the given models migrated
func OpenMemory(models ...interface{}) (*gorm.DB, error) {
	db, err := InitDB(&config.DBConfig{
		Driver:     "sqlite",
		SQLitePath: "file::memory:",
		LogLevel:   logger.Silent,
	})
	if err != nil {
		return nil, err
	}
	if err := MigrateModels(db, models...); err != nil {
		return nil, err
	}
	return db, nil
}

// MigrateModels runs migrations for the provided models
func MigrateModels(db *gorm.DB, models ...interface{}) error {
	if db == nil {
		return fmt.Errorf("database is not initialized")
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	return nil
}
