package database

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"travelblog/common"
)

// OpenMemory returns a private in-memory sqlite database with the schema
// migrated and foreign keys enforced. The package tests run against it.
func OpenMemory() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(common.SqliteDSN("file::memory:")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// A second connection would open a second, empty database.
	sqlDB.SetMaxOpenConns(1)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}
