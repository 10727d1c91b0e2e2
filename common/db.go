package common

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"travelblog/config"
	"travelblog/logging"
)

// ConnectDb opens the configured database. Foreign keys are always enforced
// so that deleting a category or post cascades to its children.
func ConnectDb(cfg *config.Config, log *slog.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: logging.NewGormLogger(log, gormLevel(cfg.LogLevel), 200*time.Millisecond),
	}

	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dialector = postgres.Open(cfg.DatabaseURL)
	case "sqlite":
		dialector = sqlite.Open(SqliteDSN(cfg.SqliteDB))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.DBDriver, err)
	}
	log.Info("database opened", slog.String("driver", cfg.DBDriver))
	return db, nil
}

// SqliteDSN appends the pragma that turns on foreign key enforcement, which
// sqlite leaves off by default.
func SqliteDSN(file string) string {
	if strings.Contains(file, "_foreign_keys") {
		return file
	}
	sep := "?"
	if strings.Contains(file, "?") {
		sep = "&"
	}
	return file + sep + "_foreign_keys=on"
}

func gormLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return logger.Info
	case "error":
		return logger.Error
	default:
		return logger.Warn
	}
}
