// Package store is the persistence boundary of Patchdeck. It opens GORM over
// SQLite (default), MySQL or PostgreSQL and implements the fleet repository:
// servers, patches, activities and the daily patch activity history.
package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/vesaa/patchdeck/internal/config"
	"github.com/vesaa/patchdeck/internal/logging"
	"github.com/vesaa/patchdeck/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the configured database, sizes the pool and runs AutoMigrate.
func Open(cfg *config.Config, log logrus.FieldLogger) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(logging.Component(log, "gorm"), logger.Config{
			SlowThreshold:             300 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	if cfg.DBMaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime())
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	where := cfg.DBPath
	if cfg.DBDriver != "sqlite" {
		where = "dsn"
	}
	logging.Component(log, "db").Infof("opened %s/%s", cfg.DBDriver, where)
	return db, nil
}

// Migrate creates or updates the four Patchdeck tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Server{},
		&models.Patch{},
		&models.Activity{},
		&models.PatchActivityPoint{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

func dialectorFor(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case "sqlite", "":
		return sqlite.Open(sqliteDSN(cfg.DBPath)), nil
	case "mysql":
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("db_dsn is required for db_driver mysql")
		}
		return mysql.Open(mysqlDSN(cfg.DBDSN)), nil
	case "postgres":
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("db_dsn is required for db_driver postgres")
		}
		return postgres.Open(cfg.DBDSN), nil
	default:
		return nil, fmt.Errorf("unsupported db_driver %q (use 'sqlite', 'mysql' or 'postgres')", cfg.DBDriver)
	}
}

// sqliteDSN turns on foreign keys (patch cascade) and a busy timeout unless
// the path already sets pragmas.
func sqliteDSN(path string) string {
	if strings.Contains(path, "_pragma=") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// mysqlDSN makes the driver return DATETIME columns as time.Time.
func mysqlDSN(dsn string) string {
	if strings.Contains(dsn, "parseTime=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "parseTime=true"
}
