package config

import (
	"fmt"
	"net/url"

	"github.com/yeremiapane/restaurant-reservations/utils"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DSN returns DB_DSN when set, otherwise a connection string assembled for
// the configured driver.
func (cfg *Config) DSN() string {
	if cfg.DBDSN != "" {
		return cfg.DBDSN
	}
	switch cfg.DBDriver {
	case DriverMySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	case DriverPostgres:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(cfg.DBUser, cfg.DBPass),
			Host:     fmt.Sprintf("%s:%d", cfg.DBHost, cfg.DBPort),
			Path:     cfg.DBName,
			RawQuery: "sslmode=disable&TimeZone=UTC",
		}
		return u.String()
	default:
		return fmt.Sprintf("file:%s?_foreign_keys=1&_busy_timeout=5000", cfg.DBSQLitePath)
	}
}

func (cfg *Config) dialector() gorm.Dialector {
	switch cfg.DBDriver {
	case DriverMySQL:
		return mysql.Open(cfg.DSN())
	case DriverPostgres:
		return postgres.Open(cfg.DSN())
	default:
		return sqlite.Open(cfg.DSN())
	}
}

// InitDB opens the connection pool for the configured driver with gorm's SQL
// log routed through the application logger.
func InitDB(cfg *Config) (*gorm.DB, error) {
	level := logger.Warn
	if cfg.Mode == ModeDev {
		level = logger.Info
	}
	gormLogger := logger.New(
		utils.InfoLogger,
		logger.Config{
			SlowThreshold:             cfg.DBSlowThreshold,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(cfg.dialector(), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.DBDriver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.DBDriver == DriverSQLite {
		// sqlite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	utils.InfoLogger.Infof("Connected to %s database", cfg.DBDriver)
	return db, nil
}
