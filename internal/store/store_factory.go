package store

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"notifyrelay/internal/config"
	"notifyrelay/internal/repository"
	"notifyrelay/internal/store/memory"
	"notifyrelay/internal/store/mysql"
	"notifyrelay/internal/store/sqlite"
)

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

func NewStore(cfg *config.Config, logger *zap.Logger) (repository.KeyValueStore, error) {
	switch driver := resolveDriver(cfg); driver {
	case DriverMemory:
		return memory.New(logger), nil
	case DriverSQLite:
		st, err := sqlite.Open(cfg.SQLitePath, logger)
		if err != nil {
			logger.Error("sqlite open failed", zap.String("path", cfg.SQLitePath), zap.Error(err))
			return nil, err
		}
		return st, nil
	case DriverMySQL:
		sqlDB, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			logger.Error("mysql open failed", zap.Error(err))
			return nil, err
		}
		if err := sqlDB.Ping(); err != nil {
			logger.Error("mysql ping failed", zap.Error(err))
			_ = sqlDB.Close()
			return nil, err
		}
		return mysql.New(sqlDB, logger), nil
	default:
		return nil, fmt.Errorf("unknown store driver: %s", driver)
	}
}

func resolveDriver(cfg *config.Config) string {
	switch cfg.StoreDriver {
	case "sqlite3":
		return DriverSQLite
	case "":
	default:
		return cfg.StoreDriver
	}
	if cfg.MySQLDSN != "" {
		return DriverMySQL
	}
	if cfg.SQLitePath != "" {
		return DriverSQLite
	}
	return DriverMemory
}
