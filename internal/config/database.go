package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DBPool holds the database/sql pool limits applied after connecting.
type DBPool struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
	MaxIdleTime time.Duration
}

func loadDBPool() DBPool {
	return DBPool{
		MaxOpen:     EnvIntDefault("DB_MAX_OPEN_CONNS", 20),
		MaxIdle:     EnvIntDefault("DB_MAX_IDLE_CONNS", 10),
		MaxLifetime: EnvDurationDefault("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		MaxIdleTime: EnvDurationDefault("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
	}
}

// gormLogLevel keeps SQL tracing off unless the service itself runs at debug.
func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "debug":
		return logger.Info
	case "error":
		return logger.Error
	default:
		return logger.Warn
	}
}

// OpenDB connects to postgres, applies the pool limits and pings once before returning.
func OpenDB(ctx context.Context, cfg Config) (*gorm.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is empty")
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		PrepareStmt:    true,
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
		Logger:         logger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("open shop db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("shop db handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.DBPool.MaxOpen)
	sqlDB.SetMaxIdleConns(cfg.DBPool.MaxIdle)
	sqlDB.SetConnMaxLifetime(cfg.DBPool.MaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.DBPool.MaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping shop db: %w", err)
	}

	return db, nil
}
