package db

import (
	"context"
	"fmt"
	"time"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jmehdipour/emay-gateway/internal/config"
	"github.com/jmoiron/sqlx"
)

const (
	DriverMySQL      = "mysql"
	DriverClickHouse = "clickhouse"
)

// Open opens a pooled *sqlx.DB for driver and pings it before returning.
func Open(driver string, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("%s: empty DSN", driver)
	}

	db, err := sqlx.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%s open: %w", driver, err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s ping: %w", driver, err)
	}

	return db, nil
}

func NewMySQL(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	return Open(DriverMySQL, cfg)
}

// NewClickHouse expects a DSN like clickhouse://default:@localhost:9000/smsgw?dial_timeout=5s&compress=true
func NewClickHouse(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	return Open(DriverClickHouse, cfg)
}
