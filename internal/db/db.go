package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type PoolOptions struct {
	MaxOpenConns int
	MaxIdleConns int
	DialTimeout  time.Duration
}

var DefaultPool = PoolOptions{MaxOpenConns: 10, MaxIdleConns: 2, DialTimeout: 5 * time.Second}

func NewBunPostgresClient(connectionString string) *bun.DB {
	return NewBunPostgresClientWithPool(connectionString, DefaultPool)
}

func NewBunPostgresClientWithPool(connectionString string, pool PoolOptions) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(connectionString),
		pgdriver.WithDialTimeout(pool.DialTimeout),
		pgdriver.WithApplicationName("bundlestore"),
	))

	db := bun.NewDB(sqldb, pgdialect.New())

	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	return db
}

// Ping fails fast on a bad DSN instead of on the first storefront request.
func Ping(ctx context.Context, db *bun.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}
