package pg

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
)

// PoolOptions: пул нужен только на время миграции, поэтому он небольшой.
type PoolOptions struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
	PingTimeout time.Duration
}

var DefaultPool = PoolOptions{
	MaxOpen:     4,
	MaxIdle:     2,
	MaxLifetime: 30 * time.Minute,
	PingTimeout: 5 * time.Second,
}

// Open открывает database/sql поверх pgx и проверяет соединение.
func Open(ctx context.Context, url string, opts ...PoolOptions) (*sql.DB, error) {
	o := DefaultPool
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.PingTimeout <= 0 {
		o.PingTimeout = DefaultPool.PingTimeout
	}
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("pg open: %w", err)
	}
	db.SetConnMaxLifetime(o.MaxLifetime)
	db.SetMaxOpenConns(o.MaxOpen)
	db.SetMaxIdleConns(o.MaxIdle)

	pingCtx, cancel := context.WithTimeout(ctx, o.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pg ping: %w", err)
	}
	return db, nil
}
