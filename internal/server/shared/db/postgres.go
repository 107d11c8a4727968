// Package db opens the PostgreSQL connection pool shared by the server and
// the admin CLI. The pool is pgxpool; callers get a *sql.DB view of it so the
// repositories and transaction helpers stay on database/sql.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/dmitrijs2005/ogpblog/internal/common"
	"github.com/dmitrijs2005/ogpblog/internal/dbx"
)

const (
	MaxConns          = 20
	MinConns          = 2
	MaxConnIdleTime   = 30 * time.Second
	MaxConnLifetime   = time.Hour
	ConnectTimeout    = 10 * time.Second
	HealthCheckPeriod = time.Minute
)

// PoolConfig parses dsn and applies the pool settings used in every
// environment.
func PoolConfig(dsn string) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	cfg.MaxConns = MaxConns
	cfg.MinConns = MinConns
	cfg.MaxConnIdleTime = MaxConnIdleTime
	cfg.MaxConnLifetime = MaxConnLifetime
	cfg.HealthCheckPeriod = HealthCheckPeriod
	cfg.ConnConfig.ConnectTimeout = ConnectTimeout

	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, "SELECT set_config('application_name', $1, false)", common.ApplicationName)
		return err
	}

	return cfg, nil
}

type Database struct {
	pool *pgxpool.Pool
	db   *sql.DB
}

// Open creates the pool and checks that the server answers.
func Open(ctx context.Context, dsn string) (*Database, error) {
	cfg, err := PoolConfig(dsn)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, dbx.Classify("db.ping", err)
	}

	return &Database{pool: pool, db: stdlib.OpenDBFromPool(pool)}, nil
}

func (d *Database) DB() *sql.DB {
	return d.db
}

func (d *Database) Pool() *pgxpool.Pool {
	return d.pool
}

// Close closes the *sql.DB view and then the pool itself.
func (d *Database) Close() error {
	err := d.db.Close()
	d.pool.Close()
	return err
}
