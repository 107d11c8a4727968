// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/ogpblog/internal/dbx"
	"github.com/dmitrijs2005/ogpblog/internal/server/migrations"
	"github.com/dmitrijs2005/ogpblog/internal/server/repositories/posts"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes the schema migration hooks.
type PostgresRepositoryManager struct{}

var _ RepositoryManager = (*PostgresRepositoryManager)(nil)

// Posts returns a posts.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Posts(db dbx.DBTX) posts.Repository {
	return posts.NewPostgresRepository(db)
}

// goose keeps its base FS and dialect in package state.
var gooseSetup sync.Once

func setupGoose() {
	gooseSetup.Do(func() {
		goose.SetBaseFS(migrations.Migrations)
		if err := goose.SetDialect("pgx"); err != nil {
			panic(err)
		}
	})
}

// Seams for testing goose calls.
var (
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return goose.UpContext(ctx, db, dir, opts...)
	}
	gooseVersionContext = func(ctx context.Context, db *sql.DB) (int64, error) {
		return goose.GetDBVersionContext(ctx, db)
	}
)

// RunMigrations applies every pending embedded migration.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	setupGoose()
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// MigrationStatus returns the current schema version.
func (m *PostgresRepositoryManager) MigrationStatus(ctx context.Context, db *sql.DB) (int64, error) {
	setupGoose()
	v, err := gooseVersionContext(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("migrate status: %w", err)
	}
	return v, nil
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}
