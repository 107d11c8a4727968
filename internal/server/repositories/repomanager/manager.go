package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/ogpblog/internal/dbx"
	"github.com/dmitrijs2005/ogpblog/internal/server/repositories/posts"
)

// RepositoryManager vends repositories bound to a pool or a transaction and
// owns schema migrations.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	MigrationStatus(ctx context.Context, db *sql.DB) (int64, error)
	Posts(db dbx.DBTX) posts.Repository
}
