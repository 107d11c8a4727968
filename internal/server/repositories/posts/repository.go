// Package posts stores blog posts in PostgreSQL.
package posts

import (
	"context"

	"github.com/dmitrijs2005/ogpblog/internal/server/models"
)

// Repository is the persistence contract for posts. Implementations are bound
// to a dbx.DBTX, so the same code runs on the pool or inside a transaction.
//
// GetByID and FindByTitle report a missing row with an error that matches
// common.ErrorNotFound. Every other failure is a classified *common.Error.
type Repository interface {
	List(ctx context.Context) ([]*models.Post, error)
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	FindByTitle(ctx context.Context, title string) (*models.Post, error)
	Create(ctx context.Context, title string, description *string) (*models.Post, error)
}
