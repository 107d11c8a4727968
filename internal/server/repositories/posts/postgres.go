package posts

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/ogpblog/internal/dbx"
	"github.com/dmitrijs2005/ogpblog/internal/server/models"
)

const postColumns = `id, title, description, created_at, updated_at`

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

var _ Repository = (*PostgresRepository)(nil)

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(s scanner) (*models.Post, error) {
	var (
		p    models.Post
		desc sql.NullString
	)
	if err := s.Scan(&p.ID, &p.Title, &desc, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if desc.Valid {
		p.Description = &desc.String
	}
	return &p, nil
}

// List returns every post ordered by id. It never returns a nil slice.
func (r *PostgresRepository) List(ctx context.Context) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, dbx.Classify("posts.list", err)
	}
	defer rows.Close()

	result := make([]*models.Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, dbx.Classify("posts.list", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.Classify("posts.list", err)
	}
	return result, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	p, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, dbx.Classify("posts.get", err)
	}
	return p, nil
}

// FindByTitle returns the first post with exactly this title.
func (r *PostgresRepository) FindByTitle(ctx context.Context, title string) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE title = $1 ORDER BY id LIMIT 1`

	p, err := scanPost(r.db.QueryRowContext(ctx, query, title))
	if err != nil {
		return nil, dbx.Classify("posts.find_by_title", err)
	}
	return p, nil
}

// Create inserts a post and returns the stored row. A nil description is
// written as NULL.
func (r *PostgresRepository) Create(ctx context.Context, title string, description *string) (*models.Post, error) {
	query := `INSERT INTO posts (title, description)
		VALUES ($1, $2)
		RETURNING ` + postColumns

	var desc sql.NullString
	if description != nil {
		desc = sql.NullString{String: *description, Valid: true}
	}

	p, err := scanPost(r.db.QueryRowContext(ctx, query, title, desc))
	if err != nil {
		return nil, dbx.Classify("posts.create", err)
	}
	return p, nil
}
