package admin

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/ogpblog/internal/common"
	"github.com/dmitrijs2005/ogpblog/internal/dbx"
	"github.com/dmitrijs2005/ogpblog/internal/server/repositories/repomanager"
)

type SamplePost struct {
	Title       string
	Description string
}

// SamplePosts is the development data set written by "blogctl seed".
var SamplePosts = []SamplePost{
	{Title: "First Post", Description: "This is the first post about Next.js and Hono"},
	{Title: "Second Post", Description: "This is the second post about dynamic OGP generation"},
	{Title: "Third Post", Description: "This is the third post about Imgix integration"},
}

// Seed inserts every sample whose title is not taken yet and reports how
// many rows it wrote. It is safe to run repeatedly.
func Seed(ctx context.Context, t *dbx.Transactor, m repomanager.RepositoryManager, samples []SamplePost) (int, error) {
	inserted := 0
	for _, s := range samples {
		created, err := dbx.InTx(ctx, t, func(ctx context.Context, tx dbx.DBTX) (bool, error) {
			repo := m.Posts(tx)

			_, err := repo.FindByTitle(ctx, s.Title)
			if err == nil {
				return false, nil
			}
			if !errors.Is(err, common.ErrorNotFound) {
				return false, err
			}

			desc := s.Description
			if _, err := repo.Create(ctx, s.Title, &desc); err != nil {
				return false, err
			}
			return true, nil
		})
		if err != nil {
			return inserted, err
		}
		if created {
			inserted++
		}
	}
	return inserted, nil
}
