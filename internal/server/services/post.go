// Package services contains server-side business logic. PostService
// validates and normalizes input, runs store calls through the retrying
// executor, keeps the post list cache fresh and derives OGP metadata.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/ogpblog/internal/cache"
	"github.com/dmitrijs2005/ogpblog/internal/common"
	"github.com/dmitrijs2005/ogpblog/internal/dbx"
	"github.com/dmitrijs2005/ogpblog/internal/logging"
	"github.com/dmitrijs2005/ogpblog/internal/ogp"
	"github.com/dmitrijs2005/ogpblog/internal/server/models"
	"github.com/dmitrijs2005/ogpblog/internal/server/repositories/repomanager"
)

// PostsCacheKey holds the cached post list. Writers outside the service
// must delete it after inserting posts.
const PostsCacheKey = "posts:all"

// NoDescription is shown wherever a post without a description needs text.
const NoDescription = "No description available"

var idPattern = regexp.MustCompile(`^\d+$`)

// ParsePostID accepts only a plain decimal positive integer.
func ParsePostID(raw string) (int64, error) {
	if !idPattern.MatchString(raw) {
		return 0, invalidID("Invalid ID format")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, invalidID("Invalid ID")
	}
	return id, nil
}

func invalidID(msg string) error {
	e := common.Validation("posts.parse_id", msg)
	e.Err = common.ErrorInvalidID
	return e
}

// OGP is the preview metadata served for a post.
type OGP struct {
	URL         string  `json:"ogpUrl"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

type PostService struct {
	tx          *dbx.Transactor
	repomanager repomanager.RepositoryManager
	ogp         *ogp.Builder
	cache       cache.Store
	cacheTTL    time.Duration
	logger      logging.Logger
	validator   *inputValidator
}

func NewPostService(
	t *dbx.Transactor,
	m repomanager.RepositoryManager,
	b *ogp.Builder,
	store cache.Store,
	cacheTTL time.Duration,
	l logging.Logger,
) *PostService {
	return &PostService{
		tx:          t,
		repomanager: m,
		ogp:         b,
		cache:       store,
		cacheTTL:    cacheTTL,
		logger:      l.With("module", "posts"),
		validator:   newInputValidator(),
	}
}

// List returns all posts, from the cache when it holds a fresh copy.
func (s *PostService) List(ctx context.Context) ([]*models.Post, error) {
	if cached, ok := s.cachedList(ctx); ok {
		return cached, nil
	}

	list, err := dbx.Do(ctx, s.tx, func(ctx context.Context, db dbx.DBTX) ([]*models.Post, error) {
		return s.repomanager.Posts(db).List(ctx)
	})
	if err != nil {
		return nil, err
	}

	s.storeList(ctx, list)
	return list, nil
}

func (s *PostService) cachedList(ctx context.Context) ([]*models.Post, bool) {
	if s.cache == nil {
		return nil, false
	}
	b, ok, err := s.cache.Get(ctx, PostsCacheKey)
	if err != nil {
		s.logger.Warn(ctx, "posts cache read failed", "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var list []*models.Post
	if err := json.Unmarshal(b, &list); err != nil {
		s.logger.Warn(ctx, "posts cache entry is corrupt", "error", err)
		return nil, false
	}
	return list, true
}

func (s *PostService) storeList(ctx context.Context, list []*models.Post) {
	if s.cache == nil {
		return
	}
	b, err := json.Marshal(list)
	if err != nil {
		s.logger.Warn(ctx, "posts cache encode failed", "error", err)
		return
	}
	if err := s.cache.Set(ctx, PostsCacheKey, b, s.cacheTTL); err != nil {
		s.logger.Warn(ctx, "posts cache write failed", "error", err)
	}
}

func (s *PostService) invalidateList(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, PostsCacheKey); err != nil {
		s.logger.Warn(ctx, "posts cache invalidation failed", "error", err)
	}
}

// Get returns the post with the given id or an error matching
// common.ErrorNotFound.
func (s *PostService) Get(ctx context.Context, id int64) (*models.Post, error) {
	return dbx.Do(ctx, s.tx, func(ctx context.Context, db dbx.DBTX) (*models.Post, error) {
		return s.repomanager.Posts(db).GetByID(ctx, id)
	})
}

// Create validates and normalizes the input, then inserts the post unless
// one with the same title already exists. The check and the insert share one
// transaction, and the whole transaction is retried on transient failures.
func (s *PostService) Create(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	in = in.Normalize()
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	post, err := dbx.InTx(ctx, s.tx, func(ctx context.Context, tx dbx.DBTX) (*models.Post, error) {
		repo := s.repomanager.Posts(tx)

		_, err := repo.FindByTitle(ctx, in.Title)
		switch {
		case err == nil:
			return nil, common.Conflict("posts.create", "A post with this title already exists", common.ErrorDuplicateTitle, false)
		case !errors.Is(err, common.ErrorNotFound):
			return nil, err
		}

		return repo.Create(ctx, in.Title, in.Description)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateList(ctx)
	s.logger.Info(ctx, "post created", "id", post.ID)
	return post, nil
}

// URL returns the OGP image URL for a post.
func (s *PostService) URL(p *models.Post) string {
	return s.ogp.URL(p.Title, p.CreatedAt)
}

// Ogp returns OGP metadata for the post with the given id.
func (s *PostService) Ogp(ctx context.Context, id int64) (*OGP, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &OGP{
		URL:         s.URL(p),
		Title:       p.Title,
		Description: p.Description,
	}, nil
}

// trimOrNil trims s and maps an empty result to nil.
func trimOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
