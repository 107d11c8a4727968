package admin

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	qt "github.com/frankban/quicktest"

	"github.com/dmitrijs2005/ogpblog/internal/cache"
	"github.com/dmitrijs2005/ogpblog/internal/common"
	"github.com/dmitrijs2005/ogpblog/internal/dbx"
	"github.com/dmitrijs2005/ogpblog/internal/logging"
	"github.com/dmitrijs2005/ogpblog/internal/server/models"
	"github.com/dmitrijs2005/ogpblog/internal/server/repositories/posts"
	"github.com/dmitrijs2005/ogpblog/internal/server/services"
)

type memPosts struct {
	mu    sync.Mutex
	rows  []*models.Post
	fail  error
	calls int
}

func (m *memPosts) List(context.Context) ([]*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.Post(nil), m.rows...), nil
}

func (m *memPosts) GetByID(_ context.Context, id int64) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.rows {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, common.NotFound("posts.get")
}

func (m *memPosts) FindByTitle(_ context.Context, title string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.fail != nil {
		return nil, m.fail
	}
	for _, p := range m.rows {
		if p.Title == title {
			return p, nil
		}
	}
	return nil, common.NotFound("posts.find_by_title")
}

func (m *memPosts) Create(_ context.Context, title string, desc *string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	p := &models.Post{ID: int64(len(m.rows) + 1), Title: title, Description: desc, CreatedAt: now, UpdatedAt: now}
	m.rows = append(m.rows, p)
	return p, nil
}

type fakeManager struct {
	repo       *memPosts
	migrated   bool
	migrateErr error
	version    int64
}

func (f *fakeManager) RunMigrations(context.Context, *sql.DB) error {
	f.migrated = true
	return f.migrateErr
}

func (f *fakeManager) MigrationStatus(context.Context, *sql.DB) (int64, error) {
	return f.version, nil
}

func (f *fakeManager) Posts(dbx.DBTX) posts.Repository {
	return f.repo
}

func testEnv(c *qt.C, m *fakeManager) (Env, sqlmock.Sqlmock, *bytes.Buffer) {
	db, mock, err := sqlmock.New()
	c.Assert(err, qt.IsNil)
	c.Cleanup(func() { _ = db.Close() })

	out := &bytes.Buffer{}
	env := Env{
		Out:     out,
		Logger:  logging.NewDiscardLogger(),
		Manager: m,
		OpenDB: func(context.Context, string) (*sql.DB, func() error, error) {
			return db, func() error { return nil }, nil
		},
	}
	return env, mock, out
}

func run(env Env, args ...string) error {
	cmd := NewRootCommand(env)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(context.Background())
}

func TestOgpURLCommand(t *testing.T) {
	c := qt.New(t)
	env, _, out := testEnv(c, &fakeManager{repo: &memPosts{}})

	err := run(env, "ogp-url", "--title", "Hello", "--date", "2024-03-05", "--imgix-domain", "cdn.example.imgix.net")
	c.Assert(err, qt.IsNil)

	line := strings.TrimSpace(out.String())
	c.Assert(strings.HasPrefix(line, "https://cdn.example.imgix.net/yep/ogp.jpg?"), qt.IsTrue, qt.Commentf("got %s", line))

	u, err := url.Parse(line)
	c.Assert(err, qt.IsNil)
	c.Assert(u.Query().Get("txt"), qt.Equals, "Hello")

	blend, err := url.Parse(u.Query().Get("blend"))
	c.Assert(err, qt.IsNil)
	c.Assert(blend.Host, qt.Equals, "cdn.example.imgix.net")
	c.Assert(blend.Path, qt.Equals, "/~text")
	c.Assert(blend.Query().Get("txt"), qt.Equals, "2024.03.05")
}

func TestOgpURLCommand_RequiresTitle(t *testing.T) {
	c := qt.New(t)
	env, _, _ := testEnv(c, &fakeManager{repo: &memPosts{}})

	err := run(env, "ogp-url")
	c.Assert(err, qt.ErrorMatches, "--title is required")
}

func TestOgpURLCommand_BadDate(t *testing.T) {
	c := qt.New(t)
	env, _, _ := testEnv(c, &fakeManager{repo: &memPosts{}})

	err := run(env, "ogp-url", "--title", "x", "--date", "yesterday")
	c.Assert(err, qt.ErrorMatches, `invalid --date "yesterday".*`)
}

func TestMigrateCommand(t *testing.T) {
	c := qt.New(t)
	m := &fakeManager{repo: &memPosts{}, version: 1}
	env, _, out := testEnv(c, m)

	c.Assert(run(env, "migrate"), qt.IsNil)
	c.Assert(m.migrated, qt.IsTrue)
	c.Assert(out.String(), qt.Equals, "schema version: 1\n")
}

func TestMigrateCommand_Error(t *testing.T) {
	c := qt.New(t)
	m := &fakeManager{repo: &memPosts{}, migrateErr: errors.New("locked")}
	env, _, out := testEnv(c, m)

	c.Assert(run(env, "migrate"), qt.ErrorMatches, "locked")
	c.Assert(out.Len(), qt.Equals, 0)
}

func TestSeedCommand_SkipsExisting(t *testing.T) {
	c := qt.New(t)
	repo := &memPosts{}
	desc := "already here"
	_, _ = repo.Create(context.Background(), "Second Post", &desc)

	env, mock, out := testEnv(c, &fakeManager{repo: repo})
	for range SamplePosts {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}

	c.Assert(run(env, "seed"), qt.IsNil)
	c.Assert(out.String(), qt.Equals, "seeded 2 posts (1 already present)\n")
	c.Assert(repo.rows, qt.HasLen, 3)
	c.Assert(*repo.rows[0].Description, qt.Equals, "already here")
	c.Assert(mock.ExpectationsWereMet(), qt.IsNil)
}

func TestSeed_Idempotent(t *testing.T) {
	c := qt.New(t)
	repo := &memPosts{}
	db, mock, err := sqlmock.New()
	c.Assert(err, qt.IsNil)
	defer db.Close()

	for i := 0; i < 2*len(SamplePosts); i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}

	r := dbx.NewRetrier(logging.NewDiscardLogger())
	tr := dbx.NewTransactor(db, r, r)
	m := &fakeManager{repo: repo}

	n, err := Seed(context.Background(), tr, m, SamplePosts)
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, 3)

	n, err = Seed(context.Background(), tr, m, SamplePosts)
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, 0)
	c.Assert(repo.rows, qt.HasLen, 3)
}

func TestSeed_StopsOnRepositoryError(t *testing.T) {
	c := qt.New(t)
	repo := &memPosts{fail: common.Validation("posts.find_by_title", "nope")}
	db, mock, err := sqlmock.New()
	c.Assert(err, qt.IsNil)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	r := dbx.NewRetrier(logging.NewDiscardLogger())
	n, err := Seed(context.Background(), dbx.NewTransactor(db, r, r), &fakeManager{repo: repo}, SamplePosts)
	c.Assert(err, qt.Not(qt.IsNil))
	c.Assert(n, qt.Equals, 0)
	c.Assert(repo.calls, qt.Equals, 1)
}

func withCache(env Env, store cache.Store, opened *string) Env {
	env.OpenCache = func(_ context.Context, url string) (cache.Store, func() error, error) {
		*opened = url
		return store, func() error { return nil }, nil
	}
	return env
}

func TestSeedCommand_InvalidatesPostsCache(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	env, mock, _ := testEnv(c, &fakeManager{repo: &memPosts{}})
	for range SamplePosts {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}

	mem := cache.NewMemory()
	c.Assert(mem.Set(ctx, services.PostsCacheKey, []byte("[]"), time.Minute), qt.IsNil)

	var opened string
	env = withCache(env, mem, &opened)

	c.Assert(run(env, "seed", "--redis-url", "redis://cache:6379/0"), qt.IsNil)
	c.Assert(opened, qt.Equals, "redis://cache:6379/0")

	_, ok, err := mem.Get(ctx, services.PostsCacheKey)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsFalse)
}

func TestSeedCommand_KeepsCacheWhenNothingInserted(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	repo := &memPosts{}
	for _, s := range SamplePosts {
		d := s.Description
		_, _ = repo.Create(ctx, s.Title, &d)
	}

	env, mock, out := testEnv(c, &fakeManager{repo: repo})
	for range SamplePosts {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}

	mem := cache.NewMemory()
	c.Assert(mem.Set(ctx, services.PostsCacheKey, []byte("[]"), time.Minute), qt.IsNil)

	var opened string
	env = withCache(env, mem, &opened)

	c.Assert(run(env, "seed", "--redis-url", "redis://cache:6379/0"), qt.IsNil)
	c.Assert(out.String(), qt.Equals, "seeded 0 posts (3 already present)\n")
	c.Assert(opened, qt.Equals, "")
	c.Assert(mem.Len(), qt.Equals, 1)
}

func TestSeedCommand_NoRedisURLSkipsCache(t *testing.T) {
	c := qt.New(t)
	env, mock, _ := testEnv(c, &fakeManager{repo: &memPosts{}})
	for range SamplePosts {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}

	var opened string
	env = withCache(env, cache.NewMemory(), &opened)

	c.Assert(run(env, "seed", "--redis-url", ""), qt.IsNil)
	c.Assert(opened, qt.Equals, "")
}
