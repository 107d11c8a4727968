// Package server wires the blog server together: configuration, logging, the
// PostgreSQL pool, migrations, caches, the post service and the HTTP server.
// It also handles graceful shutdown on SIGINT/SIGTERM.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/ogpblog/internal/cache"
	"github.com/dmitrijs2005/ogpblog/internal/common"
	"github.com/dmitrijs2005/ogpblog/internal/dbx"
	"github.com/dmitrijs2005/ogpblog/internal/logging"
	"github.com/dmitrijs2005/ogpblog/internal/ogp"
	"github.com/dmitrijs2005/ogpblog/internal/server/config"
	"github.com/dmitrijs2005/ogpblog/internal/server/httpapi"
	"github.com/dmitrijs2005/ogpblog/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/ogpblog/internal/server/services"
	"github.com/dmitrijs2005/ogpblog/internal/server/shared/db"
)

const cacheJanitorInterval = 5 * time.Minute

type App struct {
	config      *config.Config
	logger      logging.Logger
	database    *db.Database
	postService *services.PostService
	memCache    *cache.Memory
	closers     []func() error
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	database, err := db.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app := &App{config: c, logger: logger, database: database}
	app.closers = append(app.closers, database.Close)

	rm := repomanager.NewPostgresRepositoryManager()
	if c.MigrateOnStart {
		if err := rm.RunMigrations(ctx, database.DB()); err != nil {
			app.close(ctx)
			return nil, fmt.Errorf("migrations error: %w", err)
		}
		logger.Info(ctx, "Migrations applied")
	}

	store, err := app.postsCache(ctx)
	if err != nil {
		app.close(ctx)
		return nil, err
	}

	// serializable so a concurrently committed title fails with 40001 and the
	// retried check-then-insert sees it
	transactor := dbx.NewTransactor(
		database.DB(),
		dbx.NewRetrier(logger),
		dbx.NewRetrier(logger, dbx.WithMaxDelay(dbx.DefaultTxMaxDelay)),
	).WithTxOptions(dbx.SerializableTx)

	// one builder, one OGP cache, for the life of the process
	builder := ogp.NewBuilder(
		ogp.WithDomain(c.ImgixDomain),
		ogp.WithCache(cache.NewFIFO[string, string](ogp.DefaultCacheSize)),
	)

	app.postService = services.NewPostService(transactor, rm, builder, store, c.PostsCacheTTL, logger)
	return app, nil
}

// postsCache picks Redis when a URL is configured, the in-process store
// otherwise.
func (app *App) postsCache(ctx context.Context) (cache.Store, error) {
	if app.config.RedisURL == "" {
		app.memCache = cache.NewMemory()
		return app.memCache, nil
	}

	client, err := cache.NewRedisClient(ctx, app.config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis init error: %w", err)
	}
	r := cache.NewRedis(client, common.CacheKeyPrefix)
	app.closers = append(app.closers, r.Close)
	app.logger.Info(ctx, "Using Redis posts cache")
	return r, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	h := httpapi.NewHandler(app.postService, app.logger)
	router := httpapi.NewRouter(h, app.logger, app.config.CORSAllowedOrigins)
	s := httpapi.NewHTTPServer(app.config.HTTPAddr, app.logger, router, app.config.ShutdownTimeout)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) close(ctx context.Context) {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			app.logger.Warn(ctx, "close failed", "error", err)
		}
	}
	app.closers = nil
}

// Run serves until a signal arrives or the HTTP server fails, then releases
// the pool and the cache client.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.memCache != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.memCache.RunJanitor(ctx, cacheJanitorInterval)
		}()
	}

	wg.Wait()

	app.close(context.Background())
	app.logger.Info(context.Background(), "App stopped")
}
