// Package server initializes and runs the todolist server. It opens the
// database and applies migrations, builds the cache provider and the cached
// repositories, and serves the REST API until the process is signalled.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/todolist/internal/dbx"
	"github.com/dmitrijs2005/todolist/internal/logging"
	"github.com/dmitrijs2005/todolist/internal/server/auth"
	"github.com/dmitrijs2005/todolist/internal/server/cache"
	"github.com/dmitrijs2005/todolist/internal/server/cachedrepo"
	"github.com/dmitrijs2005/todolist/internal/server/config"
	"github.com/dmitrijs2005/todolist/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/todolist/internal/server/rest"
	"github.com/dmitrijs2005/todolist/internal/server/services"
	"github.com/redis/go-redis/v9"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	auth    *services.AuthService
	server  *rest.Server
	closers []func() error
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(c.LogFormat, c.LogLevel, os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	app := &App{config: c, logger: logger}

	if err := app.init(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

func (app *App) init(ctx context.Context) error {
	c := app.config

	tokens, err := auth.NewTokenService(c.JWT())
	if err != nil {
		return err
	}

	db, dialect, err := dbx.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	app.db = db
	app.closers = append(app.closers, db.Close)

	rm := repomanager.NewSQLRepositoryManager(dialect)
	if err := rm.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migrations error: %w", err)
	}

	app.auth = services.NewAuthService(db, rm, tokens, app.logger)
	if n, err := app.auth.PurgeExpired(ctx); err != nil {
		app.logger.Warn(ctx, "purging expired refresh tokens failed", "error", err)
	} else if n > 0 {
		app.logger.Info(ctx, "purged expired refresh tokens", "count", n)
	}

	provider, err := app.newCacheProvider(ctx)
	if err != nil {
		return fmt.Errorf("cache init error: %w", err)
	}

	opts := cachedrepo.Options{TTL: c.CacheTTL, Logger: app.logger}
	taskRepo := cachedrepo.NewTasks(rm.Tasks(db), provider, opts)
	listRepo := cachedrepo.NewLists(rm.Lists(db), taskRepo, provider, opts)
	userRepo := cachedrepo.NewUsers(rm.Users(db), listRepo, provider, opts)

	app.server = rest.NewServer(c.EndpointAddrHTTP, c.ShutdownTimeout, app.logger, rest.Deps{
		Auth:   app.auth,
		Tokens: tokens,
		Users:  userRepo,
		Lists:  listRepo,
		Tasks:  taskRepo,
	})
	return nil
}

// newCacheProvider builds the configured provider. An unreachable redis is
// logged but tolerated: requests fall through to the database until it
// recovers.
func (app *App) newCacheProvider(ctx context.Context) (cache.Provider, error) {
	c := app.config

	switch c.CacheProvider {
	case config.CacheNone:
		return cache.NewNone(), nil

	case config.CacheMemory:
		return cache.NewMemory(cache.MemoryConfig{Capacity: c.CacheCapacity, TTL: c.CacheTTL})

	case config.CacheRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		})
		app.closers = append(app.closers, client.Close)

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			app.logger.Warn(ctx, "redis is unreachable, continuing without cache hits", "addr", c.RedisAddr, "error", err)
		}

		p := cache.NewRedis(client, cache.RedisOptions{Sliding: c.CacheSliding, SlidingTTL: c.CacheTTL})
		return cache.WithBreaker(p, cache.BreakerOptions{Name: "redis"}, app.logger), nil
	}

	return nil, fmt.Errorf("unknown cache provider %q", c.CacheProvider)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves the REST API until ctx is cancelled or a termination signal
// arrives, then releases every resource.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	err := app.server.Run(ctx)
	if closeErr := app.Close(); closeErr != nil {
		app.logger.Error(ctx, "closing resources", "error", closeErr)
	}

	app.logger.Info(ctx, "App stopped")
	return err
}

// Close releases resources in reverse order of acquisition.
func (app *App) Close() error {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	app.closers = nil
	return errors.Join(errs...)
}
