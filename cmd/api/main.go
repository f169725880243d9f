// Command api serves the storefront HTTP API.
//
// @title        Storefront API
// @version      1.0
// @description  Account sessions and product catalog for the storefront.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	mongodrv "go.mongodb.org/mongo-driver/mongo"

	"github.com/storefront/storefront-api/internal/api"
	"github.com/storefront/storefront-api/internal/api/handler"
	"github.com/storefront/storefront-api/internal/api/middleware"
	"github.com/storefront/storefront-api/internal/core/ports"
	"github.com/storefront/storefront-api/internal/core/service"
	"github.com/storefront/storefront-api/internal/infrastructure/catalog"
	"github.com/storefront/storefront-api/internal/infrastructure/crypto"
	"github.com/storefront/storefront-api/internal/infrastructure/db/memory"
	"github.com/storefront/storefront-api/internal/infrastructure/db/mongo"
	"github.com/storefront/storefront-api/internal/infrastructure/db/redis"
	"github.com/storefront/storefront-api/internal/infrastructure/queue"
	"github.com/storefront/storefront-api/internal/pkg/config"
	"github.com/storefront/storefront-api/pkg/logger"
)

const (
	serviceName     = "storefront-api"
	shutdownTimeout = 10 * time.Second
	devSecret       = "storefront-dev-secret"
)

// stores groups the persistence adapters selected by STORAGE.
type stores struct {
	users    ports.UserRepository
	sessions ports.SessionRepository
	cache    ports.CatalogCache
	checks   []handler.Pinger
	close    func(ctx context.Context)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: serviceName,
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}

	// --- KDF worker pool ---
	// Workers outlive the signal context; Stop runs after the HTTP drain.
	pool := queue.NewPool(cfg.KDFWorkers, logger.Component("kdf"))
	pool.Start(context.Background())
	hasher := crypto.NewScryptHasher(pool)

	// --- Services ---
	sessions := service.NewSessionManager(st.sessions, st.users, cfg.Session.TTL, logger.Component("session"))
	authService := service.NewAuthService(
		st.users,
		hasher,
		service.NewLocalStrategy(st.users, hasher),
		sessions,
		logger.Component("auth"),
	)
	catalogService := service.NewCatalogService(
		catalog.NewHTTPClient(cfg.Catalog.URL, cfg.Catalog.Timeout),
		st.cache,
		cfg.Catalog.CacheTTL,
		logger.Component("catalog"),
	)

	secret := cfg.Session.Secret
	if secret == "" {
		log.Warn().Msg("SESSION_SECRET not set, using development secret")
		secret = devSecret
	}

	e := api.NewRouter(api.Dependencies{
		Auth:     authService,
		Catalog:  catalogService,
		Sessions: middleware.NewSessionCookie(cfg.Session.CookieName, secret, cfg.IsProduction(), sessions.TTL()),
		Checks:   st.checks,
		Log:      logger.Component("http"),
	})

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("storage", cfg.Storage).Msg("server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			pool.Stop()
			st.close(context.Background())
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	pool.Stop()
	st.close(shutdownCtx)
	return nil
}

func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	if cfg.Storage == config.StorageMemory {
		log.Warn().Msg("using in-memory storage, data is lost on restart")
		return &stores{
			users:    memory.NewUserRepository(),
			sessions: memory.NewSessionRepository(),
			cache:    memory.NewCatalogCache(),
			close:    func(context.Context) {},
		}, nil
	}

	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  serviceName,
	})
	if err != nil {
		return nil, err
	}

	users := mongo.NewUserRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		_ = mongoClient.Disconnect(context.Background())
		return nil, err
	}

	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		_ = mongoClient.Disconnect(context.Background())
		return nil, err
	}

	log.Info().Str("mongo_db", cfg.Mongo.Database).Str("redis", cfg.Redis.Addr).Msg("connected to storage")
	return &stores{
		users:    users,
		sessions: redis.NewSessionRepository(rdb),
		cache:    redis.NewCatalogCache(rdb),
		checks:   []handler.Pinger{mongo.NewPinger(db), redis.NewPinger(rdb)},
		close:    closer(mongoClient, rdb, log),
	}, nil
}

func closer(mc *mongodrv.Client, rdb *goredis.Client, log zerolog.Logger) func(ctx context.Context) {
	return func(ctx context.Context) {
		if err := mc.Disconnect(ctx); err != nil {
			log.Error().Err(err).Msg("mongo disconnect")
		}
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("redis close")
		}
	}
}
