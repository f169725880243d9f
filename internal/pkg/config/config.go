package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const (
	StorageMongo  = "mongo"
	StorageMemory = "memory"

	envProduction = "production"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`
	Storage  string `env:"STORAGE,   default=memory"`

	// KDFWorkers bounds concurrent password derivations; 0 means one per CPU.
	KDFWorkers int `env:"KDF_WORKERS, default=0"`

	Session SessionConfig
	Mongo   MongoConfig
	Redis   RedisConfig
	Catalog CatalogConfig
}

type SessionConfig struct {
	Secret     string        `env:"SESSION_SECRET"`
	CookieName string        `env:"SESSION_COOKIE_NAME, default=storefront.sid"`
	TTL        time.Duration `env:"SESSION_TTL,         default=24h"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=storefront"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type CatalogConfig struct {
	URL      string        `env:"CATALOG_URL,       default=https://fakestoreapi.com/products"`
	Timeout  time.Duration `env:"CATALOG_TIMEOUT,   default=10s"`
	CacheTTL time.Duration `env:"CATALOG_CACHE_TTL, default=5m"`
}

// IsProduction reports whether ENV is "production".
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, envProduction)
}

// Validate rejects combinations the server cannot run with.
func (c *Config) Validate() error {
	switch c.Storage {
	case StorageMongo, StorageMemory:
	default:
		return fmt.Errorf("config: unknown STORAGE %q (want %q or %q)", c.Storage, StorageMongo, StorageMemory)
	}
	if c.IsProduction() && c.Session.Secret == "" {
		return errors.New("config: SESSION_SECRET is required in production")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("config: SESSION_TTL must be positive, got %s", c.Session.TTL)
	}
	if c.KDFWorkers < 0 {
		return fmt.Errorf("config: KDF_WORKERS must not be negative, got %d", c.KDFWorkers)
	}
	return nil
}

// Load reads a .env file when one exists, then the environment.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
