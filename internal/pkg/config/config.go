package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type Config struct {
	Port       string `env:"PORT,      default=8080"`
	Env        string `env:"ENV,       default=development"`
	JWTSecret  string `env:"JWT_SECRET"`
	LogLevel   string `env:"LOG_LEVEL, default=info"`
	BcryptCost int    `env:"BCRYPT_COST, default=10"`

	Store    StoreConfig
	Postgres PostgresConfig
	Mongo    MongoConfig
}

type StoreConfig struct {
	Driver  string        `env:"STORE_DRIVER,  default=postgres"`
	Timeout time.Duration `env:"STORE_TIMEOUT, default=5s"`
}

type PostgresConfig struct {
	Host            string        `env:"DB_HOST,              default=127.0.0.1"`
	Port            int           `env:"DB_PORT,              default=5432"`
	Name            string        `env:"DB_NAME,              default=okea"`
	User            string        `env:"DB_USER,              default=postgres"`
	Password        string        `env:"DB_PASS"`
	SSLMode         string        `env:"DB_SSLMODE,           default=disable"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS,    default=20"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS,    default=5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME, default=30m"`
	AutoMigrate     bool          `env:"DB_AUTO_MIGRATE,      default=true"`
}

type MongoConfig struct {
	URI         string `env:"MONGO_URI,           default=mongodb://localhost:27017"`
	Database    string `env:"MONGO_DB,            default=okea"`
	MaxPoolSize uint64 `env:"MONGO_MAX_POOL_SIZE, default=20"`
}

// IsProduction reports whether the service runs with ENV=production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET is required")
	}
	switch c.Store.Driver {
	case DriverPostgres, DriverMongo:
	default:
		return fmt.Errorf("config: unsupported STORE_DRIVER %q", c.Store.Driver)
	}
	return nil
}

// Load reads a .env file when present, then processes the environment with
// go-envconfig. Variables already set in the environment win over the file.
func Load(ctx context.Context, envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load env file: %w", err)
	}
	return process(ctx, envconfig.OsLookuper())
}

// LoadPostgres reads only the Postgres settings. Tools that never issue
// tokens, such as the migration CLI, use it to skip JWT_SECRET validation.
func LoadPostgres(ctx context.Context, envFiles ...string) (*PostgresConfig, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load env file: %w", err)
	}
	return processPostgres(ctx, envconfig.OsLookuper())
}

func processPostgres(ctx context.Context, lookuper envconfig.Lookuper) (*PostgresConfig, error) {
	var cfg PostgresConfig
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: failed to load postgres configuration: %w", err)
	}
	return &cfg, nil
}

func process(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
