package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/isaacpassnav/okea-backend/internal/core/domain"
)

const (
	defaultConnectTimeout = 10 * time.Second
	appName               = "okea-auth"
)

// Config captures the settings of the credential store's MongoDB client.
type Config struct {
	URI         string
	Database    string
	MaxPoolSize uint64
	// OpTimeout bounds server selection, so an unreachable deployment fails
	// store calls instead of blocking them.
	OpTimeout time.Duration
	// ConnectTimeout bounds the initial connect and ping.
	ConnectTimeout time.Duration
}

func clientOptions(cfg Config) *options.ClientOptions {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName(appName).
		SetRetryWrites(true)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}
	if cfg.OpTimeout > 0 {
		opts.SetServerSelectionTimeout(cfg.OpTimeout)
	}
	return opts
}

// Connect builds the client, pings the primary and returns the client with
// the credential database. Failures are reported as domain.ErrStoreUnavailable.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOptions(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w: %w", domain.ErrStoreUnavailable, err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping %s: %w: %w", cfg.Database, domain.ErrStoreUnavailable, err)
	}

	return client, client.Database(cfg.Database), nil
}
