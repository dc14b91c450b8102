// @title         okea auth API
// @version       1.0
// @description   Account registration, login and bearer token renewal.
// @BasePath      /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/isaacpassnav/okea-backend/internal/api"
	"github.com/isaacpassnav/okea-backend/internal/core/ports"
	"github.com/isaacpassnav/okea-backend/internal/core/service"
	"github.com/isaacpassnav/okea-backend/internal/infrastructure/crypto"
	mongostore "github.com/isaacpassnav/okea-backend/internal/infrastructure/db/mongo"
	"github.com/isaacpassnav/okea-backend/internal/infrastructure/db/postgres"
	"github.com/isaacpassnav/okea-backend/internal/infrastructure/token"
	"github.com/isaacpassnav/okea-backend/internal/pkg/config"
	"github.com/isaacpassnav/okea-backend/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "okea-auth",
	})

	if err := run(ctx, cfg); err != nil {
		log := logger.Get()
		log.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("credential store: %w", err)
	}
	defer closeStore()

	codec, err := token.NewJWTCodec(cfg.JWTSecret)
	if err != nil {
		return err
	}
	hasher := crypto.NewBcryptHasher(cfg.BcryptCost)
	if hasher.Cost() != cfg.BcryptCost {
		log.Warn().Int("requested", cfg.BcryptCost).Int("effective", hasher.Cost()).Msg("bcrypt cost clamped")
	}
	authService := service.NewAuthService(store, hasher, codec, log)

	e := api.NewRouter(api.Dependencies{
		AuthService: authService,
		Store:       store,
		Log:         log,
		EnableDocs:  !cfg.IsProduction(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Str("store", cfg.Store.Driver).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

// openStore connects the configured credential store and returns it together
// with its release function.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.CredentialStore, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{
			URI:         cfg.Mongo.URI,
			Database:    cfg.Mongo.Database,
			MaxPoolSize: cfg.Mongo.MaxPoolSize,
			OpTimeout:   cfg.Store.Timeout,
		})
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := client.Disconnect(disconnectCtx); err != nil {
				log.Warn().Err(err).Msg("mongo disconnect")
			}
		}

		store := mongostore.NewCredentialStore(db, cfg.Store.Timeout)
		if err := store.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("mongo credential store ready")
		return store, closeFn, nil

	default:
		db, err := postgres.Connect(ctx, postgres.Config{
			Host:            cfg.Postgres.Host,
			Port:            cfg.Postgres.Port,
			Name:            cfg.Postgres.Name,
			User:            cfg.Postgres.User,
			Password:        cfg.Postgres.Password,
			SSLMode:         cfg.Postgres.SSLMode,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		})
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := db.Close(); err != nil {
				log.Warn().Err(err).Msg("postgres close")
			}
		}

		if cfg.Postgres.AutoMigrate {
			migrator, err := postgres.NewMigrator(db, log)
			if err == nil {
				err = migrator.Up(ctx)
			}
			if err != nil {
				closeFn()
				return nil, nil, fmt.Errorf("migrate: %w", err)
			}
		}
		log.Info().Str("database", cfg.Postgres.Name).Msg("postgres credential store ready")
		return postgres.NewCredentialStore(db, cfg.Store.Timeout), closeFn, nil
	}
}
