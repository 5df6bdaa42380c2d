// Command server runs the journal API.
//
//	@title						Journal API
//	@version					1.0
//	@description				Multi-tenant journal entries behind bearer-token authentication.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/aijournal/journal-api/internal/api"
	"github.com/aijournal/journal-api/internal/core/ports"
	"github.com/aijournal/journal-api/internal/core/service"
	"github.com/aijournal/journal-api/internal/infrastructure/config"
	"github.com/aijournal/journal-api/internal/infrastructure/db/document"
	"github.com/aijournal/journal-api/internal/infrastructure/db/file"
	"github.com/aijournal/journal-api/internal/infrastructure/db/mongo"
	"github.com/aijournal/journal-api/internal/infrastructure/db/redis"
	"github.com/aijournal/journal-api/internal/infrastructure/http/handlers"
	"github.com/aijournal/journal-api/internal/infrastructure/lock"
	"github.com/aijournal/journal-api/pkg/hash"
	"github.com/aijournal/journal-api/pkg/logger"
	"github.com/aijournal/journal-api/pkg/token"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log := logger.New(logger.Options{Service: "journal-api"})
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "journal-api",
	})

	store, err := openStore(ctx, cfg, log.With().Str("component", "store").Logger())
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			log.Error().Err(err).Msg("close document store")
		}
	}()

	probes := map[string]handlers.Probe{"store": store.Ping}

	var idem ports.IdempotencyStore
	if cfg.Redis.Addr != "" {
		rdb, err := redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()

		idem = redis.NewIdempotencyStore(rdb, cfg.Redis.IdempotencyTTL)
		probes["redis"] = func(ctx context.Context) error { return pingRedis(ctx, rdb) }
		log.Info().Str("addr", cfg.Redis.Addr).Msg("idempotency cache enabled")
	}

	serializer := lock.NewSerializer(cfg.Store.LockTimeout)

	authService := service.NewAuthService(
		document.NewUserCollection(store),
		serializer,
		hash.NewBcrypt(cfg.Auth.BcryptCost),
		token.NewSigner([]byte(cfg.JWTSecret)),
		service.AuthOptions{
			TokenTTL:          cfg.Auth.TokenTTL,
			PasswordMinLength: cfg.Auth.PasswordMinLength,
		},
		log.With().Str("component", "auth").Logger(),
	)
	entryService := service.NewEntryService(
		document.NewEntryCollection(store),
		serializer,
		idem,
		log.With().Str("component", "entries").Logger(),
	)

	e := api.NewRouter(api.Dependencies{
		AuthService:   authService,
		EntryService:  entryService,
		Logger:        log,
		CORSOrigins:   cfg.HTTP.CORSAllowedOrigins,
		AuthRateLimit: cfg.HTTP.AuthRateLimit,
		Probes:        probes,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.Store.Driver).Msg("server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.DocumentStore, error) {
	switch cfg.Store.Driver {
	case config.DriverMongo:
		return mongo.Open(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	default:
		store, err := file.Open(cfg.Store.DataDir)
		if err != nil {
			return nil, err
		}
		return store.WithLogger(log), nil
	}
}

func pingRedis(ctx context.Context, rdb *goredis.Client) error {
	return rdb.Ping(ctx).Err()
}
