// @title                       Rupagen Marketplace API
// @version                     1.0
// @description                 Accounts, onboarding documents, uploads and the batik studio for the Rupagen marketplace.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the JWT token.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/rupagen/marketplace-api/internal/api"
	"github.com/rupagen/marketplace-api/internal/api/handler"
	"github.com/rupagen/marketplace-api/internal/core/ports"
	"github.com/rupagen/marketplace-api/internal/core/service"
	"github.com/rupagen/marketplace-api/internal/infrastructure/config"
	mongodb "github.com/rupagen/marketplace-api/internal/infrastructure/db/mongo"
	redisdb "github.com/rupagen/marketplace-api/internal/infrastructure/db/redis"
	"github.com/rupagen/marketplace-api/internal/infrastructure/storage"
	"github.com/rupagen/marketplace-api/internal/infrastructure/studio"
	"github.com/rupagen/marketplace-api/internal/pkg/password"
	"github.com/rupagen/marketplace-api/internal/pkg/token"
	"github.com/rupagen/marketplace-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		l := logger.Init(logger.Options{})
		l.Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "marketplace-api",
	})

	sentryEnabled := initSentry(cfg, log)
	if sentryEnabled {
		defer sentry.Flush(2 * time.Second)
	}

	// --- Data stores ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongo")
	}
	defer func() {
		_ = mongoClient.Disconnect(context.Background())
	}()

	users := mongodb.NewUserRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to create user indexes")
	}

	var (
		limiter     ports.AttemptLimiter
		redisClient *goredis.Client
		redisPinger handler.Pinger
	)
	if cfg.Redis.Addr != "" {
		redisClient, err = redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		limiter = redisdb.NewAttemptLimiter(redisClient, cfg.Auth.MaxLoginAttempts, cfg.Auth.LoginLockout)
		redisPinger = handler.RedisPinger(redisClient)
	} else {
		log.Warn().Msg("REDIS_ADDR not set, login attempts are not throttled")
	}

	// --- Security ---
	tokens, err := token.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("JWT_SECRET is required")
	}
	hasher := password.NewBcrypt(password.DefaultCost)

	// --- Object store ---
	creds := storage.Credentials{
		CloudName: cfg.Storage.CloudName,
		APIKey:    cfg.Storage.APIKey,
		APISecret: cfg.Storage.APISecret,
	}
	store, err := newObjectStore(ctx, cfg.Storage, creds)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("failed to initialise object store")
	}
	if err := store.Ready(); err != nil {
		log.Warn().Str("driver", cfg.Storage.Driver).Msg("object store not configured, uploads will fail")
	}

	// --- Studio upstreams ---
	httpClient := &http.Client{}
	chat := studio.NewChatClient(cfg.Studio.ChatBaseURL, httpClient, cfg.Studio.Timeout, logger.Component("chat"))
	images := studio.NewImageClient(cfg.Studio.ImageModelURL, cfg.Studio.HFToken, httpClient, cfg.Studio.Timeout, logger.Component("image"))

	// --- Services ---
	userService := service.NewUserService(users, logger.Component("users"))
	authService := service.NewAuthService(users, hasher, tokens, store, service.AuthOptions{
		AllowAdminSignup: cfg.Auth.AllowAdminSignup,
		UploadFolder:     cfg.Storage.DefaultFolder,
		Limiter:          limiter,
	}, logger.Component("auth"))
	uploadService := service.NewUploadService(store, storage.NewSigner(creds), userService, cfg.Storage.DefaultFolder, logger.Component("uploads"))
	studioService := service.NewStudioService(chat, images)

	e := api.NewRouter(api.Deps{
		Auth:    authService,
		Users:   userService,
		Uploads: uploadService,
		Studio:  studioService,
		Tokens:  tokens,
		Mongo:   handler.MongoPinger(db),
		Redis:   redisPinger,
		Log:     logger.Component("http"),
		Options: api.Options{
			MaxUploadBytes:        cfg.Storage.MaxBytes,
			GenerateRatePerMinute: cfg.Studio.GenerateRatePerMinute,
			Sentry:                sentryEnabled,
		},
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
	log.Info().Msg("server stopped")
}

func newObjectStore(ctx context.Context, cfg config.StorageConfig, creds storage.Credentials) (ports.ObjectStore, error) {
	if cfg.Driver == "s3" {
		return storage.NewS3Store(ctx, cfg.S3Region, cfg.S3Bucket)
	}
	return storage.NewCloudinaryStore(creds)
}

func initSentry(cfg *config.Config, log zerolog.Logger) bool {
	if cfg.SentryDSN == "" {
		return false
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.Env,
		EnableTracing:    true,
		TracesSampleRate: 0.2,
	}); err != nil {
		log.Error().Err(err).Msg("sentry init failed")
		return false
	}
	return true
}
