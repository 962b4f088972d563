// Package bootstrap builds the dependency graph shared by every entrypoint:
// the HTTP API, the SQS worker and both Lambda handlers.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"mission-backend/internal/account"
	"mission-backend/internal/advisory"
	"mission-backend/internal/analyses"
	googleauth "mission-backend/internal/auth"
	"mission-backend/internal/industry"
	"mission-backend/internal/llm"
	"mission-backend/internal/llm/anthropic"
	"mission-backend/internal/llm/openai"
	"mission-backend/internal/queue"
	"mission-backend/internal/session"
	"mission-backend/internal/shared/auth"
	"mission-backend/internal/shared/config"
	"mission-backend/internal/shared/server"
	"mission-backend/internal/shared/storage/db"
	"mission-backend/internal/shared/storage/object"
	localstore "mission-backend/internal/shared/storage/object/local"
	s3store "mission-backend/internal/shared/storage/object/s3"
	"mission-backend/internal/shared/telemetry"
	"mission-backend/internal/shared/tracing"
	"mission-backend/internal/uploads"
	"mission-backend/internal/usage"
	"mission-backend/internal/users"
)

const (
	serviceName      = "mission-backend"
	redisPingTimeout = 3 * time.Second
)

// App holds shared dependencies.
type App struct {
	Config  config.Config
	Router  *gin.Engine
	DB      *sql.DB
	Redis   *redis.Client
	Store   object.ObjectStore
	Queue   queue.Client
	Tracing *tracing.Provider
	Catalog *industry.Catalog

	AnalysesService *analyses.Service
	UsageService    *usage.Service
	UsersService    *users.Service
	AccountService  *account.Service
	GoogleAuth      *googleauth.GoogleService
}

// Build wires configuration into services and the router. Dev-like envs fall
// back to in-memory stores when Postgres or Redis are unreachable.
func Build(cfg config.Config) (*App, error) {
	telemetry.Init(cfg.Env, cfg.LogLevel)
	if err := auth.Configure(cfg.JWTSecret, cfg.Env); err != nil {
		return nil, err
	}
	ctx := context.Background()

	app := &App{
		Config:  cfg,
		Tracing: tracing.Init(serviceName, cfg.TracingEnabled),
		Catalog: industry.Default(),
	}

	var err error
	if app.DB, err = buildDB(ctx, cfg); err != nil {
		return nil, err
	}
	if app.Redis, err = buildRedis(ctx, cfg); err != nil {
		return nil, err
	}
	if app.Store, err = buildStore(ctx, cfg); err != nil {
		return nil, err
	}
	if app.Queue, err = buildQueue(ctx, cfg); err != nil {
		return nil, err
	}
	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:     cfg,
		DB:         app.DB,
		Analyses:   analyses.NewHandler(app.AnalysesService),
		Industry:   industry.NewHandler(app.Catalog),
		Uploads:    uploads.NewHandler(app.Store),
		Usage:      usage.NewHandler(app.UsageService),
		Account:    account.NewHandler(app.AccountService),
		Users:      users.NewHandler(app.UsersService),
		GoogleAuth: app.GoogleAuth,
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":          cfg.Env,
		"postgres":     app.DB != nil,
		"redis":        app.Redis != nil,
		"queue":        app.Queue != nil,
		"object_store": cfg.ObjectStoreType,
		"llm_provider": app.AnalysesService.Provider,
	})
	return app, nil
}

// Close releases pooled connections and flushes spans and logs.
func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.DB != nil && !db.IsLambdaRuntime() {
		_ = a.DB.Close()
	}
	a.Tracing.Shutdown()
	telemetry.Sync()
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if cfg.DatabaseURL == "" {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_repos", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var (
		pool *sql.DB
		err  error
	)
	if db.IsLambdaRuntime() {
		pool, err = db.GetSingleton(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultLambdaOptions()))
	} else {
		pool, err = db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	}
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_repos", map[string]any{"reason": "connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	if cfg.IsDevLike() {
		if err := db.RunMigrations(ctx, pool); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return pool, nil
}

func buildRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_cache", map[string]any{"reason": "redis unreachable", "error": err.Error()})
			return nil, nil
		}
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		store, err := s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if cfg.QueueURL == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.QueueURL, cfg.AWSRegion)
}

// BuildAdvisory returns the generator chain and the provider/model recorded
// on each analysis. Missing credentials degrade to the null generator in dev.
func BuildAdvisory(cfg config.Config, rdb *redis.Client) (advisory.Generator, string, string, error) {
	var (
		client llm.Client
		model  = cfg.LLMModel
		err    error
	)
	switch cfg.LLMProvider {
	case "openai":
		client, err = openai.NewClient(cfg.OpenAIAPIKey, model)
	case "anthropic":
		if model == "" || strings.HasPrefix(model, "gpt-") {
			model = anthropic.DefaultModel
		}
		client, err = anthropic.NewClient(cfg.AnthropicAPIKey, model)
	default:
		return advisory.NullGenerator{}, "none", "", nil
	}
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.advisory_disabled", map[string]any{"provider": cfg.LLMProvider, "error": err.Error()})
			return advisory.NullGenerator{}, "none", "", nil
		}
		return nil, "", "", err
	}

	var gen advisory.Generator = &advisory.LLMGenerator{
		Client:   advisory.WithRetry(client),
		Provider: cfg.LLMProvider,
		Model:    model,
		Timeout:  cfg.AdvisoryTimeout,
	}
	if rdb != nil {
		gen = &advisory.CachingGenerator{
			Next:     gen,
			Cache:    advisory.RedisCache{Client: rdb},
			TTL:      cfg.AdvisoryCacheTTL,
			Provider: cfg.LLMProvider,
			Model:    model,
		}
	}
	return gen, cfg.LLMProvider, model, nil
}

func buildServices(app *App) error {
	cfg := app.Config

	var (
		analysisRepo analyses.Repo
		userRepo     users.Repo
		usageSvc     *usage.Service
	)
	if app.DB != nil {
		analysisRepo = &analyses.PGRepo{DB: app.DB}
		userRepo = &users.PGRepo{DB: app.DB}
		usageSvc = usage.NewPostgresService(usage.NewPGStore(app.DB, cfg.AdvisoryLimit))
	} else {
		analysisRepo = analyses.NewMemoryRepo()
		userRepo = users.NewMemoryRepo()
		usageSvc = usage.NewService(cfg.AdvisoryLimit)
	}

	var (
		history session.Store         = session.NewMemoryStore()
		states  googleauth.StateStore = googleauth.NewMemoryStateStore()
	)
	if app.Redis != nil {
		history = session.RedisStore{Client: app.Redis, TTL: cfg.HistoryTTL}
		states = googleauth.RedisStateStore{Client: app.Redis}
	}

	gen, provider, model, err := BuildAdvisory(cfg, app.Redis)
	if err != nil {
		return err
	}

	app.AnalysesService = &analyses.Service{
		Repo:            analysisRepo,
		Usage:           usageSvc,
		Advisory:        gen,
		History:         history,
		Queue:           app.Queue,
		Store:           app.Store,
		Catalog:         app.Catalog,
		Provider:        provider,
		Model:           model,
		AnalysisVersion: cfg.AnalysisVersion,
		AdvisoryTimeout: cfg.AdvisoryTimeout,
	}
	app.UsageService = usageSvc
	app.UsersService = users.NewService(userRepo)
	app.AccountService = account.NewService(app.AnalysesService, usageSvc)
	app.GoogleAuth = googleauth.NewGoogleService(
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.GoogleRedirectURL,
		cfg.UIRedirectURL,
		states,
		app.UsersService,
	)
	return nil
}
