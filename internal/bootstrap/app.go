package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"cvio-backend/cv/render"
	"cvio-backend/internal/cvs"
	"cvio-backend/internal/export"
	"cvio-backend/internal/services/health"
	"cvio-backend/internal/shared/auth"
	"cvio-backend/internal/shared/config"
	"cvio-backend/internal/shared/server"
	"cvio-backend/internal/shared/server/middleware"
	"cvio-backend/internal/shared/storage/cache"
	"cvio-backend/internal/shared/storage/db"
	"cvio-backend/internal/shared/storage/object"
	localstore "cvio-backend/internal/shared/storage/object/local"
	s3store "cvio-backend/internal/shared/storage/object/s3"
	"cvio-backend/internal/shared/storage/search"
	"cvio-backend/internal/shared/telemetry"
	"cvio-backend/internal/skills"
)

// App holds shared dependencies and the wired router.
type App struct {
	Config        config.Config
	Router        *gin.Engine
	DB            *sql.DB
	Search        *search.Client
	Cache         *cache.Cache
	Store         object.ObjectStore
	Template      render.TemplateHandle
	Health        *health.Service
	CVService     *cvs.Service
	SkillService  *skills.Service
	ExportService *export.Service
}

// Build prepares shared dependencies and wires routes.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	app := &App{
		Config: cfg,
		Health: health.NewService(),
	}

	cvRepo, skillRepo, err := buildRepos(ctx, app)
	if err != nil {
		return nil, err
	}

	app.Cache = cache.New(cfg.Redis)
	if app.Cache != nil {
		app.Health.Add("redis", app.Cache.Ping)
	}
	skillRepo = skills.NewCachedRepo(skillRepo, app.Cache, cfg.SkillCacheTTL)

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Store = store

	verifier, err := auth.NewService(cfg.JWTSecret, cfg.Env)
	if err != nil {
		return nil, err
	}

	engine := render.NewEngine()
	app.Template = render.TemplateFromPath(cfg.TemplatePath)
	if err := engine.CheckTemplate(app.Template); err != nil {
		// Exports fail with template_unavailable until the template is fixed.
		telemetry.Warn("bootstrap.template_unusable", map[string]any{
			"template": app.Template.Name(),
			"error":    err,
		})
	}

	app.CVService = cvs.NewService(cvRepo)
	app.SkillService = skills.NewService(skillRepo)
	app.ExportService = &export.Service{
		CVs:      app.CVService,
		Skills:   app.SkillService,
		Engine:   engine,
		Template: app.Template,
		Store:    app.Store,
	}

	app.Router = server.NewRouter(cfg, server.RouterDeps{
		Verifier:    verifier,
		Health:      app.Health,
		RateLimiter: middleware.NewRateLimiter(nil),
		ExportRate: middleware.RateLimitRule{
			Rate:  cfg.ExportRateLimit,
			Burst: cfg.ExportRateBurst,
		},
		Handlers: []server.RouteRegistrar{
			export.NewHandler(app.ExportService),
			cvs.NewHandler(app.CVService, cfg.URIPrefix),
			skills.NewHandler(app.SkillService, cfg.URIPrefix),
		},
	})

	return app, nil
}

// Close releases connections held by the app.
func (a *App) Close() error {
	var errs []error
	if a.Cache != nil {
		errs = append(errs, a.Cache.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}

func buildRepos(ctx context.Context, app *App) (cvs.Repo, skills.Repo, error) {
	cfg := app.Config
	switch cfg.Store {
	case config.StorePostgres:
		sqlDB, err := buildDB(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		if sqlDB == nil {
			return cvs.NewMemoryRepo(), skills.NewMemoryRepo(), nil
		}
		app.DB = sqlDB
		app.Health.Add("database", sqlDB.PingContext)
		return &cvs.PGRepo{DB: sqlDB}, &skills.PGRepo{DB: sqlDB}, nil

	case config.StoreElasticsearch:
		client, err := search.New(cfg.Elasticsearch)
		if err != nil {
			return nil, nil, fmt.Errorf("elasticsearch client: %w", err)
		}
		cvRepo := &cvs.ESRepo{Client: client, Index: cfg.Elasticsearch.CVIndex}
		skillRepo := &skills.ESRepo{Client: client, Index: cfg.Elasticsearch.SkillIndex}
		if err := cvRepo.EnsureIndex(ctx); err != nil {
			return nil, nil, fmt.Errorf("ensure cv index: %w", err)
		}
		if err := skillRepo.EnsureIndex(ctx); err != nil {
			return nil, nil, fmt.Errorf("ensure skill index: %w", err)
		}
		app.Search = client
		app.Health.Add("elasticsearch", client.Ping)
		return cvRepo, skillRepo, nil

	default:
		telemetry.Info("bootstrap.memory_store", map[string]any{"env": cfg.Env})
		return cvs.NewMemoryRepo(), skills.NewMemoryRepo(), nil
	}
}

// buildDB connects and migrates. Dev-like environments fall back to memory
// repositories when the database is unreachable.
func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if cfg.DatabaseURL == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.database_url_empty", map[string]any{"fallback": "memory"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.ServerOptions(cfg.DB)
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.database_connect_failed", map[string]any{"fallback": "memory", "error": err})
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case config.ObjectStoreS3:
		return s3store.New(ctx, cfg.S3.Region, cfg.S3.Bucket, cfg.S3.Prefix, cfg.S3.KMSKeyID)
	default:
		return localstore.New(cfg.ExportTmpDir), nil
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
