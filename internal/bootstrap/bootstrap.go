package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	appControllers "github.com/yigit/exchangeintake/internal/app/controllers"
	appMigrations "github.com/yigit/exchangeintake/internal/app/migrations"
	appRepos "github.com/yigit/exchangeintake/internal/app/repositories"
	appRoutes "github.com/yigit/exchangeintake/internal/app/routes"
	appServices "github.com/yigit/exchangeintake/internal/app/services"
	"github.com/yigit/exchangeintake/internal/config"
	"github.com/yigit/exchangeintake/internal/db"
	appMiddleware "github.com/yigit/exchangeintake/internal/middleware"
	pkgAuth "github.com/yigit/exchangeintake/internal/pkg/auth"
	"github.com/yigit/exchangeintake/internal/pkg/catalog"
	"github.com/yigit/exchangeintake/internal/pkg/email"
	"github.com/yigit/exchangeintake/internal/pkg/helpers"
	"github.com/yigit/exchangeintake/internal/pkg/logger"
	"github.com/yigit/exchangeintake/internal/pkg/pdfexport"
	"github.com/yigit/exchangeintake/internal/pkg/tracing"
	"github.com/yigit/exchangeintake/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	EligibilityService  appServices.EligibilityService
	ApplicationService  appServices.ApplicationService
	NotificationService appServices.NotificationService
	AuthService         appServices.AuthService

	EligibilityController *appControllers.EligibilityController
	ApplicationController *appControllers.ApplicationController
	AdminController       *appControllers.AdminController
	AuthController        *appControllers.AuthController

	AuthMiddleware *appMiddleware.AuthMiddleware
	RateLimiters   appRoutes.RateLimiters

	Repos           *appRepos.Repositories
	JWTService      *pkgAuth.JWTService
	CatalogProvider *catalog.CachedProvider
	SnapshotStore   *catalog.RedisStore
	Logger          zerolog.Logger
}

// Close releases connections held by the dependencies
func (d *Dependencies) Close() error {
	if d.SnapshotStore != nil {
		return d.SnapshotStore.Close()
	}
	return nil
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := config.GetEnv("CONFIG_PATH", filepath.Join("configs", "config.yaml"))
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	logger.Configure(logger.Config{
		Level:   logLevel,
		Pretty:  logger.IsPretty(cfg.Logging.Format),
		Service: cfg.Tracing.ServiceName,
	})

	lgr := logger.Get()
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupTracing installs the tracer provider. The returned function flushes it.
func SetupTracing(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (tracing.ShutdownFunc, error) {
	return tracing.Init(ctx, tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Environment: cfg.Server.Mode,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		SampleRatio: cfg.Tracing.SampleRatio,
	}, lgr)
}

// SetupDatabase establishes the database connection and runs migrations.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbPool := database.Pool
	lgr.Info().Msg("Database connection successfully established.")

	migrationsDir := cfg.Server.MigrationsDir
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		dbPool.Close()
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	lgr.Info().Str("path", migrationsDir).Msg("Running database migrations...")
	if err := appMigrations.NewMigrator(dbPool).MigrateFromDirectory(ctx, migrationsDir); err != nil {
		dbPool.Close()
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	return dbPool, nil
}

// SetupCatalog builds the catalog provider for the configured source, backed by
// redis when enabled. A redis outage only disables snapshot sharing.
func SetupCatalog(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*catalog.CachedProvider, *catalog.RedisStore) {
	catalogLog := lgr.With().Str("component", "catalog").Logger()

	var source catalog.Source
	switch cfg.Catalog.Source {
	case config.CatalogSourceSpreadsheet:
		source = catalog.NewSpreadsheetSource(catalog.SpreadsheetConfig{
			URLs:   cfg.Catalog.URLs,
			Format: cfg.Catalog.Format,
		}, nil, catalogLog)
	default:
		source = catalog.NewStaticSource(nil)
	}

	opts := catalog.Options{
		TTL:    helpers.ParseDuration(cfg.Catalog.TTL, catalog.DefaultTTL),
		Logger: catalogLog,
	}

	var store *catalog.RedisStore
	if cfg.Redis.Enabled {
		var err error
		store, err = catalog.NewRedisStore(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			catalogLog.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unavailable, catalog snapshots stay in-process")
			store = nil
		} else {
			opts.Store = store
			catalogLog.Info().Str("addr", cfg.Redis.Addr).Msg("Catalog snapshots shared through redis")
		}
	}

	catalogLog.Info().Str("source", source.Name()).Dur("ttl", opts.TTL).Msg("Catalog provider configured")
	return catalog.NewCachedProvider(source, opts), store
}

// adminCredentials resolves the admin login. A plain password is hashed at
// startup and only accepted outside production.
func adminCredentials(cfg *config.Config, lgr zerolog.Logger) (appServices.AdminCredentials, error) {
	creds := appServices.AdminCredentials{Email: cfg.Admin.Email, PasswordHash: cfg.Admin.PasswordHash}
	if creds.PasswordHash != "" {
		return creds, nil
	}
	if cfg.IsProduction() {
		return creds, fmt.Errorf("admin password hash is required in production")
	}

	hash, err := pkgAuth.HashPassword(cfg.Admin.Password)
	if err != nil {
		return creds, fmt.Errorf("failed to hash admin password: %w", err)
	}
	lgr.Warn().Msg("Using plain admin password from configuration; set ADMIN_PASSWORD_HASH outside development")
	creds.PasswordHash = hash
	return creds, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	if err := appMiddleware.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	deps.Repos = appRepos.NewRepositories(dbPool)
	deps.CatalogProvider, deps.SnapshotStore = SetupCatalog(ctx, cfg, lgr)

	seed.WarmCatalog(ctx, deps.CatalogProvider, lgr)

	creds, err := adminCredentials(cfg, lgr)
	if err != nil {
		_ = deps.Close()
		return nil, err
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:   cfg.JWT.Secret,
		SessionExp:  helpers.ParseDuration(cfg.JWT.SessionExpiration, 24*time.Hour),
		TokenIssuer: cfg.JWT.Issuer,
	})

	renderer := pdfexport.NewRenderer(pdfexport.Options{OfficeEmail: cfg.Mail.ReplyTo})
	mailer := email.NewClient(email.Config{
		APIKey:  cfg.Mail.APIKey,
		BaseURL: cfg.Mail.BaseURL,
		From:    cfg.Mail.From,
		ReplyTo: cfg.Mail.ReplyTo,
	}, nil, lgr.With().Str("component", "email").Logger())

	deps.EligibilityService = appServices.NewEligibilityService(deps.CatalogProvider, lgr)
	deps.NotificationService = appServices.NewNotificationService(mailer, renderer, appServices.NotificationConfig{
		Office:       pdfexport.DefaultOffice,
		OfficeEmail:  cfg.Mail.ReplyTo,
		AdminInbox:   cfg.Mail.AdminInbox,
		PortalURL:    cfg.Mail.PortalURL,
		DashboardURL: dashboardURL(cfg.Mail.PortalURL),
	}, lgr)
	deps.ApplicationService = appServices.NewApplicationService(
		deps.Repos.ApplicationRepository,
		deps.EligibilityService,
		deps.NotificationService,
		renderer,
		lgr,
	)
	deps.AuthService = appServices.NewAuthService(creds, deps.JWTService, lgr)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)
	deps.RateLimiters = buildRateLimiters(cfg)

	deps.EligibilityController = appControllers.NewEligibilityController(deps.EligibilityService)
	deps.ApplicationController = appControllers.NewApplicationController(deps.ApplicationService)
	deps.AdminController = appControllers.NewAdminController(deps.ApplicationService)
	deps.AuthController = appControllers.NewAuthController(deps.AuthService, cfg.Server.CookieSecure)

	return deps, nil
}

func dashboardURL(portal string) string {
	if portal == "" {
		return ""
	}
	return portal + "/admin"
}

func buildRateLimiters(cfg *config.Config) appRoutes.RateLimiters {
	if !cfg.RateLimit.Enabled {
		return appRoutes.RateLimiters{}
	}

	login := appMiddleware.LoginRateLimit
	login.Max = cfg.RateLimit.LoginMax
	login.Window = helpers.ParseDuration(cfg.RateLimit.LoginWindow, login.Window)

	submit := appMiddleware.SubmitRateLimit
	submit.Max = cfg.RateLimit.SubmitMax
	submit.Window = helpers.ParseDuration(cfg.RateLimit.SubmitWindow, submit.Window)

	draft := appMiddleware.DraftRateLimit
	draft.Max = cfg.RateLimit.DraftMax
	draft.Window = helpers.ParseDuration(cfg.RateLimit.DraftWindow, draft.Window)

	return appRoutes.RateLimiters{
		Login:  appMiddleware.NewRateLimiter(login),
		Submit: appMiddleware.NewRateLimiter(submit),
		Draft:  appMiddleware.NewRateLimiter(draft),
	}
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		otelgin.Middleware(cfg.Tracing.ServiceName),
		appMiddleware.RequestLogger(lgr),
		appMiddleware.SecurityHeaders(),
		appMiddleware.CORS(cfg.Server.AllowedOrigins),
	)

	appRoutes.SetupRouter(router,
		deps.EligibilityController,
		deps.ApplicationController,
		deps.AdminController,
		deps.AuthController,
		deps.AuthMiddleware,
		deps.RateLimiters,
	)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}
