package bootstrap

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	appControllers "github.com/yigit/courseenroll/internal/app/controllers"
	appMigrations "github.com/yigit/courseenroll/internal/app/migrations"
	appRepos "github.com/yigit/courseenroll/internal/app/repositories"
	"github.com/yigit/courseenroll/internal/app/repositories/memstore"
	appRoutes "github.com/yigit/courseenroll/internal/app/routes"
	appServices "github.com/yigit/courseenroll/internal/app/services"
	"github.com/yigit/courseenroll/internal/config"
	"github.com/yigit/courseenroll/internal/db"
	appMiddleware "github.com/yigit/courseenroll/internal/middleware"
	"github.com/yigit/courseenroll/internal/pkg/helpers"
	"github.com/yigit/courseenroll/internal/pkg/logger"
	"github.com/yigit/courseenroll/internal/pkg/telemetry"
	"github.com/yigit/courseenroll/internal/seed"
)

// DefaultConfigPath is used when no path is given on the command line
const DefaultConfigPath = "configs/config.yaml"

// Dependencies holds all the application dependencies
type Dependencies struct {
	TxManager            appRepos.TxManager
	Router               *appServices.EnrollmentStrategyRouter
	EnrollmentService    *appServices.EnrollmentService
	TimetableService     *appServices.TimetableService
	EnrollmentController *appControllers.EnrollmentController
	TimetableController  *appControllers.TimetableController
	HealthController     *appControllers.HealthController
	Logger               zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	lgr := logger.Configure(logger.ConfigFrom(cfg.Logging.Level, cfg.Logging.Format))
	lgr.Info().Str("logLevel", cfg.Logging.Level).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupTracing installs the OTLP tracer provider when tracing is enabled.
func SetupTracing(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (func(context.Context) error, error) {
	shutdown, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
		Insecure:    cfg.Tracing.Insecure,
	})
	if err != nil {
		return shutdown, fmt.Errorf("failed to setup tracing: %w", err)
	}
	if cfg.Tracing.Enabled {
		lgr.Info().Str("endpoint", cfg.Tracing.Endpoint).Msg("Tracing enabled")
	}
	return shutdown, nil
}

// SetupDatabase establishes the database connection and runs migrations.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Str("host", cfg.Database.Host).Str("dbname", cfg.Database.DBName).Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	migrationsDir := cfg.Database.MigrationsDir
	if _, err := os.Stat(migrationsDir); err != nil {
		database.Close()
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	migrator := appMigrations.NewMigrator(database.Pool, lgr)
	if err := migrator.MigrateFromDirectory(ctx, migrationsDir); err != nil {
		database.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	return database, nil
}

// LockTimeout is the configured row lock wait, falling back to the store default.
func LockTimeout(cfg *config.Config) time.Duration {
	return helpers.ParseDuration(cfg.Enrollment.LockTimeout, memstore.DefaultLockTimeout)
}

// NewTxManager returns the PostgreSQL transaction manager, or the in-memory
// store when database is nil.
func NewTxManager(cfg *config.Config, database *db.PostgresDB) appRepos.TxManager {
	if database == nil {
		return memstore.New(LockTimeout(cfg))
	}
	return appRepos.NewPostgresTxManager(database, LockTimeout(cfg))
}

// SeedCatalog generates initial data when seeding is enabled. Failures are
// logged and do not stop startup.
func SeedCatalog(ctx context.Context, cfg *config.Config, txManager appRepos.TxManager, lgr zerolog.Logger) {
	if !cfg.Seed.Enabled {
		lgr.Info().Msg("Initial data generation disabled")
		return
	}
	if _, err := seed.CreateDefaultData(ctx, txManager, seed.OptionsFromConfig(cfg), lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}
}

// BuildDependencies initializes services and controllers on txManager.
// database may be nil; the health endpoint then reports no database.
func BuildDependencies(cfg *config.Config, txManager appRepos.TxManager, database *db.PostgresDB, lgr zerolog.Logger) (*Dependencies, error) {
	defaultStrategy, err := appServices.ParseStrategyType(cfg.Enrollment.DefaultStrategy)
	if err != nil {
		return nil, fmt.Errorf("default enrollment strategy: %w", err)
	}

	deps := &Dependencies{TxManager: txManager, Logger: lgr}

	deps.Router = appServices.NewDefaultEnrollmentStrategyRouter(txManager, lgr)
	deps.EnrollmentService = appServices.NewEnrollmentService(deps.Router, defaultStrategy, lgr)
	deps.TimetableService = appServices.NewTimetableService(txManager)

	deps.EnrollmentController = appControllers.NewEnrollmentController(deps.EnrollmentService)
	deps.TimetableController = appControllers.NewTimetableController(deps.TimetableService)

	// a nil *db.PostgresDB must not become a non-nil Pinger
	var pinger appControllers.Pinger
	if database != nil {
		pinger = database
	}
	deps.HealthController = appControllers.NewHealthController(pinger, lgr)

	lgr.Info().Str("defaultStrategy", string(defaultStrategy)).Msg("Enrollment services ready")
	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(appMiddleware.RequestLogger(lgr))

	appRoutes.SetupSwagger(router)
	appRoutes.SetupRouter(router,
		deps.EnrollmentController,
		deps.TimetableController,
		deps.HealthController,
	)

	return router
}
