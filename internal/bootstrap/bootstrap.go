package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appControllers "github.com/btrade/btrade-backend/internal/app/controllers"
	appMigrations "github.com/btrade/btrade-backend/internal/app/migrations"
	appRepos "github.com/btrade/btrade-backend/internal/app/repositories"
	appRoutes "github.com/btrade/btrade-backend/internal/app/routes"
	appServices "github.com/btrade/btrade-backend/internal/app/services"
	"github.com/btrade/btrade-backend/internal/app/workers"
	"github.com/btrade/btrade-backend/internal/config"
	"github.com/btrade/btrade-backend/internal/db"
	appMiddleware "github.com/btrade/btrade-backend/internal/middleware"
	pkgAuth "github.com/btrade/btrade-backend/internal/pkg/auth"
	"github.com/btrade/btrade-backend/internal/pkg/email"
	"github.com/btrade/btrade-backend/internal/pkg/events"
	"github.com/btrade/btrade-backend/internal/pkg/helpers"
	"github.com/btrade/btrade-backend/internal/pkg/logger"
	"github.com/btrade/btrade-backend/internal/pkg/metrics"
	"github.com/btrade/btrade-backend/internal/pkg/payment"
	"github.com/btrade/btrade-backend/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	AuthService       *appServices.AuthService
	CourseService     appServices.CourseService
	EnrollmentService appServices.EnrollmentService
	CheckoutService   appServices.CheckoutService
	DashboardService  appServices.DashboardService
	UserService       appServices.UserService

	AuthController       *appControllers.AuthController
	CourseController     *appControllers.CourseController
	EnrollmentController *appControllers.EnrollmentController
	CheckoutController   *appControllers.CheckoutController
	DashboardController  *appControllers.DashboardController
	UserController       *appControllers.UserController

	AuthMiddleware *appMiddleware.AuthMiddleware
	Repos          *appRepos.Repositories
	JWTService     *pkgAuth.JWTService
	Metrics        *metrics.Metrics
	Registry       *prometheus.Registry
	Hub            *events.Hub
	Broker         *events.Broker
	EventsHandler  *events.Handler
	CleanupWorker  *workers.CleanupWorker
	Logger         zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection, runs migrations and
// seeds default data.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := database.Pool.Ping(ctx); err != nil {
		lgr.Error().Err(err).Msg("Failed to ping database")
		database.Close()
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(database.Pool)

	migrationsDir := "migrations"
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	if err := migrator.MigrateFromDirectory(migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}

	lgr.Info().Msg("Database migrations successfully applied.")

	if err := seed.CreateDefaultData(context.Background(), database.Pool, lgr); err != nil {
		// Seeding failures should not block startup
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return database, nil
}

// SetupRedis creates the Redis client used for the event broker and the
// dashboard cache.
func SetupRedis(cfg *config.Config, lgr zerolog.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		lgr.Error().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to connect to Redis")
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	lgr.Info().Str("addr", cfg.Redis.Addr).Msg("Redis connection established")
	return client, nil
}

// BuildDependencies initializes repositories, services and controllers.
func BuildDependencies(cfg *config.Config, database *db.PostgresDB, redisClient *redis.Client, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(database.Pool)

	deps.Registry = prometheus.NewRegistry()
	deps.Metrics = metrics.New(deps.Registry)

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 1*time.Hour),
		RefreshTokenExp: helpers.ParseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})

	emailService := email.NewEmailService(email.SMTPConfig{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromName:  cfg.SMTP.FromName,
		FromEmail: cfg.SMTP.FromEmail,
		BaseURL:   cfg.Server.BaseURL,
	}, lgr)

	paymentClient := payment.NewClient(cfg.Payment.BaseURL, cfg.Payment.SecretKey)

	deps.Hub = events.NewHub(lgr)
	deps.Broker = events.NewBroker(redisClient, lgr)
	deps.EventsHandler = events.NewHandler(deps.Hub, lgr)

	deps.AuthService = appServices.NewAuthService(
		deps.Repos.UserRepository,
		deps.Repos.TraderRepository,
		deps.Repos.TokenRepository,
		deps.Repos.PasswordResetTokenRepository,
		deps.JWTService,
		emailService,
		deps.Metrics,
		lgr,
	)

	deps.CourseService = appServices.NewCourseService(
		deps.Repos.CourseRepository,
		deps.Repos.EnrollmentRepository,
		lgr,
	)

	// Dashboard first: enrollment and checkout invalidate its cache.
	deps.DashboardService = appServices.NewDashboardService(
		deps.Repos.DashboardRepository,
		redisClient,
		lgr,
	)

	deps.EnrollmentService = appServices.NewEnrollmentService(
		database,
		deps.Repos.EnrollmentRepository,
		deps.Repos.EnrollmentCodeRepository,
		deps.Repos.CourseRepository,
		deps.Repos.TraderRepository,
		deps.Broker,
		emailService,
		deps.Metrics,
		deps.DashboardService,
		lgr,
	)

	deps.CheckoutService = appServices.NewCheckoutService(
		database,
		deps.Repos.PaymentRepository,
		deps.Repos.CourseRepository,
		deps.Repos.EnrollmentRepository,
		deps.Repos.TraderRepository,
		paymentClient,
		appServices.CheckoutConfig{
			Currency:   cfg.Payment.Currency,
			SuccessURL: cfg.Payment.SuccessURL,
			CancelURL:  cfg.Payment.CancelURL,
		},
		deps.Broker,
		deps.Metrics,
		deps.DashboardService,
		lgr,
	)

	deps.UserService = appServices.NewUserService(
		deps.Repos.UserRepository,
		deps.Repos.TraderRepository,
		deps.Repos.TokenRepository,
		lgr,
	)

	var err error
	deps.CleanupWorker, err = workers.NewCleanupWorker(
		deps.Repos.TokenRepository,
		deps.Repos.PasswordResetTokenRepository,
		deps.Repos.EnrollmentCodeRepository,
		deps.Repos.PaymentRepository,
		lgr,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build cleanup worker: %w", err)
	}

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.AuthController = appControllers.NewAuthController(deps.AuthService, lgr)
	deps.CourseController = appControllers.NewCourseController(deps.CourseService, lgr)
	deps.EnrollmentController = appControllers.NewEnrollmentController(deps.EnrollmentService, lgr)
	deps.CheckoutController = appControllers.NewCheckoutController(deps.CheckoutService, lgr)
	deps.DashboardController = appControllers.NewDashboardController(deps.DashboardService, lgr)
	deps.UserController = appControllers.NewUserController(deps.UserService, lgr)

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

	router := gin.Default()

	appRoutes.SetupRouter(router,
		deps.AuthController,
		deps.CourseController,
		deps.EnrollmentController,
		deps.CheckoutController,
		deps.DashboardController,
		deps.UserController,
		deps.EventsHandler,
		deps.AuthMiddleware,
		deps.Registry,
	)

	appRoutes.SetupPageRoutes(router, deps.JWTService)

	return router
}
