package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appControllers "github.com/mkaya/coursebuilder/internal/app/controllers"
	appMigrations "github.com/mkaya/coursebuilder/internal/app/migrations"
	appRepos "github.com/mkaya/coursebuilder/internal/app/repositories"
	appRoutes "github.com/mkaya/coursebuilder/internal/app/routes"
	appServices "github.com/mkaya/coursebuilder/internal/app/services"
	"github.com/mkaya/coursebuilder/internal/config"
	"github.com/mkaya/coursebuilder/internal/db"
	appMiddleware "github.com/mkaya/coursebuilder/internal/middleware"
	"github.com/mkaya/coursebuilder/internal/pkg/helpers"
	"github.com/mkaya/coursebuilder/internal/pkg/jobqueue"
	"github.com/mkaya/coursebuilder/internal/pkg/llm"
	"github.com/mkaya/coursebuilder/internal/pkg/logger"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	CourseService          *appServices.CourseService
	RegistrationService    *appServices.RegistrationService
	FeedbackService        *appServices.FeedbackService
	CompletionService      *appServices.CompletionService
	CourseController       *appControllers.CourseController
	RegistrationController *appControllers.RegistrationController
	FeedbackController     *appControllers.FeedbackController
	AuthMiddleware         *appMiddleware.AuthMiddleware
	Repos                  *appRepos.Repositories
	JobQueue               *jobqueue.Queue
	Logger                 zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logger.Configure(logger.Config{
		Level:  strings.ToLower(cfg.Logging.Level),
		Pretty: strings.ToLower(cfg.Logging.Format) == "text",
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", cfg.Logging.Level).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and runs migrations.
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
		database.Close()
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	if err := migrator.MigrateFromDirectory(migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		database.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}

	lgr.Info().Msg("Database migrations successfully applied.")
	return database, nil
}

// BuildDependencies initializes repositories, services and controllers.
func BuildDependencies(cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(database.Pool)

	// Job queue for completion follow-up work
	deps.JobQueue = jobqueue.New(
		cfg.JobQueue.Concurrency,
		cfg.JobQueue.MaxRetries,
		helpers.ParseDuration(cfg.JobQueue.BaseBackoff, 2*time.Second),
	)

	// AI provider; nil disables the AI structuring strategy entirely
	var provider llm.Provider
	if cfg.AI.APIKey != "" {
		openAI, err := llm.NewOpenAIProvider(llm.OpenAIConfig{
			APIKey:  cfg.AI.APIKey,
			BaseURL: cfg.AI.BaseURL,
			Model:   cfg.AI.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize AI provider: %w", err)
		}
		provider = openAI
		lgr.Info().Str("model", provider.ModelID()).Msg("AI structuring enabled")
	} else {
		lgr.Info().Msg("AI API key not configured, structure generation uses fallback only")
	}

	lessonSource := appServices.NewLessonSource(cfg.ContentService.BaseURL, cfg.ContentService.Timeout)
	generator := appServices.NewStructureGenerator(
		provider,
		cfg.AI.Temperature,
		helpers.ParseDuration(cfg.AI.Timeout, 30*time.Second),
	)

	credentialService := appServices.NewCredentialService(cfg.Credential.BaseURL, cfg.Credential.Timeout)

	deps.CourseService = appServices.NewCourseService(database, deps.Repos, lessonSource, generator)
	deps.CompletionService = appServices.NewCompletionService(
		deps.JobQueue,
		deps.Repos.RegistrationRepository,
		deps.Repos.AssessmentRepository,
		deps.Repos.CourseRepository,
		credentialService,
	)
	deps.RegistrationService = appServices.NewRegistrationService(database, deps.Repos, deps.CompletionService)
	deps.FeedbackService = appServices.NewFeedbackService(deps.Repos)

	deps.CourseController = appControllers.NewCourseController(deps.CourseService)
	deps.RegistrationController = appControllers.NewRegistrationController(deps.RegistrationService)
	deps.FeedbackController = appControllers.NewFeedbackController(deps.FeedbackService)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(cfg.JWT.Secret, cfg.JWT.Issuer)

	return deps, nil
}

// SetupRouter builds the gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(appMiddleware.RequestLogger())

	appRoutes.SetupRouter(
		router,
		deps.CourseController,
		deps.RegistrationController,
		deps.FeedbackController,
		deps.AuthMiddleware,
	)

	lgr.Info().Msg("Router configured")
	return router
}
