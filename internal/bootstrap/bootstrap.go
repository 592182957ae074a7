package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appControllers "github.com/yigit/unitime/internal/app/controllers"
	appMigrations "github.com/yigit/unitime/internal/app/migrations"
	appRepos "github.com/yigit/unitime/internal/app/repositories"
	appRoutes "github.com/yigit/unitime/internal/app/routes"
	appServices "github.com/yigit/unitime/internal/app/services"
	"github.com/yigit/unitime/internal/config"
	"github.com/yigit/unitime/internal/db"
	appMiddleware "github.com/yigit/unitime/internal/middleware"
	pkgAuth "github.com/yigit/unitime/internal/pkg/auth"
	"github.com/yigit/unitime/internal/pkg/cache"
	"github.com/yigit/unitime/internal/pkg/email"
	"github.com/yigit/unitime/internal/pkg/helpers"
	"github.com/yigit/unitime/internal/pkg/logger"
	"github.com/yigit/unitime/internal/pkg/metrics"
	"github.com/yigit/unitime/internal/pkg/notify"
	"github.com/yigit/unitime/internal/pkg/validation"
	"github.com/yigit/unitime/internal/pkg/websocket"
	"github.com/yigit/unitime/internal/seed"
)

const cacheKeyPrefix = "unitime:"

// Dependencies holds all the application dependencies
type Dependencies struct {
	Database       *db.PostgresDB
	Redis          *redis.Client // nil when caching is disabled
	Cache          cache.Cache
	Repos          *appRepos.Repositories
	JWTService     *pkgAuth.JWTService
	Hub            *websocket.Hub
	Metrics        *metrics.Metrics
	AuthMiddleware *appMiddleware.AuthMiddleware
	Controllers    appRoutes.Controllers
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

// SetupDatabase connects to Postgres, applies the embedded migrations and
// seeds the default data when configured to.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	if cfg.Database.RunMigrations {
		lgr.Info().Msg("Running database migrations...")
		migrator, err := appMigrations.NewMigrator(database.Pool, lgr)
		if err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to create migrator: %w", err)
		}
		err = migrator.Up(ctx)
		if closeErr := migrator.Close(); closeErr != nil {
			lgr.Warn().Err(closeErr).Msg("Failed to close migration handle")
		}
		if err != nil {
			lgr.Error().Err(err).Msg("Database migration error")
			database.Close()
			return nil, fmt.Errorf("database migrations failed: %w", err)
		}
	}

	if cfg.Database.SeedDefaults {
		admin := seed.AdminAccount{Email: cfg.Admin.Email, Password: cfg.Admin.Password}
		if err := seed.CreateDefaultData(ctx, database.Pool, admin, lgr); err != nil {
			// Startup goes on; the catalogue can still be filled by hand
			lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
		}
	}

	return database, nil
}

// SetupCache connects to Redis when an address is configured. Any failure
// falls back to the no-op cache: the stats are then computed on every call.
func SetupCache(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (cache.Cache, *redis.Client) {
	if !cfg.CacheEnabled() {
		lgr.Info().Msg("Redis address not configured, stats caching disabled")
		return cache.Noop{}, nil
	}

	client, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		lgr.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unavailable, stats caching disabled")
		return cache.Noop{}, nil
	}

	lgr.Info().Str("addr", cfg.Redis.Addr).Msg("Redis cache connected")
	return cache.NewRedisCache(client, cacheKeyPrefix), client
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, database *db.PostgresDB, statsCache cache.Cache, redisClient *redis.Client, lgr zerolog.Logger) (*Dependencies, error) {
	if err := validation.RegisterRules(); err != nil {
		return nil, fmt.Errorf("failed to register validation rules: %w", err)
	}

	deps := &Dependencies{
		Database: database,
		Redis:    redisClient,
		Cache:    statsCache,
		Logger:   lgr,
	}

	deps.Repos = appRepos.NewRepositories(database.Pool)
	deps.Metrics = metrics.New()
	deps.Hub = websocket.NewHub(lgr.With().Str("component", "timetable_hub").Logger())

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 1*time.Hour),
		RefreshTokenExp: helpers.ParseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})

	smtpConfig := email.SMTPConfig{FromName: "UniTime", FromEmail: cfg.SMTP.From}
	if cfg.MailEnabled() {
		smtpConfig.Host = cfg.SMTP.Host
		smtpConfig.Port = cfg.SMTP.Port
		smtpConfig.Username = cfg.SMTP.Username
		smtpConfig.Password = cfg.SMTP.Password
	} else {
		lgr.Warn().Msg("SMTP credentials not configured, mails will only be logged")
	}
	mailService := email.NewEmailService(smtpConfig, lgr.With().Str("component", "mail").Logger())
	notifier := notify.NewSessionNotifier(deps.Hub, mailService, lgr)

	repos := deps.Repos
	scheduleUoW := appServices.NewScheduleUnitOfWork(database, cfg.Scheduling.LockTimeout)
	accountUoW := appServices.NewAccountUnitOfWork(database)

	statsService := appServices.NewStatsService(repos.StatsRepository, statsCache, cfg.Redis.StatsTTL, lgr)
	authService := appServices.NewAuthService(repos.UserRepository, repos.TokenRepository, repos.TeacherRepository, deps.JWTService, lgr)
	userService := appServices.NewUserService(repos.UserRepository, accountUoW, mailService, lgr)
	facultyService := appServices.NewFacultyService(repos.FacultyRepository)
	departmentService := appServices.NewDepartmentService(repos.DepartmentRepository, repos.FacultyRepository)
	catalogService := appServices.NewCatalogService(repos.ProgramRepository, repos.SubjectRepository)
	roomService := appServices.NewRoomService(repos.RoomRepository, repos.BuildingRepository, repos.SessionRepository, repos.SessionRepository)
	teacherService := appServices.NewTeacherService(repos.TeacherRepository, repos.SessionRepository)
	unavailabilityService := appServices.NewUnavailabilityService(scheduleUoW, repos.UnavailabilityRepository, repos.TeacherRepository, statsService, lgr)
	timetableService := appServices.NewTimetableService(repos.SessionRepository, repos.TeacherRepository)
	sessionService := appServices.NewSessionService(
		scheduleUoW,
		appRepos.NewScheduleStore(database.Pool),
		repos.SessionRepository,
		appServices.SessionReferences{
			Subjects: repos.SubjectRepository,
			Teachers: repos.TeacherRepository,
			Rooms:    repos.RoomRepository,
			Programs: repos.ProgramRepository,
		},
		notifier,
		deps.Metrics,
		statsService,
		lgr,
	)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, repos.UserRepository)
	wsHandler := websocket.NewHandler(deps.Hub, cfg.Server.AllowedOrigins, lgr)

	deps.Controllers = appRoutes.Controllers{
		Auth:       appControllers.NewAuthController(authService, lgr),
		User:       appControllers.NewUserController(userService),
		Faculty:    appControllers.NewFacultyController(facultyService),
		Department: appControllers.NewDepartmentController(departmentService),
		Catalog:    appControllers.NewCatalogController(catalogService),
		Room:       appControllers.NewRoomController(roomService),
		Teacher:    appControllers.NewTeacherController(teacherService, unavailabilityService),
		Course:     appControllers.NewCourseController(sessionService, lgr),
		Timetable:  appControllers.NewTimetableController(timetableService, wsHandler),
		Stats:      appControllers.NewStatsController(statsService),
	}

	return deps, nil
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
		appMiddleware.RequestID(),
		appMiddleware.RequestLogger(lgr),
		appMiddleware.CORS(cfg.Server.AllowedOrigins),
		deps.Metrics.Middleware(),
		gin.Recovery(),
	)

	appRoutes.SetupSwagger(router)
	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware)

	router.GET("/metrics", deps.Metrics.Handler())
	router.GET("/health", healthHandler(deps))
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}

// healthHandler pings the database and, when configured, Redis.
func healthHandler(deps *Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := gin.H{"database": "up", "cache": "disabled"}

		if err := deps.Database.Pool.Ping(ctx); err != nil {
			deps.Logger.Error().Err(err).Msg("Health check: database ping failed")
			checks["database"] = "down"
			status = http.StatusServiceUnavailable
		}

		if deps.Redis != nil {
			checks["cache"] = "up"
			if err := deps.Redis.Ping(ctx).Err(); err != nil {
				// Stats still work without the cache
				deps.Logger.Warn().Err(err).Msg("Health check: redis ping failed")
				checks["cache"] = "down"
			}
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}
		c.JSON(status, gin.H{
			"status":    overall,
			"checks":    checks,
			"timestamp": time.Now().UTC(),
		})
	}
}
