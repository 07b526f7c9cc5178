package app

import (
	"classroom_backend/internal/config"
	"classroom_backend/internal/controller"
	"classroom_backend/internal/middleware"
	"classroom_backend/internal/repository"
	"classroom_backend/internal/service"
	"classroom_backend/internal/util"
	"classroom_backend/pkg/database"
	"classroom_backend/pkg/logger"
	"classroom_backend/pkg/monitoring"
	"classroom_backend/pkg/security"
	"classroom_backend/pkg/tracing"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user         *repository.UserRepository
	class        *repository.ClassRepository
	enrollment   *repository.EnrollmentRepository
	invitation   *repository.InvitationRepository
	topic        *repository.TopicRepository
	question     *repository.QuestionRepository
	quiz         *repository.QuizRepository
	progress     *repository.ProgressRepository
	catalogCache *repository.CatalogCache
}

type services struct {
	auth       *service.AuthService
	invitation *service.InvitationService
	enrollment *service.EnrollmentService
	class      *service.ClassService
	topic      *service.TopicService
	question   *service.QuestionService
	quiz       *service.QuizService
	dashboard  *service.DashboardService
}

type controllers struct {
	auth       *controller.AuthController
	invitation *controller.InvitationController
	class      *controller.ClassController
	topic      *controller.TopicController
	question   *controller.QuestionController
	quiz       *controller.QuizController
	dashboard  *controller.DashboardController
	health     *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ReloadConfig 配置文件变更后由 configwatcher 调用
func (a *App) ReloadConfig(cfg *config.Config) {
	for _, callback := range a.configCallbacks {
		callback(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	return &repositories{
		user:         repository.NewUserRepository(db),
		class:        repository.NewClassRepository(db),
		enrollment:   repository.NewEnrollmentRepository(db),
		invitation:   repository.NewInvitationRepository(db),
		topic:        repository.NewTopicRepository(db),
		question:     repository.NewQuestionRepository(db),
		quiz:         repository.NewQuizRepository(db),
		progress:     repository.NewProgressRepository(db),
		catalogCache: repository.NewCatalogCache(rdb, a.Config.Redis.CatalogTTL),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}

	// nil 的 *CatalogCache 不能直接赋给接口，否则接口非 nil
	var cache service.CatalogCache
	if repos.catalogCache != nil {
		cache = repos.catalogCache
	}

	s.auth = service.NewAuthService(repos.user, cfg)
	s.invitation = service.NewInvitationService(repos.invitation, repos.class, repos.user, s.auth, cfg)
	s.enrollment = service.NewEnrollmentService(repos.enrollment, repos.class, repos.progress, cache)
	s.class = service.NewClassService(repos.class, repos.topic, repos.enrollment, cache)
	s.topic = service.NewTopicService(repos.topic, repos.class, cache)
	s.question = service.NewQuestionService(repos.question, repos.topic)
	s.quiz = service.NewQuizService(repos.quiz, repos.enrollment, repos.class, repos.topic, repos.question)
	s.dashboard = service.NewDashboardService(repos.class, repos.topic, repos.question, repos.enrollment, repos.progress)

	return s
}

func (a *App) initControllers(s *services) *controllers {
	return &controllers{
		auth:       controller.NewAuthController(s.auth),
		invitation: controller.NewInvitationController(s.invitation),
		class:      controller.NewClassController(s.class, s.enrollment),
		topic:      controller.NewTopicController(s.topic),
		question:   controller.NewQuestionController(s.question),
		quiz:       controller.NewQuizController(s.quiz),
		dashboard:  controller.NewDashboardController(s.dashboard),
		health:     controller.NewHealthController(a.DB, a.Redis),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	migrate := cfg.Server.Mode != "release" || cfg.ForceMigrate
	db, err := database.InitDB(&cfg.Database, migrate)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}
	if cfg.MigrateOnly {
		return app
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		// 缓存只是加速，连不上时降级为直接查库
		logger.Log.Warn("Redis unavailable, catalog cache disabled", zap.Error(err))
		rdb = nil
	}
	app.Redis = rdb

	gin.SetMode(cfg.Server.Mode)
	if err := util.RegisterValidators(); err != nil {
		logger.Log.Fatal("Failed to register validators", zap.Error(err))
	}

	repos := app.initRepositories(db, rdb)
	services := app.initServices(repos, cfg)
	controllers := app.initControllers(services)

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	router := gin.New()
	app.Router = router
	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	app.RegisterConfigCallback(logger.SetLevel)
	app.RegisterConfigCallback(func(newCfg *config.Config) {
		logger.Log.Info("Log level updated", zap.String("level", logger.Level().String()))
	})

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("listen failed", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}

	logger.Log.Info("Server exiting")
}
