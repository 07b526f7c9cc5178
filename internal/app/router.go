package app

import (
	"classroom_backend/docs"
	"classroom_backend/internal/config"
	"classroom_backend/internal/middleware"
	"classroom_backend/internal/model"
	"classroom_backend/pkg/monitoring"
	"classroom_backend/pkg/security"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c, cfg)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		authGroup.GET("/dashboard", c.dashboard.GetDashboard)

		a.registerClassRoutes(authGroup, c)
		a.registerCatalogRoutes(authGroup, c)
		a.registerQuizRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	router.GET("/api/health", c.health.HealthCheck)

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	public := router.Group("/api")
	public.Use(security.RateLimiter(cfg.RateLimit.PublicMaxRequests, window))
	{
		public.POST("/auth/register", c.auth.Register)
		public.POST("/auth/login", c.auth.Login)

		// 邀请：可选认证，已登录学生直接加入，游客注册后加入
		public.GET("/invitations/:token", middleware.TryAuthMiddleware(cfg), c.invitation.Validate)
		public.POST("/invitations/:token", middleware.TryAuthMiddleware(cfg), c.invitation.Consume)
	}
}

func (a *App) registerClassRoutes(group *gin.RouterGroup, c *controllers) {
	group.POST("/invitations", c.invitation.Create)

	classes := group.Group("/classes")
	{
		classes.GET("", c.class.List)
		classes.POST("", c.class.Create)
		classes.GET("/:id", c.class.Get)
		classes.PATCH("/:id", c.class.Update)
		classes.DELETE("/:id", c.class.Delete)

		classes.GET("/:id/topics", c.class.ListTopics)
		classes.POST("/:id/topics", c.class.AssignTopic)
		classes.PATCH("/:id/topics", c.class.PublishTopic)
		classes.DELETE("/:id/topics/:topicId", c.class.RemoveTopic)

		classes.GET("/:id/invitations", c.invitation.List)
		classes.DELETE("/:id/invitations/:invitationId", c.invitation.Deactivate)

		classes.GET("/:id/students", c.class.Roster)
		classes.GET("/:id/modules", c.class.Modules)
	}
}

// registerCatalogRoutes 主题与题库，写操作仅教师
func (a *App) registerCatalogRoutes(group *gin.RouterGroup, c *controllers) {
	teacherOnly := middleware.RoleMiddleware(model.RoleTeacher)

	topics := group.Group("/topics")
	{
		topics.GET("", c.topic.List)
		topics.POST("", teacherOnly, c.topic.Create)
		topics.PATCH("/:id", teacherOnly, c.topic.Update)
		topics.DELETE("/:id", teacherOnly, c.topic.Delete)

		topics.GET("/:id/subtopics", c.topic.ListSubtopics)
		topics.POST("/:id/subtopics", teacherOnly, c.topic.CreateSubtopic)
		topics.PATCH("/:id/subtopics/:subtopicId", teacherOnly, c.topic.UpdateSubtopic)
		topics.DELETE("/:id/subtopics/:subtopicId", teacherOnly, c.topic.DeleteSubtopic)
	}

	questions := group.Group("/questions")
	questions.Use(teacherOnly)
	{
		questions.GET("", c.question.List)
		questions.POST("", c.question.Create)
		questions.GET("/:id", c.question.Get)
		questions.PATCH("/:id", c.question.Update)
		questions.DELETE("/:id", c.question.Delete)
	}
}

func (a *App) registerQuizRoutes(group *gin.RouterGroup, c *controllers) {
	quiz := group.Group("/quiz")
	{
		quiz.POST("", c.quiz.Start)
		quiz.PATCH("", c.quiz.Submit)
		quiz.GET("/:attemptId", c.quiz.Review)
	}
}
