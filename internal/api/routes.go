package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"devfolio/internal/api/middleware"
	"devfolio/internal/auth"
	"devfolio/internal/config"
)

// RegisterRoutes 注册全部 API 路由。
// 公共读取端点挂 OptionalAuth：登录用户能看到自己的未发布内容。
// 写入端点要求登录且已完成初始改密。
func RegisterRoutes(
	router *gin.Engine,
	db *gorm.DB,
	asynqClient *asynq.Client,
	authService *auth.AuthService,
	redisClient redis.UniversalClient,
	logger *slog.Logger,
	cfg *config.Config,
) {
	authHandler := NewAuthHandler(db, authService, redisClient, logger,
		cfg.Auth.LoginRateLimitPerHour, cfg.Auth.LoginLockThreshold, cfg.Auth.LoginLockTTL, cfg.API.CookieDomain)
	projectHandler := NewProjectHandler(db)
	blogHandler := NewBlogHandler(db)
	skillHandler := NewSkillHandler(db)
	experienceHandler := NewExperienceHandler(db)
	educationHandler := NewEducationHandler(db)
	personalInfoHandler := NewPersonalInfoHandler(db)
	settingsHandler := NewSettingsHandler(db)
	contactHandler := NewContactHandler(db, redisClient, asynqClient, logger)

	requireAuth := middleware.RequireAuth(authService)
	optionalAuth := middleware.OptionalAuth(authService)
	passwordGate := middleware.RequirePasswordChangeCompleted()

	v1 := router.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authHandler.Logout)
			authGroup.GET("/me", requireAuth, authHandler.Me)
			authGroup.POST("/change-password", requireAuth, authHandler.ChangePassword)
		}

		projects := v1.Group("/projects")
		{
			projects.GET("", optionalAuth, projectHandler.List)
			projects.GET("/:id", optionalAuth, projectHandler.Get)
			projects.POST("", requireAuth, passwordGate, projectHandler.Create)
			projects.PUT("/:id", requireAuth, passwordGate, projectHandler.Update)
			projects.DELETE("/:id", requireAuth, passwordGate, projectHandler.Delete)
		}

		blog := v1.Group("/blog")
		{
			blog.GET("", optionalAuth, blogHandler.List)
			blog.GET("/:id", optionalAuth, blogHandler.Get)
			blog.POST("", requireAuth, passwordGate, blogHandler.Create)
			blog.PUT("/:id", requireAuth, passwordGate, blogHandler.Update)
			blog.DELETE("/:id", requireAuth, passwordGate, blogHandler.Delete)
		}

		skills := v1.Group("/skills")
		{
			skills.GET("", skillHandler.List)
			skills.GET("/:id", skillHandler.Get)
			skills.POST("", requireAuth, passwordGate, skillHandler.Create)
			skills.PUT("/:id", requireAuth, passwordGate, skillHandler.Update)
			skills.DELETE("/:id", requireAuth, passwordGate, skillHandler.Delete)
		}

		experience := v1.Group("/experience")
		{
			experience.GET("", experienceHandler.List)
			experience.GET("/:id", experienceHandler.Get)
			experience.POST("", requireAuth, passwordGate, experienceHandler.Create)
			experience.PUT("/:id", requireAuth, passwordGate, experienceHandler.Update)
			experience.DELETE("/:id", requireAuth, passwordGate, experienceHandler.Delete)
		}

		education := v1.Group("/education")
		{
			education.GET("", educationHandler.List)
			education.GET("/:id", educationHandler.Get)
			education.POST("", requireAuth, passwordGate, educationHandler.Create)
			education.PUT("/:id", requireAuth, passwordGate, educationHandler.Update)
			education.DELETE("/:id", requireAuth, passwordGate, educationHandler.Delete)
		}

		personalInfo := v1.Group("/personal-info")
		{
			personalInfo.GET("", optionalAuth, personalInfoHandler.Get)
			personalInfo.POST("", requireAuth, passwordGate, personalInfoHandler.Create)
			personalInfo.PUT("", requireAuth, passwordGate, personalInfoHandler.Update)
		}

		settings := v1.Group("/site-settings")
		{
			settings.GET("", optionalAuth, settingsHandler.List)
			settings.POST("", requireAuth, passwordGate, settingsHandler.Create)
			settings.PUT("", requireAuth, passwordGate, settingsHandler.Update)
			settings.DELETE("", requireAuth, passwordGate, settingsHandler.Delete)
		}

		contact := v1.Group("/contact")
		{
			contact.POST("", contactHandler.Submit)
			contact.GET("", requireAuth, contactHandler.List)
			contact.PUT("/:id", requireAuth, passwordGate, contactHandler.UpdateStatus)
		}
	}
}
