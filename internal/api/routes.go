package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sandeepshegane1/localtask-sub000/internal/auth"
	"github.com/sandeepshegane1/localtask-sub000/internal/config"
	"github.com/sandeepshegane1/localtask-sub000/internal/model"
	"github.com/sandeepshegane1/localtask-sub000/internal/websocket"
	"gorm.io/gorm"
)

// Controllers 路由需要的全部控制器
type Controllers struct {
	Task         *TaskController
	Provider     *ProviderController
	Notification *NotificationController
}

// SetupRoutes 配置路由
func SetupRoutes(cfg *config.Config, db *gorm.DB, hub *websocket.Hub, validator *auth.TokenValidator, ctl Controllers) *gin.Engine {
	if config.IsProduction(cfg) {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// 中间件
	router.Use(RequestIDMiddleware())
	router.Use(RequestLogMiddleware())
	router.Use(CORSMiddleware(cfg.CORS.AllowedOrigins))
	if cfg.Server.RateLimitRPS > 0 {
		router.Use(RateLimitMiddleware(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst))
	}
	if cfg.Tracing.Enabled {
		router.Use(TracingMiddleware())
	}

	// 健康检查
	healthController := NewHealthController(db)
	router.GET("/health", healthController.Check)

	// Prometheus 指标端点
	router.GET("/metrics", MetricsHandler)

	// WebSocket 任务动态推送
	if hub != nil && validator != nil {
		router.GET("/ws/feed", websocket.FeedHandler(hub, validator))
	}

	// API v1 路由组,全部需要认证
	v1 := router.Group("/api/v1")
	v1.Use(auth.AuthMiddleware(validator))
	{
		tasks := v1.Group("/tasks")
		{
			// 客户侧
			tasks.POST("", auth.RequireRole(string(model.RoleClient)), ctl.Task.Create)
			tasks.POST("/quick-service", auth.RequireRole(string(model.RoleClient)), ctl.Task.CreateQuickService)
			tasks.GET("", auth.RequireRole(string(model.RoleClient)), ctl.Task.List)
			tasks.PATCH("/:id", auth.RequireRole(string(model.RoleClient)), ctl.Task.Update)
			tasks.DELETE("/:id", auth.RequireRole(string(model.RoleClient)), ctl.Task.Delete)

			// 服务者侧
			tasks.GET("/provider", auth.RequireRole(string(model.RoleProvider)), ctl.Task.ListForProvider)
			tasks.POST("/quick-service/:id/accept", auth.RequireRole(string(model.RoleProvider)), ctl.Task.Accept)
			tasks.PATCH("/:id/accept", auth.RequireRole(string(model.RoleProvider)), ctl.Task.Accept)
			tasks.PATCH("/:id/reject", auth.RequireRole(string(model.RoleProvider)), ctl.Task.Reject)
			tasks.PATCH("/:id/start", auth.RequireRole(string(model.RoleProvider)), ctl.Task.Start)
			tasks.PATCH("/:id/cancel", auth.RequireRole(string(model.RoleProvider)), ctl.Task.Cancel)
			tasks.POST("/:id/request-completion", auth.RequireRole(string(model.RoleProvider)), ctl.Task.RequestCompletion)
			tasks.POST("/:id/verify-completion", auth.RequireRole(string(model.RoleProvider)), ctl.Task.VerifyCompletion)

			// 双方可见
			tasks.GET("/:id", ctl.Task.Get)
		}

		providers := v1.Group("/providers")
		{
			providers.PUT("/location", auth.RequireRole(string(model.RoleProvider)), ctl.Provider.UpdateLocation)
		}

		notifications := v1.Group("/notifications")
		{
			notifications.GET("", ctl.Notification.List)
			notifications.PATCH("/:id/read", ctl.Notification.MarkRead)
		}
	}

	return router
}
