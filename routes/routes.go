package routes

import (
	"net/http"

	"agentcrm-backend/config"
	"agentcrm-backend/controllers"
	"agentcrm-backend/middleware"
	"agentcrm-backend/services"
	"agentcrm-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	Auth      *controllers.AuthController
	Clients   *controllers.ClientController
	Reminders *controllers.ReminderController
	Quota     services.QuotaChecker
}

func SetupRouter(cfg *config.Config, log *zap.Logger, h Handlers) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.Use(config.PerformanceLogger(log))
	r.Use(middleware.RateLimit(cfg.MaxRequestsPerMin, log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := r.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.GET("/me", utils.AuthMiddleware(cfg.JWTSecret), h.Auth.Me)
	}

	api := r.Group("/api")
	api.Use(utils.AuthMiddleware(cfg.JWTSecret))
	{
		clients := api.Group("/clients")
		{
			clients.POST("", h.Clients.CreateClient)
			clients.GET("", h.Clients.GetClients)
			clients.GET("/:id", h.Clients.GetClient)
			clients.PUT("/:id", h.Clients.UpdateClient)
			clients.DELETE("/:id", h.Clients.DeleteClient)
		}

		reminders := api.Group("/reminders")
		{
			reminders.GET("", h.Reminders.GetReminders)
			reminders.POST("", h.Reminders.CreateReminder)
			reminders.POST("/send", middleware.SMSQuota(h.Quota, log), h.Reminders.SendReminders)
			reminders.GET("/statistics", h.Reminders.GetStatistics)
			reminders.GET("/:id", h.Reminders.GetReminder)
			reminders.DELETE("/:id", h.Reminders.DeleteReminder)
		}

		api.GET("/usage", h.Reminders.GetUsage)
		api.GET("/activity", h.Reminders.GetActivity)
	}

	return r
}
