package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// RouterConfig holds the middleware settings of the router
type RouterConfig struct {
	CORSOrigins    []string
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

// SetupRoutes sets up the API routes
func SetupRoutes(handler *Handler, cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()

	// Middleware
	router.Use(RequestID())
	router.Use(Recovery(logger))
	router.Use(CORS(cfg.CORSOrigins))
	router.Use(Logger(logger))
	router.Use(Timeout(cfg.RequestTimeout))

	router.GET("/", handler.Root)
	router.GET("/health", handler.HealthCheck)

	public := router.Group("/api/public")
	{
		public.POST("/activity", handler.GetPublicActivity)
		public.GET("/user/:username", handler.GetUserInfo)
		public.GET("/search/:username", handler.SearchUser)
	}

	authGroup := router.Group("/api/auth")
	{
		authGroup.GET("/login", handler.Login)
		authGroup.GET("/callback", handler.Callback)

		session := authGroup.Group("", handler.RequireSession())
		{
			session.POST("/activity", handler.GetAuthenticatedActivity)
			session.POST("/logout", handler.Logout)
			session.GET("/me", handler.Me)
		}
	}

	return router
}
