package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/knitworks/floortrack-backend/internal/handlers"
	"github.com/knitworks/floortrack-backend/internal/middleware"
	"github.com/knitworks/floortrack-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	AuthMiddleware *middleware.AuthMiddleware
	ArticleHandler *handlers.ArticleHandler
	OrderHandler   *handlers.OrderHandler
	StatsHandler   *handlers.StatsHandler
	SSEHandler     *handlers.SSEHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(otelgin.Middleware("floortrack-backend"))
	router.Use(middleware.RequestContext(cfg.Log))

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)

	// ===============
	// || Protected ||
	// ===============
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())

	// SSE
	api.GET("/sse/stream", cfg.SSEHandler.Stream)
	api.POST("/sse/subscribe", cfg.SSEHandler.Subscribe)
	api.POST("/sse/unsubscribe", cfg.SSEHandler.Unsubscribe)

	// Orders
	api.POST("/orders", cfg.OrderHandler.Create)
	api.GET("/orders", cfg.OrderHandler.List)
	api.GET("/orders/:orderID", cfg.OrderHandler.Get)
	api.GET("/orders/:orderID/articles", cfg.OrderHandler.Articles)
	api.POST("/orders/:orderID/forward-to-warehouse", cfg.OrderHandler.ForwardToWarehouse)
	api.POST("/orders/:orderID/fix-completion-status", cfg.OrderHandler.FixCompletionStatus)

	// Articles
	api.GET("/articles/:articleID", cfg.ArticleHandler.Get)
	api.GET("/articles/:articleID/history", cfg.ArticleHandler.History)
	api.POST("/articles/:articleID/receive", cfg.ArticleHandler.Receive)
	api.POST("/articles/:articleID/complete", cfg.ArticleHandler.Complete)
	api.POST("/articles/:articleID/transfer", cfg.ArticleHandler.Transfer)
	api.POST("/articles/:articleID/quality", cfg.ArticleHandler.UpdateQuality)
	api.POST("/articles/:articleID/repair", cfg.ArticleHandler.Repair)
	api.POST("/articles/:articleID/confirm-final-quality", cfg.ArticleHandler.ConfirmFinalQuality)
	api.POST("/articles/:articleID/fix-corruption", cfg.ArticleHandler.FixCorruption)

	// Maintenance and dashboards
	api.GET("/statistics/floors", cfg.StatsHandler.FloorStatistics)
	api.POST("/maintenance/scan-corruption", cfg.OrderHandler.ScanForCorruption)

	return router
}
