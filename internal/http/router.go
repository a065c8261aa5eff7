package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"notifyrelay/internal/config"
	"notifyrelay/internal/http/controller"
	"notifyrelay/internal/http/middleware"
	"notifyrelay/internal/metrics"
)

func NewRouter(cfg *config.Config, handler *controller.Handler, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		otelgin.Middleware(cfg.OTELServiceName),
		middleware.ZapLogger(logger, "/health", "/metrics"),
		middleware.ZapRecovery(logger),
	)

	router.GET("/health", func(c *gin.Context) {
		c.Status(200)
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))
	router.GET("/notifications", handler.ListHistory)
	router.POST("/notifications", handler.PushNotification)
	router.POST("/notifications/publish", handler.PublishNotification)
	router.GET("/sse", handler.Stream)
	router.GET("/sse/live", handler.Live)

	return router
}
