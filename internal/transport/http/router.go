package http

import (
	"net/http"

	"github.com/astro-web3/authz-gatekeeper/internal/config"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// NewRouter mounts health and metrics endpoints directly and every
// application route behind the gatekeeper.
func NewRouter(handler *Handler, gate gin.HandlerFunc, metricsHandler http.Handler, cfg *config.Config) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	if cfg.Observability.TraceEnabled {
		router.Use(otelgin.Middleware(serviceName))
	}
	router.Use(loggingMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}

	app := router.Group("/", gate)
	app.GET("/", handler.Root)
	app.GET("/question", handler.Question)
	app.POST("/question", handler.Question)
	app.GET("/usage", handler.Usage)

	return router
}
