package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/potensiadev/onesns.ai-sub001/internal/config"
	"github.com/potensiadev/onesns.ai-sub001/internal/http/handler"
	"github.com/potensiadev/onesns.ai-sub001/internal/http/middleware"
	"github.com/potensiadev/onesns.ai-sub001/internal/token"
)

// NewRouter wires Gin routes and middleware.
func NewRouter(
	cfg config.Config,
	connectHandler *handler.ConnectHandler,
	internalHandler *handler.InternalHandler,
	verifier *token.Verifier,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(nil))
	r.Use(middleware.CORS(cfg))
	r.Use(otelgin.Middleware(cfg.ServiceName))

	social := r.Group("/api/v1/social", middleware.SessionAuth(verifier))
	{
		social.POST("/connect", connectHandler.Connect)
		social.GET("/connections", connectHandler.Connections)
	}

	internal := r.Group("/internal/v1", middleware.InternalAuth(cfg.InternalAPIToken))
	{
		internal.POST("/refresh-sweep", internalHandler.RefreshSweep)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": cfg.ServiceName})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
