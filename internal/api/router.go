package api

import (
	"context"
	"net/http"
	"time"

	"feed-formulator/internal/api/handlers/feed"
	"feed-formulator/internal/api/handlers/health"
	"feed-formulator/internal/api/middleware"
	"feed-formulator/internal/core/formulation"
	"feed-formulator/internal/infrastructure/config"
	"feed-formulator/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// per-request timeout covering the numerical solve
	timeoutDuration = 60 * time.Second
	// request body size limit (1MB); formulation payloads are small
	maxBodySize = 1 << 20
)

// timeoutMiddleware bounds each request by a deadline. The 504 is written
// only when the handler produced no response of its own; a response already
// on the wire is never appended to.
func timeoutMiddleware(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", c.GetHeader("X-Request-ID")),
				zap.Duration("timeout", timeout),
			)
			c.JSON(http.StatusGatewayTimeout, gin.H{
				"error": "Request timeout",
				"code":  common.ErrCodeRequestTimeout,
				"details": gin.H{
					"timeout": timeout.String(),
				},
			})
			c.Abort()
		}
	}
}

// SetupRouter builds the HTTP router around the formulation service.
func SetupRouter(cfg *config.Config, formulationSvc *formulation.Service) (*gin.Engine, error) {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(maxBodySize))

	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	// service injection for the health handlers
	router.Use(func(c *gin.Context) {
		c.Set("config", cfg)
		c.Set("formulation_service", formulationSvc)
		c.Next()
	})

	router.Use(timeoutMiddleware(timeoutDuration))

	router.GET("/health", health.HealthCheck)
	router.GET("/ready", health.ReadinessCheck)
	router.GET("/live", health.LivenessCheck)

	feedHandler := feed.NewHandler(formulationSvc)

	api := router.Group("/api/v1")
	{
		feedGroup := api.Group("/feed")
		feedGroup.Use(middleware.Deduplication(cfg))
		{
			// compute a blend
			feedGroup.POST("/formulate", feedHandler.HandleFormulate)

			// compute a blend and render it as HTML
			feedGroup.POST("/report", feedHandler.HandleReport)

			// registry and catalog listings
			feedGroup.GET("/species", feedHandler.HandleSpecies)
			feedGroup.GET("/ingredients", feedHandler.HandleIngredients)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
		zap.Int("catalog_size", formulationSvc.Catalog().Len()),
		zap.Duration("timeout", timeoutDuration),
		zap.Int64("max_body_size", maxBodySize),
	)

	return router, nil
}
