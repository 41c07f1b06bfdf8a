package health

import (
	"net/http"
	"runtime"
	"time"

	"feed-formulator/internal/core/formulation"
	"feed-formulator/internal/infrastructure/config"
	"feed-formulator/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthResponse is the health check payload.
type HealthResponse struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime"`
	Queue     *formulation.QueueStatus `json:"queue,omitempty"`
}

// HealthCheck reports process health plus the solve queue state.
func HealthCheck(c *gin.Context) {
	cfg, exists := c.Get("config")
	if !exists {
		common.LogError("Configuration not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Configuration not found",
		})
		return
	}
	config, ok := cfg.(*config.Config)
	if !ok {
		common.LogError("Invalid configuration type in context")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Invalid configuration type",
		})
		return
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   config.App.Version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}

	if svc, exists := c.Get("formulation_service"); exists {
		if formulationSvc, ok := svc.(*formulation.Service); ok {
			status := formulationSvc.QueueStatus()
			response.Queue = &status
		}
	}

	common.LogInfo("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck reports whether the service can take traffic.
func ReadinessCheck(c *gin.Context) {
	if svc, exists := c.Get("formulation_service"); exists {
		if formulationSvc, ok := svc.(*formulation.Service); ok && formulationSvc.Catalog().Len() > 0 {
			c.JSON(http.StatusOK, gin.H{
				"status": "ready",
			})
			return
		}
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"status": "catalog not loaded",
	})
}

// LivenessCheck reports process liveness.
func LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
