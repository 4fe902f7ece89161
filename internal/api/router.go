package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"bikeshare-backend/config"
	"bikeshare-backend/internal/engine"
	"bikeshare-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(e *engine.Engine, cfg *config.ServerConfig) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(e, LoadLocation(cfg.Timezone))
	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst, cfg.RequestIPHeader)

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Bike stations API - v1 running")
	})
	r.GET("/healthz", handler.Health)

	api := r.Group("/api/v1")
	api.Use(rateLimiter)
	{
		api.GET("/stations", handler.ListStations)
		api.GET("/stations/summary", handler.GetSummary)
		api.GET("/stations/:number", handler.GetStation)
		api.POST("/stations", handler.CreateStation)
		api.PUT("/stations/:number", handler.UpdateStation)
	}

	return r
}
