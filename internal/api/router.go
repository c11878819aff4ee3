package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"fieldservice-backend/config"
	"fieldservice-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(deps Deps, cfg config.ServerConfig) *gin.Engine {
	handler := NewHandler(deps)

	r := gin.New()
	r.Use(gin.Recovery(), mw.Logger(handler.logger))

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst, handler.logger)

	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	handler.cache = cache.New(ttl, 2*ttl)
	caching := mw.Cache(handler.cache, ttl)

	r.GET("/api/health", handler.Health)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.POST("/slots", handler.ComputeSlots)
		api.POST("/slots/preview", handler.PreviewSlots)

		api.GET("/technicians", caching, handler.ListTechnicians)
		api.POST("/technicians", handler.CreateTechnician)
		api.GET("/technicians/:id/appointments", handler.ListAppointments)
		api.POST("/technicians/:id/appointments", handler.BookAppointment)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
