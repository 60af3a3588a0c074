package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"tripledger/internal/handler"
	"tripledger/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	DriverHandler *handler.DriverHandler
	FareHandler   *handler.FareHandler
	TripHandler   *handler.TripHandler
	EventHandler  *handler.EventHandler
	RedisClient   *redis.Client
	NewRelicApp   *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
// Mutating routes carry the caller principal; reads are open.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Driver registry routes.
		drivers := v1.Group("/drivers")
		{
			drivers.POST("", middleware.RequireCaller(), deps.DriverHandler.Register)
			drivers.POST("/:address/remove", middleware.RequireCaller(), deps.DriverHandler.Remove)
			drivers.GET("", deps.DriverHandler.GetAll)
		}

		// Fare routes.
		fares := v1.Group("/fares")
		{
			fares.POST("", middleware.RequireCaller(), deps.FareHandler.Update)
			fares.GET("", deps.FareHandler.Get)
			fares.GET("/estimate", deps.FareHandler.Estimate)
		}

		// Trip ledger routes.
		trips := v1.Group("/trips")
		{
			trips.POST("", middleware.RequireCaller(), deps.TripHandler.Record)
			trips.GET("", deps.TripHandler.GetAll)
			trips.GET("/:id", deps.TripHandler.Get)
		}

		// Notification log routes.
		v1.GET("/events", deps.EventHandler.GetAll)
	}

	return router
}
