package routes

import (
	"net/http"
	"time"

	"eventix/internal/auth"
	"eventix/internal/bookings"
	"eventix/internal/events"
	"eventix/internal/notifications"
	"eventix/internal/payments"
	"eventix/internal/shared/config"
	"eventix/internal/shared/database"
	"eventix/internal/shared/middleware"
	"eventix/pkg/cache"

	"github.com/gin-gonic/gin"
)

// Router owns the repositories and services shared between HTTP handlers and background jobs
type Router struct {
	config *config.Config
	db     *database.DB

	authService    auth.Service
	eventRepo      events.Repository
	eventService   events.Service
	bookingRepo    bookings.Repository
	bookingService bookings.Service
}

// NewRouter wires the booking engine. publisher may be nil when notifications are disabled.
func NewRouter(cfg *config.Config, db *database.DB, gateway payments.Gateway, publisher notifications.Publisher) *Router {
	pg := db.GetPostgreSQL()

	var cacheService cache.Service
	var locker bookings.Locker
	if rdb := db.GetRedisClient(); rdb != nil {
		cacheService = cache.NewService(rdb)
		locker = bookings.NewRedisLocker(rdb)
	}

	// bookings answer the events service's paid-booking check, events feed the booking engine
	bookingRepo := bookings.NewRepository(pg)
	eventRepo := events.NewRepository(pg)
	eventService := events.NewService(eventRepo, bookingRepo, cacheService)
	bookingService := bookings.NewService(bookingRepo, eventRepo, gateway, locker, publisher, eventService)

	return &Router{
		config:         cfg,
		db:             db,
		authService:    auth.NewService(auth.NewRepository(pg), cfg),
		eventRepo:      eventRepo,
		eventService:   eventService,
		bookingRepo:    bookingRepo,
		bookingService: bookingService,
	}
}

func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupHealthRoutes(engine)

	// every protected route rechecks that the account is still active
	authenticate := middleware.JWTAuth(r.config, r.authService)

	api := engine.Group(r.config.GetAPIBasePath())
	{
		auth.NewRouter(auth.NewController(r.authService), authenticate).SetupRoutes(api)
		events.SetupEventRoutes(api, events.NewController(r.eventService), authenticate)
		bookings.SetupBookingRoutes(api, bookings.NewController(r.bookingService), authenticate)
	}
}

// JobProcessor builds the lifecycle job over the same repositories the handlers use
func (r *Router) JobProcessor() *bookings.JobProcessor {
	return bookings.NewJobProcessor(r.eventRepo, r.bookingRepo, r.eventService, bookings.JobConfigFrom(r.config.Jobs))
}

func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "eventix-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "eventix-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":           "operational",
			"api_version":      r.config.APIVersion,
			"payments":         r.config.Payments.Provider,
			"notifications_on": r.config.Kafka.Enabled,
			"timestamp":        time.Now(),
		})
	})
}
