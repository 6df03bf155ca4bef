package events

import (
	"eventix/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// authenticate is the JWT middleware shared by every protected route
func SetupEventRoutes(router *gin.RouterGroup, controller Controller, authenticate gin.HandlerFunc) {
	// Public routes - anyone can browse events
	publicEvents := router.Group("/events")
	{
		publicEvents.GET("", controller.GetAllEvents)                           // GET /api/v1/events
		publicEvents.GET("/category/:category", controller.GetEventsByCategory) // GET /api/v1/events/category/:category
		publicEvents.GET("/:id", controller.GetEvent)                           // GET /api/v1/events/:id
	}

	// Admin routes - only admins can create, update and delete events
	adminEvents := router.Group("/admin/events")
	adminEvents.Use(authenticate, middleware.RequireAdmin())
	{
		adminEvents.GET("", controller.GetAllEventsAsAdmin)
		adminEvents.POST("", controller.CreateEvent)
		adminEvents.GET("/:id", controller.GetEvent)
		adminEvents.PUT("/:id", controller.UpdateEvent)
		adminEvents.DELETE("/:id", controller.DeleteEvent)
	}
}
