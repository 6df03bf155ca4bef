package bookings

import (
	"eventix/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// authenticate is the JWT middleware shared by every protected route
func SetupBookingRoutes(router *gin.RouterGroup, controller Controller, authenticate gin.HandlerFunc) {
	// Provider callbacks carry a signature instead of a JWT
	router.POST("/bookings/webhook", controller.HandleWebhook) // POST /api/v1/bookings/webhook

	bookings := router.Group("/bookings")
	bookings.Use(authenticate)
	{
		bookings.POST("/create-checkout-session", controller.CreateCheckoutSession) // POST /api/v1/bookings/create-checkout-session
		bookings.POST("/confirm-payment", controller.ConfirmPayment)                // POST /api/v1/bookings/confirm-payment
		bookings.GET("/my-bookings", controller.GetMyBookings)                      // GET /api/v1/bookings/my-bookings?page=1&limit=10
		bookings.GET("/:id", controller.GetBooking)                                 // GET /api/v1/bookings/:id
		bookings.PUT("/:id/cancel", controller.CancelBooking)                       // PUT /api/v1/bookings/:id/cancel
	}

	// Admin routes - door staff and organisers
	adminBookings := router.Group("/bookings")
	adminBookings.Use(authenticate, middleware.RequireAdmin())
	{
		adminBookings.GET("/event/:eventId/attendees", controller.GetEventAttendees)
		adminBookings.PUT("/:id/checkin", controller.CheckIn)
	}

	adminAll := router.Group("/admin/bookings")
	adminAll.Use(authenticate, middleware.RequireAdmin())
	{
		adminAll.GET("", controller.GetAllBookings) // GET /api/v1/admin/bookings?page=1&limit=10
	}
}
