package auth

import (
	"eventix/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// Router handles auth-related routes
type Router struct {
	controller   *Controller
	authenticate gin.HandlerFunc
}

// NewRouter creates a new auth router; authenticate guards the protected routes
func NewRouter(controller *Controller, authenticate gin.HandlerFunc) *Router {
	return &Router{
		controller:   controller,
		authenticate: authenticate,
	}
}

// SetupRoutes registers all auth routes
func (authRouter *Router) SetupRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	{
		// Public routes (no authentication required)
		auth.POST("/register", authRouter.controller.Register)
		auth.POST("/login", authRouter.controller.Login)
		auth.POST("/refresh", authRouter.controller.RefreshToken)

		// Protected routes (authentication required)
		protected := auth.Group("")
		protected.Use(authRouter.authenticate)
		{
			protected.PUT("/change-password", authRouter.controller.ChangePassword)
			protected.GET("/me", authRouter.controller.GetMe)
		}
	}

	// Admin routes - account management
	adminUsers := rg.Group("/admin/users")
	adminUsers.Use(authRouter.authenticate, middleware.RequireAdmin())
	{
		adminUsers.GET("", authRouter.controller.ListUsers)                   // GET /api/v1/admin/users?page=1&limit=20
		adminUsers.PUT("/:id/status", authRouter.controller.UpdateUserStatus) // PUT /api/v1/admin/users/:id/status
	}
}
