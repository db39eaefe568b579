package auth

import (
	"github.com/gin-gonic/gin"

	"autoclaim/internal/shared/config"
	"autoclaim/internal/shared/middleware"
)

// SetupAuthRoutes registers all auth routes. authLimit throttles the public
// credential endpoints.
func SetupAuthRoutes(rg *gin.RouterGroup, controller Controller, cfg *config.Config, authLimit gin.HandlerFunc) {
	auth := rg.Group("/auth")
	{
		// Public routes (no authentication required)
		public := auth.Group("")
		if authLimit != nil {
			public.Use(authLimit)
		}
		public.POST("/register", controller.Register)
		public.POST("/login", controller.Login)
		public.POST("/refresh", controller.RefreshToken)
		auth.POST("/logout", controller.Logout)

		// Protected routes (authentication required)
		protected := auth.Group("")
		protected.Use(middleware.JWTAuthWithConfig(cfg))
		{
			protected.PUT("/change-password", controller.ChangePassword)
			protected.GET("/me", controller.GetMe)
			protected.PATCH("/me/preferences", controller.UpdatePreferences)
		}
	}
}

/*
Auth Routes:

POST   /api/v1/auth/register          - Create an account (ADMIN_EMAILS are promoted)
POST   /api/v1/auth/login             - Exchange credentials for a token pair
POST   /api/v1/auth/refresh           - Rotate the token pair with a refresh token
POST   /api/v1/auth/logout            - Client-side logout acknowledgement
PUT    /api/v1/auth/change-password   - Change password (authenticated)
GET    /api/v1/auth/me                - Current account profile (authenticated)
PATCH  /api/v1/auth/me/preferences    - Toggle claim emails (authenticated)
*/
