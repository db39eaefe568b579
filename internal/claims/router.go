package claims

import (
	"autoclaim/internal/shared/config"
	"autoclaim/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupClaimRoutes configures all claim-related routes. submitLimit may be
// nil.
func SetupClaimRoutes(rg *gin.RouterGroup, controller Controller, cfg *config.Config, submitLimit gin.HandlerFunc) {
	claims := rg.Group("/claims")
	claims.Use(middleware.JWTAuthWithConfig(cfg), middleware.RequireRoles("USER", "ADMIN"))
	{
		submit := []gin.HandlerFunc{controller.SubmitClaim}
		if submitLimit != nil {
			submit = append([]gin.HandlerFunc{submitLimit}, submit...)
		}
		claims.GET("", controller.ListClaims)   // GET /api/v1/claims
		claims.GET("/:id", controller.GetClaim) // GET /api/v1/claims/:id
		claims.POST("/:id/submit", submit...)   // POST /api/v1/claims/:id/submit
	}

	admin := rg.Group("/admin/claims")
	admin.Use(middleware.JWTAuthWithConfig(cfg), middleware.RequireAdmin())
	{
		admin.PATCH("/:id/status", controller.ResolveClaim) // PATCH /api/v1/admin/claims/:id/status
	}
}

// Route definitions for reference:
//
// GET    /api/v1/claims?status=eligible&page=1&limit=10 - List the caller's claims
// GET    /api/v1/claims/:id                             - Claim with formData and portalUrl
// POST   /api/v1/claims/:id/submit                      - Mark as filed; only from eligible, otherwise 409
// PATCH  /api/v1/admin/claims/:id/status                - Record approved or rejected
// Request body: { "status": "approved" }
