package autoclaim

import (
	"autoclaim/internal/shared/config"
	"autoclaim/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupPipelineRoutes configures the admin-only pipeline controls.
func SetupPipelineRoutes(rg *gin.RouterGroup, controller Controller, cfg *config.Config) {
	admin := rg.Group("/admin/pipeline")
	admin.Use(middleware.JWTAuthWithConfig(cfg), middleware.RequireAdmin())
	{
		admin.POST("/sweep", controller.RunSweep)           // POST /api/v1/admin/pipeline/sweep
		admin.POST("/refresh-feed", controller.RefreshFeed) // POST /api/v1/admin/pipeline/refresh-feed
		admin.GET("/status", controller.GetStatus)          // GET /api/v1/admin/pipeline/status
	}
}

// Route definitions for reference:
//
// POST /api/v1/admin/pipeline/sweep        - Run one evaluation sweep and deadline check now
// POST /api/v1/admin/pipeline/refresh-feed - Pull the real-time feed now
// GET  /api/v1/admin/pipeline/status       - Job schedule, last runs and last sweep stats
