package bookings

import (
	"autoclaim/internal/shared/config"
	"autoclaim/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupBookingRoutes configures all booking-related routes. parseLimit guards
// the extractor endpoint and may be nil.
func SetupBookingRoutes(rg *gin.RouterGroup, controller Controller, cfg *config.Config, parseLimit gin.HandlerFunc) {
	bookings := rg.Group("/bookings")
	bookings.Use(middleware.JWTAuthWithConfig(cfg), middleware.RequireRoles("USER", "ADMIN"))
	{
		parse := []gin.HandlerFunc{controller.ParseBooking}
		if parseLimit != nil {
			parse = append([]gin.HandlerFunc{parseLimit}, parse...)
		}
		bookings.POST("/parse", parse...)                           // POST /api/v1/bookings/parse
		bookings.GET("", controller.GetUserBookings)                // GET /api/v1/bookings
		bookings.GET("/:id", controller.GetBooking)                 // GET /api/v1/bookings/:id
		bookings.GET("/:id/eligibility", controller.GetEligibility) // GET /api/v1/bookings/:id/eligibility
	}
}

// Route definitions for reference:
//
// POST   /api/v1/bookings/parse                        - Parse a confirmation email and store the booking
// Request body: { "email_body": "...", "dry_run": false }
// A parse failure answers 422 with errors = { code, message, field, rawValue }
//
// GET    /api/v1/bookings?page=1&limit=10&pnr=ABC123   - List the caller's bookings
// GET    /api/v1/bookings/:id                          - Get one booking
// GET    /api/v1/bookings/:id/eligibility              - Evaluate eligibility now
