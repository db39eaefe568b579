package bookings

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"autoclaim/internal/extractor"
	"autoclaim/internal/shared/middleware"
	"autoclaim/internal/shared/utils/response"
)

type Controller interface {
	ParseBooking(c *gin.Context)
	GetBooking(c *gin.Context)
	GetUserBookings(c *gin.Context)
	GetEligibility(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

// ParseBooking handles POST /api/v1/bookings/parse
func (ctrl *controller) ParseBooking(c *gin.Context) {
	userID, err := middleware.UserID(c)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	var req ParseBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	resp, err := ctrl.service.ParseAndCreate(c.Request.Context(), userID, req)
	if err != nil {
		if pe, ok := extractor.AsParseError(err); ok {
			response.RespondJSON(c, "error", http.StatusUnprocessableEntity, pe.Message, nil, pe)
			return
		}
		if errors.Is(err, ErrDuplicateBooking) {
			response.RespondJSON(c, "error", http.StatusConflict, err.Error(), nil, nil)
			return
		}
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to store booking", nil, nil)
		return
	}

	if req.DryRun {
		response.RespondJSON(c, "success", http.StatusOK, "Booking parsed successfully", resp, nil)
		return
	}
	response.RespondJSON(c, "success", http.StatusCreated, "Booking created successfully", resp, nil)
}

// GetBooking handles GET /api/v1/bookings/:id
func (ctrl *controller) GetBooking(c *gin.Context) {
	userID, bookingID, ok := ctrl.ids(c)
	if !ok {
		return
	}

	booking, err := ctrl.service.GetBooking(c.Request.Context(), userID, bookingID)
	if err != nil {
		respondLookupError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Booking retrieved successfully", booking, nil)
}

// GetUserBookings handles GET /api/v1/bookings
func (ctrl *controller) GetUserBookings(c *gin.Context) {
	userID, err := middleware.UserID(c)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	var query BookingListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	bookings, err := ctrl.service.GetUserBookings(c.Request.Context(), userID, query)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to get bookings", nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Bookings retrieved successfully", bookings, nil)
}

// GetEligibility handles GET /api/v1/bookings/:id/eligibility
func (ctrl *controller) GetEligibility(c *gin.Context) {
	userID, bookingID, ok := ctrl.ids(c)
	if !ok {
		return
	}

	status, err := ctrl.service.GetEligibility(c.Request.Context(), userID, bookingID)
	if err != nil {
		respondLookupError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Eligibility evaluated successfully", status, nil)
}

func (ctrl *controller) ids(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, err := middleware.UserID(c)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return uuid.Nil, uuid.Nil, false
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return uuid.Nil, uuid.Nil, false
	}
	return userID, bookingID, true
}

func respondLookupError(c *gin.Context, err error) {
	if errors.Is(err, ErrBookingNotFound) {
		response.RespondJSON(c, "error", http.StatusNotFound, "Booking not found", nil, nil)
		return
	}
	response.RespondJSON(c, "error", http.StatusInternalServerError, err.Error(), nil, nil)
}
