package claims

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"autoclaim/internal/shared/middleware"
	"autoclaim/internal/shared/utils/response"
)

type Controller interface {
	ListClaims(c *gin.Context)
	GetClaim(c *gin.Context)
	SubmitClaim(c *gin.Context)
	ResolveClaim(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

// ListClaims handles GET /api/v1/claims
func (ctrl *controller) ListClaims(c *gin.Context) {
	userID, err := middleware.UserID(c)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	var query ClaimListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	claims, err := ctrl.service.ListClaims(c.Request.Context(), userID, query)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to list claims", nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Claims retrieved successfully", claims, nil)
}

// GetClaim handles GET /api/v1/claims/:id
func (ctrl *controller) GetClaim(c *gin.Context) {
	userID, claimID, ok := ids(c)
	if !ok {
		return
	}

	claim, err := ctrl.service.GetClaim(c.Request.Context(), userID, claimID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Claim retrieved successfully", claim, nil)
}

// SubmitClaim handles POST /api/v1/claims/:id/submit
func (ctrl *controller) SubmitClaim(c *gin.Context) {
	userID, claimID, ok := ids(c)
	if !ok {
		return
	}

	claim, err := ctrl.service.SubmitClaim(c.Request.Context(), userID, claimID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Claim marked as submitted", claim, nil)
}

// ResolveClaim handles PATCH /api/v1/admin/claims/:id/status
func (ctrl *controller) ResolveClaim(c *gin.Context) {
	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid claim ID", nil, err.Error())
		return
	}

	var req ResolveClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	claim, err := ctrl.service.ResolveClaim(c.Request.Context(), claimID, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Claim status updated", claim, nil)
}

func ids(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, err := middleware.UserID(c)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return uuid.Nil, uuid.Nil, false
	}

	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid claim ID", nil, err.Error())
		return uuid.Nil, uuid.Nil, false
	}
	return userID, claimID, true
}

func respondError(c *gin.Context, err error) {
	var invalid *InvalidTransitionError
	switch {
	case errors.Is(err, ErrClaimNotFound):
		response.RespondJSON(c, "error", http.StatusNotFound, "Claim not found", nil, nil)
	case errors.As(err, &invalid):
		response.RespondJSON(c, "error", http.StatusConflict, err.Error(), nil, gin.H{
			"from": invalid.From,
			"to":   invalid.To,
		})
	case errors.Is(err, ErrStatusConflict):
		response.RespondJSON(c, "error", http.StatusConflict, err.Error(), nil, nil)
	case errors.Is(err, ErrDeadlinePassed):
		response.RespondJSON(c, "error", http.StatusConflict, "Claim deadline has passed", nil, nil)
	default:
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to process claim", nil, nil)
	}
}
