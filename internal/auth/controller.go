package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"autoclaim/internal/shared/middleware"
	"autoclaim/internal/shared/utils/response"
)

type Controller interface {
	Register(c *gin.Context)
	Login(c *gin.Context)
	RefreshToken(c *gin.Context)
	Logout(c *gin.Context)
	ChangePassword(c *gin.Context)
	GetMe(c *gin.Context)
	UpdatePreferences(c *gin.Context)
}

type controller struct {
	service   Service
	validator *validator.Validate
}

func NewController(service Service) Controller {
	return &controller{
		service:   service,
		validator: validator.New(),
	}
}

// authFailure maps service errors onto a status and a message that does not
// reveal whether an account exists.
func authFailure(err error, fallback string) (int, string) {
	switch {
	case errors.Is(err, ErrUserAlreadyExists):
		return http.StatusConflict, "An account with this email already exists"
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password"
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrTokenExpired):
		return http.StatusUnauthorized, "Invalid or expired refresh token"
	case errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound, "Account not found"
	default:
		return http.StatusInternalServerError, fallback
	}
}

// bind decodes and validates the body, writing the 400 itself on failure.
func (ctrl *controller) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return false
	}
	if err := ctrl.validator.Struct(req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return false
	}
	return true
}

func (ctrl *controller) Register(c *gin.Context) {
	var req RegisterRequest
	if !ctrl.bind(c, &req) {
		return
	}

	resp, err := ctrl.service.Register(c.Request.Context(), &req)
	if err != nil {
		code, msg := authFailure(err, "Failed to register")
		response.RespondJSON(c, "error", code, msg, nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Account created", resp, nil)
}

func (ctrl *controller) Login(c *gin.Context) {
	var req LoginRequest
	if !ctrl.bind(c, &req) {
		return
	}

	resp, err := ctrl.service.Login(c.Request.Context(), &req)
	if err != nil {
		code, msg := authFailure(err, "Failed to login")
		response.RespondJSON(c, "error", code, msg, nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Login successful", resp, nil)
}

func (ctrl *controller) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if !ctrl.bind(c, &req) {
		return
	}

	pair, err := ctrl.service.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		code, msg := authFailure(err, "Failed to refresh token")
		if errors.Is(err, ErrUserNotFound) {
			code = http.StatusUnauthorized
		}
		response.RespondJSON(c, "error", code, msg, nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Token refreshed", pair, nil)
}

// Logout is stateless; the client discards its tokens.
func (ctrl *controller) Logout(c *gin.Context) {
	response.RespondJSON(c, "success", http.StatusOK, "Logged out", nil, nil)
}

func (ctrl *controller) ChangePassword(c *gin.Context) {
	userID, err := middleware.UserID(c)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	var req ChangePasswordRequest
	if !ctrl.bind(c, &req) {
		return
	}

	if err := ctrl.service.ChangePassword(c.Request.Context(), userID.String(), &req); err != nil {
		code, msg := authFailure(err, "Failed to change password")
		if errors.Is(err, ErrInvalidCredentials) {
			msg = "Current password is incorrect"
		}
		response.RespondJSON(c, "error", code, msg, nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Password changed", nil, nil)
}

func (ctrl *controller) GetMe(c *gin.Context) {
	userID, err := middleware.UserID(c)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	profile, err := ctrl.service.GetProfile(c.Request.Context(), userID.String())
	if err != nil {
		code, msg := authFailure(err, "Failed to load account")
		response.RespondJSON(c, "error", code, msg, nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Account retrieved", profile, nil)
}

func (ctrl *controller) UpdatePreferences(c *gin.Context) {
	userID, err := middleware.UserID(c)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	var req UpdatePreferencesRequest
	if !ctrl.bind(c, &req) {
		return
	}

	profile, err := ctrl.service.UpdatePreferences(c.Request.Context(), userID.String(), &req)
	if err != nil {
		code, msg := authFailure(err, "Failed to update preferences")
		response.RespondJSON(c, "error", code, msg, nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Preferences updated", profile, nil)
}
