package v1

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"unishare-hub/internal/api/middleware"
	"unishare-hub/internal/api/response"
	"unishare-hub/internal/model"
	"unishare-hub/internal/repository"
	"unishare-hub/internal/service"
)

type UserHandler struct {
	userService *service.UserService
}

type updateProfileRequest struct {
	Email       *string `json:"email"`
	DisplayName *string `json:"display_name"`
	Campus      *string `json:"campus"`
}

type setUserStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

func RegisterUserRoutes(group *gin.RouterGroup, userService *service.UserService) {
	if userService == nil {
		return
	}

	handler := NewUserHandler(userService)
	users := group.Group("/users")
	users.Use(middleware.JWTAuth())

	users.GET("/me", handler.Me)
	users.PUT("/me", middleware.AuditLog("user.update_profile", "user"), handler.UpdateProfile)
	users.GET("/:id", middleware.RequireRole("admin"), handler.GetByID)
	users.PATCH("/:id/status", middleware.RequireRole("admin"), middleware.AuditLog("user.set_status", "user"), handler.SetStatus)
}

// Me
// @Summary Me
// @Description Auto-generated endpoint documentation for Me.
// @Tags user
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		handleUserServiceError(c, err)
		return
	}
	response.Success(c, user)
}

// UpdateProfile
// @Summary UpdateProfile
// @Description Auto-generated endpoint documentation for UpdateProfile.
// @Tags user
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/users/me [put]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInternal, "invalid request")
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), claims.UserID, service.UpdateProfileRequest{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Campus:      req.Campus,
	})
	if err != nil {
		handleUserServiceError(c, err)
		return
	}
	response.Success(c, user)
}

// GetByID
// @Summary GetByID
// @Description Auto-generated endpoint documentation for GetByID.
// @Tags user
// @Accept json
// @Produce json
// @Param id path string true "id"
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/users/{id} [get]
func (h *UserHandler) GetByID(c *gin.Context) {
	user, err := h.userService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleUserServiceError(c, err)
		return
	}
	response.Success(c, user)
}

// SetStatus
// @Summary SetStatus
// @Description Auto-generated endpoint documentation for SetStatus.
// @Tags user
// @Accept json
// @Produce json
// @Param id path string true "id"
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/users/{id}/status [patch]
func (h *UserHandler) SetStatus(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	var req setUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInternal, "invalid request")
		return
	}

	status, ok := parseUserStatus(req.Status)
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInternal, "invalid status")
		return
	}

	if err := h.userService.SetStatus(c.Request.Context(), claims.UserID, c.Param("id"), status); err != nil {
		handleUserServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"status": status})
}

func parseUserStatus(raw string) (model.UserStatus, bool) {
	switch model.UserStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case model.UserStatusNormal:
		return model.UserStatusNormal, true
	case model.UserStatusSuspended:
		return model.UserStatusSuspended, true
	case model.UserStatusBanned:
		return model.UserStatusBanned, true
	default:
		return "", false
	}
}

func handleUserServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrUserNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrUserNotFound, "user not found")
	case errors.Is(err, service.ErrSelfBanForbidden):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden, "cannot change own status")
	case errors.Is(err, service.ErrInvalidUserID),
		errors.Is(err, service.ErrInvalidUserInput):
		response.Fail(c, http.StatusBadRequest, response.ErrInternal, "invalid request")
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "internal error")
	}
}

func parseIntOrDefault(raw string, def int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		return def
	}
	return value
}
