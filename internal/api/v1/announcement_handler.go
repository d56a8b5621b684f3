package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"unishare-hub/internal/api/middleware"
	"unishare-hub/internal/api/response"
	"unishare-hub/internal/service"
)

type AnnouncementHandler struct {
	announcementService *service.AnnouncementService
}

type createAnnouncementRequest struct {
	Title     string  `json:"title" binding:"required"`
	Body      string  `json:"body" binding:"required"`
	Priority  string  `json:"priority"`
	Active    *bool   `json:"active"`
	ExpiresAt *string `json:"expires_at"`
}

type updateAnnouncementRequest struct {
	Title     *string `json:"title"`
	Body      *string `json:"body"`
	Priority  *string `json:"priority"`
	Active    *bool   `json:"active"`
	ExpiresAt *string `json:"expires_at"`
}

type toggleAnnouncementRequest struct {
	Active *bool `json:"active"`
}

func NewAnnouncementHandler(announcementService *service.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{
		announcementService: announcementService,
	}
}

func RegisterAnnouncementRoutes(group *gin.RouterGroup, announcementService *service.AnnouncementService) {
	if announcementService == nil {
		return
	}

	handler := NewAnnouncementHandler(announcementService)
	ann := group.Group("/announcements")

	ann.GET("/active", handler.ListActive)
	ann.GET("/latest", handler.Latest)

	ann.Use(middleware.JWTAuth())
	ann.GET("/notice", handler.Notice)
	ann.POST("/:id/dismiss", handler.Dismiss)
	ann.GET("/", middleware.RequireRole("admin"), handler.List)
	ann.GET("/:id", middleware.RequireRole("admin"), handler.GetByID)
	ann.POST("/", middleware.RequireRole("admin"), middleware.AuditLog("announcement.create", "announcement"), handler.Create)
	ann.PUT("/:id", middleware.RequireRole("admin"), middleware.AuditLog("announcement.update", "announcement"), handler.Update)
	ann.DELETE("/:id", middleware.RequireRole("admin"), middleware.AuditLog("announcement.delete", "announcement"), handler.Delete)
	ann.PATCH("/:id/toggle", middleware.RequireRole("admin"), middleware.AuditLog("announcement.toggle", "announcement"), handler.Toggle)
	ann.POST("/sync", middleware.RequireRole("admin"), middleware.AuditLog("announcement.sync", "announcement"), handler.Sync)
}

// ListActive
// @Summary ListActive
// @Description Auto-generated endpoint documentation for ListActive.
// @Tags announcement
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/announcements/active [get]
func (h *AnnouncementHandler) ListActive(c *gin.Context) {
	items, err := h.announcementService.ListActive(c.Request.Context())
	if err != nil {
		handleAnnouncementServiceError(c, err)
		return
	}
	response.Success(c, items)
}

// Latest
// @Summary Latest
// @Description Auto-generated endpoint documentation for Latest.
// @Tags announcement
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/announcements/latest [get]
func (h *AnnouncementHandler) Latest(c *gin.Context) {
	item, err := h.announcementService.Latest(c.Request.Context())
	if err != nil {
		handleAnnouncementServiceError(c, err)
		return
	}
	response.Success(c, item)
}

// Notice
// @Summary Notice
// @Description Auto-generated endpoint documentation for Notice.
// @Tags announcement
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/announcements/notice [get]
func (h *AnnouncementHandler) Notice(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	decision, err := h.announcementService.Notice(c.Request.Context(), claims.UserID)
	if err != nil {
		handleAnnouncementServiceError(c, err)
		return
	}
	response.Success(c, decision)
}

// Dismiss
// @Summary Dismiss
// @Description Auto-generated endpoint documentation for Dismiss.
// @Tags announcement
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
// @Router /api/v1/announcements/{id}/dismiss [post]
func (h *AnnouncementHandler) Dismiss(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	if err := h.announcementService.Dismiss(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		handleAnnouncementServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"dismissed": true})
}

// List
// @Summary List
// @Description Auto-generated endpoint documentation for List.
// @Tags announcement
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/announcements [get]
func (h *AnnouncementHandler) List(c *gin.Context) {
	page := parseIntOrDefault(c.Query("page"), 1)
	pageSize := parseIntOrDefault(c.Query("page_size"), 20)

	items, total, err := h.announcementService.List(c.Request.Context(), page, pageSize)
	if err != nil {
		handleAnnouncementServiceError(c, err)
		return
	}
	response.Paginated(c, items, page, pageSize, total)
}

// GetByID
// @Summary GetByID
// @Description Auto-generated endpoint documentation for GetByID.
// @Tags announcement
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
// @Router /api/v1/announcements/{id} [get]
func (h *AnnouncementHandler) GetByID(c *gin.Context) {
	item, err := h.announcementService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleAnnouncementServiceError(c, err)
		return
	}
	response.Success(c, item)
}

// Create
// @Summary Create
// @Description Auto-generated endpoint documentation for Create.
// @Tags announcement
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/announcements [post]
func (h *AnnouncementHandler) Create(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	var req createAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInternal, "invalid request")
		return
	}

	expiresAt, err := parseAnnouncementTime(req.ExpiresAt)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInternal, "invalid expires_at")
		return
	}

	item, err := h.announcementService.Create(c.Request.Context(), claims.UserID, service.CreateAnnouncementRequest{
		Title:     req.Title,
		Body:      req.Body,
		Priority:  req.Priority,
		Active:    req.Active,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		handleAnnouncementServiceError(c, err)
		return
	}

	response.Success(c, item)
}

// Update
// @Summary Update
// @Description Auto-generated endpoint documentation for Update.
// @Tags announcement
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
// @Router /api/v1/announcements/{id} [put]
func (h *AnnouncementHandler) Update(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	var req updateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInternal, "invalid request")
		return
	}

	expiresAt, err := parseAnnouncementTime(req.ExpiresAt)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInternal, "invalid expires_at")
		return
	}

	item, err := h.announcementService.Update(c.Request.Context(), claims.UserID, c.Param("id"), service.UpdateAnnouncementRequest{
		Title:     req.Title,
		Body:      req.Body,
		Priority:  req.Priority,
		Active:    req.Active,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		handleAnnouncementServiceError(c, err)
		return
	}

	response.Success(c, item)
}

// Delete
// @Summary Delete
// @Description Auto-generated endpoint documentation for Delete.
// @Tags announcement
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
// @Router /api/v1/announcements/{id} [delete]
func (h *AnnouncementHandler) Delete(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	if err := h.announcementService.Delete(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		handleAnnouncementServiceError(c, err)
		return
	}

	response.Success(c, gin.H{"deleted": true})
}

// Toggle
// @Summary Toggle
// @Description Auto-generated endpoint documentation for Toggle.
// @Tags announcement
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
// @Router /api/v1/announcements/{id}/toggle [patch]
func (h *AnnouncementHandler) Toggle(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	var req toggleAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Active == nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInternal, "invalid request")
		return
	}

	item, err := h.announcementService.Toggle(c.Request.Context(), claims.UserID, c.Param("id"), *req.Active)
	if err != nil {
		handleAnnouncementServiceError(c, err)
		return
	}

	response.Success(c, item)
}

// Sync
// @Summary Sync
// @Description Auto-generated endpoint documentation for Sync.
// @Tags announcement
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/announcements/sync [post]
func (h *AnnouncementHandler) Sync(c *gin.Context) {
	synced, err := h.announcementService.SyncFromFeed(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusBadGateway, response.ErrFeedUnavailable, "feed unavailable")
		return
	}
	response.Success(c, gin.H{"synced": synced})
}

func parseAnnouncementTime(raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	value := *raw
	if value == "" {
		return nil, nil
	}

	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	utc := ts.UTC()
	return &utc, nil
}

func handleAnnouncementServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAnnouncementNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrAnnouncementNotFound, "announcement not found")
	case errors.Is(err, service.ErrNoAnnouncement):
		response.Fail(c, http.StatusNotFound, response.ErrAnnouncementNotFound, "no announcement available")
	case errors.Is(err, service.ErrInvalidAnnouncementReq),
		errors.Is(err, service.ErrInvalidUserID):
		response.Fail(c, http.StatusBadRequest, response.ErrInternal, "invalid request")
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "internal error")
	}
}
