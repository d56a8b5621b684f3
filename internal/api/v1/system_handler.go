package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"unishare-hub/internal/api/middleware"
	"unishare-hub/internal/api/response"
	"unishare-hub/internal/service"
	systemlog "unishare-hub/pkg/logger"
)

type SystemHandler struct {
	systemService *service.SystemService
}

func NewSystemHandler(systemService *service.SystemService) *SystemHandler {
	return &SystemHandler{
		systemService: systemService,
	}
}

func RegisterSystemRoutes(group *gin.RouterGroup, systemService *service.SystemService) {
	if systemService == nil {
		return
	}

	handler := NewSystemHandler(systemService)
	system := group.Group("/system")
	system.Use(middleware.JWTAuth(), middleware.RequireRole("admin"))
	system.GET("/stats", handler.Stats)
	system.GET("/logs", handler.QueryLogs)
}

// Stats
// @Summary Stats
// @Description Auto-generated endpoint documentation for Stats.
// @Tags system
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/system/stats [get]
func (h *SystemHandler) Stats(c *gin.Context) {
	stats, err := h.systemService.Stats(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "internal error")
		return
	}
	response.Success(c, stats)
}

// QueryLogs
// @Summary QueryLogs
// @Description Auto-generated endpoint documentation for QueryLogs.
// @Tags system
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/system/logs [get]
func (h *SystemHandler) QueryLogs(c *gin.Context) {
	page := parseIntOrDefault(c.Query("page"), 1)
	pageSize := parseIntOrDefault(c.Query("page_size"), 100)

	query := systemlog.LogQuery{
		Level:    c.Query("level"),
		Keyword:  c.Query("q"),
		Page:     page,
		PageSize: pageSize,
	}

	if raw := c.Query("from"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInternal, "invalid from")
			return
		}
		query.From = ts.UTC()
	}
	if raw := c.Query("to"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInternal, "invalid to")
			return
		}
		query.To = ts.UTC()
	}

	entries, total := h.systemService.QueryLogs(query)
	response.Paginated(c, entries, page, pageSize, total)
}
