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

type AuditHandler struct {
	auditService *service.AuditService
}

func NewAuditHandler(auditService *service.AuditService) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
	}
}

func RegisterAuditRoutes(group *gin.RouterGroup, auditService *service.AuditService) {
	if auditService == nil {
		return
	}

	handler := NewAuditHandler(auditService)
	audit := group.Group("/audit-logs")
	audit.Use(middleware.JWTAuth(), middleware.RequireRole("admin"))
	audit.GET("/", handler.List)
}

// List
// @Summary List
// @Description Auto-generated endpoint documentation for List.
// @Tags audit
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/audit-logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	page := parseIntOrDefault(c.Query("page"), 1)
	pageSize := parseIntOrDefault(c.Query("page_size"), 50)

	from, err := parseQueryTime(c.Query("from"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInternal, "invalid from")
		return
	}
	to, err := parseQueryTime(c.Query("to"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInternal, "invalid to")
		return
	}

	items, err := h.auditService.List(c.Request.Context(), service.AuditQuery{
		UserID:       c.Query("user_id"),
		ResourceType: c.Query("resource_type"),
		From:         from,
		To:           to,
		Page:         page,
		PageSize:     pageSize,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidAuditInput) || errors.Is(err, service.ErrInvalidUserID) {
			response.Fail(c, http.StatusBadRequest, response.ErrInternal, "invalid request")
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "internal error")
		return
	}

	response.Success(c, items)
}

func parseQueryTime(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	utc := ts.UTC()
	return &utc, nil
}
