package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"unishare-hub/internal/api/middleware"
	"unishare-hub/internal/api/response"
	"unishare-hub/internal/model"
	"unishare-hub/internal/service"
)

type LostFoundHandler struct {
	lostFoundService *service.LostFoundService
}

type createReportRequest struct {
	Kind        string `json:"kind" binding:"required"`
	Item        string `json:"item" binding:"required"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

type resolveCaseRequest struct {
	CaseCode string `json:"case_code" binding:"required"`
}

func NewLostFoundHandler(lostFoundService *service.LostFoundService) *LostFoundHandler {
	return &LostFoundHandler{
		lostFoundService: lostFoundService,
	}
}

func RegisterLostFoundRoutes(group *gin.RouterGroup, lostFoundService *service.LostFoundService) {
	if lostFoundService == nil {
		return
	}

	handler := NewLostFoundHandler(lostFoundService)
	reports := group.Group("/lost-found")

	reports.GET("/", handler.List)
	reports.GET("/:id", handler.GetByID)
	// The case code is read out in person at the desk, so resolution takes
	// the code, not an id, and stays open to desk staff without a session.
	reports.POST("/resolve", middleware.RateLimit("ip", 10, time.Minute), handler.Resolve)

	reports.Use(middleware.JWTAuth())
	reports.POST("/", middleware.AuditLog("lostfound.create", "lost_found_report"), handler.Create)
	reports.POST("/:id/close", middleware.AuditLog("lostfound.close", "lost_found_report"), handler.Close)
}

// List
// @Summary List
// @Description Auto-generated endpoint documentation for List.
// @Tags lostfound
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/lost-found [get]
func (h *LostFoundHandler) List(c *gin.Context) {
	page := parseIntOrDefault(c.Query("page"), 1)
	pageSize := parseIntOrDefault(c.Query("page_size"), 20)

	items, total, err := h.lostFoundService.List(
		c.Request.Context(),
		c.Query("kind"),
		c.Query("status"),
		c.Query("q"),
		page,
		pageSize,
	)
	if err != nil {
		handleLostFoundServiceError(c, err)
		return
	}
	response.Paginated(c, items, page, pageSize, total)
}

// GetByID
// @Summary GetByID
// @Description Auto-generated endpoint documentation for GetByID.
// @Tags lostfound
// @Accept json
// @Produce json
// @Param id path string true "id"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/lost-found/{id} [get]
func (h *LostFoundHandler) GetByID(c *gin.Context) {
	report, err := h.lostFoundService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleLostFoundServiceError(c, err)
		return
	}
	response.Success(c, report)
}

// Create
// @Summary Create
// @Description Auto-generated endpoint documentation for Create.
// @Tags lostfound
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/lost-found [post]
func (h *LostFoundHandler) Create(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	var req createReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInternal, "invalid request")
		return
	}

	report, err := h.lostFoundService.Create(c.Request.Context(), claims.UserID, service.CreateReportRequest{
		Kind:        req.Kind,
		Item:        req.Item,
		Description: req.Description,
		Location:    req.Location,
	})
	if err != nil {
		handleLostFoundServiceError(c, err)
		return
	}

	response.Success(c, report)
}

// Resolve
// @Summary Resolve
// @Description Auto-generated endpoint documentation for Resolve.
// @Tags lostfound
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/lost-found/resolve [post]
func (h *LostFoundHandler) Resolve(c *gin.Context) {
	var req resolveCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInternal, "invalid request")
		return
	}

	report, err := h.lostFoundService.ResolveByCaseCode(c.Request.Context(), req.CaseCode)
	if err != nil {
		handleLostFoundServiceError(c, err)
		return
	}

	response.Success(c, report)
}

// Close
// @Summary Close
// @Description Auto-generated endpoint documentation for Close.
// @Tags lostfound
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
// @Router /api/v1/lost-found/{id}/close [post]
func (h *LostFoundHandler) Close(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	report, err := h.lostFoundService.Close(c.Request.Context(), claims.UserID, model.UserRole(claims.Role), c.Param("id"))
	if err != nil {
		handleLostFoundServiceError(c, err)
		return
	}

	response.Success(c, report)
}

func handleLostFoundServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrReportNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrItemNotFound, "report not found")
	case errors.Is(err, service.ErrCaseCodeNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrCaseNotFound, "case code not found")
	case errors.Is(err, service.ErrReportNotOpen):
		response.Fail(c, http.StatusConflict, response.ErrCaseNotFound, "report is not open")
	case errors.Is(err, service.ErrLostFoundForbidden):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden, "forbidden")
	case errors.Is(err, service.ErrInvalidReportReq),
		errors.Is(err, service.ErrInvalidUserID):
		response.Fail(c, http.StatusBadRequest, response.ErrInternal, "invalid request")
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "internal error")
	}
}
