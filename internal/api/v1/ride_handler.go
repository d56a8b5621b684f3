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

type RideHandler struct {
	rideService *service.RideService
}

type createRideRequest struct {
	Origin      string `json:"origin" binding:"required"`
	Destination string `json:"destination" binding:"required"`
	DepartsAt   string `json:"departs_at" binding:"required"`
	SeatsTotal  int    `json:"seats_total" binding:"required"`
}

type requestSeatRequest struct {
	Note string `json:"note"`
}

type decideRequestRequest struct {
	Accept *bool `json:"accept"`
}

func NewRideHandler(rideService *service.RideService) *RideHandler {
	return &RideHandler{
		rideService: rideService,
	}
}

func RegisterRideRoutes(group *gin.RouterGroup, rideService *service.RideService) {
	if rideService == nil {
		return
	}

	handler := NewRideHandler(rideService)
	rides := group.Group("/rides")

	rides.GET("/", handler.List)

	rides.Use(middleware.JWTAuth())
	rides.GET("/requests/mine", handler.ListMyRequests)
	rides.GET("/:id", handler.GetByID)
	rides.POST("/", middleware.AuditLog("ride.create", "ride"), handler.Create)
	rides.DELETE("/:id", middleware.AuditLog("ride.cancel", "ride"), handler.Cancel)
	rides.POST("/:id/requests", handler.RequestSeat)
	rides.GET("/:id/requests", handler.ListRequests)
	rides.POST("/requests/:request_id/decide", middleware.AuditLog("ride.decide", "ride_request"), handler.Decide)
	rides.DELETE("/requests/:request_id", handler.CancelRequest)
}

// List
// @Summary List
// @Description Auto-generated endpoint documentation for List.
// @Tags ride
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/rides [get]
func (h *RideHandler) List(c *gin.Context) {
	page := parseIntOrDefault(c.Query("page"), 1)
	pageSize := parseIntOrDefault(c.Query("page_size"), 20)

	var departsAfter *time.Time
	if raw := c.Query("departs_after"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInternal, "invalid departs_after")
			return
		}
		utc := ts.UTC()
		departsAfter = &utc
	}

	items, total, err := h.rideService.List(
		c.Request.Context(),
		c.Query("status"),
		c.Query("driver_id"),
		departsAfter,
		page,
		pageSize,
	)
	if err != nil {
		handleRideServiceError(c, err)
		return
	}
	response.Paginated(c, items, page, pageSize, total)
}

// GetByID
// @Summary GetByID
// @Description Auto-generated endpoint documentation for GetByID.
// @Tags ride
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
// @Router /api/v1/rides/{id} [get]
func (h *RideHandler) GetByID(c *gin.Context) {
	ride, err := h.rideService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleRideServiceError(c, err)
		return
	}
	response.Success(c, ride)
}

// Create
// @Summary Create
// @Description Auto-generated endpoint documentation for Create.
// @Tags ride
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/rides [post]
func (h *RideHandler) Create(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	var req createRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInternal, "invalid request")
		return
	}

	departsAt, err := time.Parse(time.RFC3339, req.DepartsAt)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInternal, "invalid departs_at")
		return
	}

	ride, err := h.rideService.Create(c.Request.Context(), claims.UserID, service.CreateRideRequest{
		Origin:      req.Origin,
		Destination: req.Destination,
		DepartsAt:   departsAt.UTC(),
		SeatsTotal:  req.SeatsTotal,
	})
	if err != nil {
		handleRideServiceError(c, err)
		return
	}

	response.Success(c, ride)
}

// Cancel
// @Summary Cancel
// @Description Auto-generated endpoint documentation for Cancel.
// @Tags ride
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
// @Router /api/v1/rides/{id} [delete]
func (h *RideHandler) Cancel(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	if err := h.rideService.Cancel(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		handleRideServiceError(c, err)
		return
	}

	response.Success(c, gin.H{"cancelled": true})
}

// RequestSeat
// @Summary RequestSeat
// @Description Auto-generated endpoint documentation for RequestSeat.
// @Tags ride
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
// @Router /api/v1/rides/{id}/requests [post]
func (h *RideHandler) RequestSeat(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	// The note is optional and so is the body.
	var req requestSeatRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInternal, "invalid request")
			return
		}
	}

	request, err := h.rideService.RequestSeat(c.Request.Context(), claims.UserID, c.Param("id"), req.Note)
	if err != nil {
		handleRideServiceError(c, err)
		return
	}

	response.Success(c, request)
}

// ListRequests
// @Summary ListRequests
// @Description Auto-generated endpoint documentation for ListRequests.
// @Tags ride
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
// @Router /api/v1/rides/{id}/requests [get]
func (h *RideHandler) ListRequests(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	requests, err := h.rideService.ListRequests(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		handleRideServiceError(c, err)
		return
	}
	response.Success(c, requests)
}

// ListMyRequests
// @Summary ListMyRequests
// @Description Auto-generated endpoint documentation for ListMyRequests.
// @Tags ride
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/rides/requests/mine [get]
func (h *RideHandler) ListMyRequests(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	requests, err := h.rideService.ListMyRequests(c.Request.Context(), claims.UserID)
	if err != nil {
		handleRideServiceError(c, err)
		return
	}
	response.Success(c, requests)
}

// Decide
// @Summary Decide
// @Description Auto-generated endpoint documentation for Decide.
// @Tags ride
// @Accept json
// @Produce json
// @Param request_id path string true "request_id"
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/rides/requests/{request_id}/decide [post]
func (h *RideHandler) Decide(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	var req decideRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Accept == nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInternal, "invalid request")
		return
	}

	request, err := h.rideService.Decide(c.Request.Context(), claims.UserID, c.Param("request_id"), *req.Accept)
	if err != nil {
		handleRideServiceError(c, err)
		return
	}

	response.Success(c, request)
}

// CancelRequest
// @Summary CancelRequest
// @Description Auto-generated endpoint documentation for CancelRequest.
// @Tags ride
// @Accept json
// @Produce json
// @Param request_id path string true "request_id"
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/rides/requests/{request_id} [delete]
func (h *RideHandler) CancelRequest(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	request, err := h.rideService.CancelRequest(c.Request.Context(), claims.UserID, c.Param("request_id"))
	if err != nil {
		handleRideServiceError(c, err)
		return
	}

	response.Success(c, request)
}

func handleRideServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRideNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrRideNotFound, "ride not found")
	case errors.Is(err, service.ErrRideRequestNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrRequestNotFound, "ride request not found")
	case errors.Is(err, service.ErrRideFull):
		response.Fail(c, http.StatusConflict, response.ErrRideFull, "ride has no free seats")
	case errors.Is(err, service.ErrRideClosed):
		response.Fail(c, http.StatusConflict, response.ErrRideClosed, "ride is not open")
	case errors.Is(err, service.ErrDuplicateRequest):
		response.Fail(c, http.StatusConflict, response.ErrRequestDuplicate, "request already exists")
	case errors.Is(err, service.ErrRequestNotPending):
		response.Fail(c, http.StatusConflict, response.ErrRequestNotFound, "request already decided")
	case errors.Is(err, service.ErrRideForbidden):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden, "forbidden")
	case errors.Is(err, service.ErrInvalidRideReq),
		errors.Is(err, service.ErrInvalidUserID):
		response.Fail(c, http.StatusBadRequest, response.ErrInternal, "invalid request")
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "internal error")
	}
}
