package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"unishare-hub/internal/api/middleware"
	"unishare-hub/internal/api/response"
	"unishare-hub/internal/model"
	"unishare-hub/internal/service"
)

type ListingHandler struct {
	listingService *service.ListingService
}

type createListingRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Category    string `json:"category" binding:"required"`
	PriceCents  int64  `json:"price_cents"`
}

type updateListingRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	PriceCents  *int64  `json:"price_cents"`
}

type setListingStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func NewListingHandler(listingService *service.ListingService) *ListingHandler {
	return &ListingHandler{
		listingService: listingService,
	}
}

func RegisterListingRoutes(group *gin.RouterGroup, listingService *service.ListingService) {
	if listingService == nil {
		return
	}

	handler := NewListingHandler(listingService)
	listings := group.Group("/listings")

	listings.GET("/", handler.List)
	listings.GET("/:id", handler.GetByID)

	listings.Use(middleware.JWTAuth())
	listings.POST("/", middleware.AuditLog("listing.create", "listing"), handler.Create)
	listings.PUT("/:id", middleware.AuditLog("listing.update", "listing"), handler.Update)
	listings.PATCH("/:id/status", middleware.AuditLog("listing.set_status", "listing"), handler.SetStatus)
	listings.DELETE("/:id", middleware.AuditLog("listing.delete", "listing"), handler.Delete)
}

// List
// @Summary List
// @Description Auto-generated endpoint documentation for List.
// @Tags listing
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/listings [get]
func (h *ListingHandler) List(c *gin.Context) {
	page := parseIntOrDefault(c.Query("page"), 1)
	pageSize := parseIntOrDefault(c.Query("page_size"), 20)

	items, total, err := h.listingService.List(c.Request.Context(), service.ListListingsQuery{
		Category: c.Query("category"),
		Keyword:  c.Query("q"),
		Status:   c.Query("status"),
		SellerID: c.Query("seller_id"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		handleListingServiceError(c, err)
		return
	}
	response.Paginated(c, items, page, pageSize, total)
}

// GetByID
// @Summary GetByID
// @Description Auto-generated endpoint documentation for GetByID.
// @Tags listing
// @Accept json
// @Produce json
// @Param id path string true "id"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/listings/{id} [get]
func (h *ListingHandler) GetByID(c *gin.Context) {
	item, err := h.listingService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleListingServiceError(c, err)
		return
	}
	response.Success(c, item)
}

// Create
// @Summary Create
// @Description Auto-generated endpoint documentation for Create.
// @Tags listing
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/listings [post]
func (h *ListingHandler) Create(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	var req createListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInternal, "invalid request")
		return
	}

	item, err := h.listingService.Create(c.Request.Context(), claims.UserID, service.CreateListingRequest{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		PriceCents:  req.PriceCents,
	})
	if err != nil {
		handleListingServiceError(c, err)
		return
	}

	response.Success(c, item)
}

// Update
// @Summary Update
// @Description Auto-generated endpoint documentation for Update.
// @Tags listing
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
// @Router /api/v1/listings/{id} [put]
func (h *ListingHandler) Update(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	var req updateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInternal, "invalid request")
		return
	}

	item, err := h.listingService.Update(c.Request.Context(), claims.UserID, model.UserRole(claims.Role), c.Param("id"), service.UpdateListingRequest{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		PriceCents:  req.PriceCents,
	})
	if err != nil {
		handleListingServiceError(c, err)
		return
	}

	response.Success(c, item)
}

// SetStatus
// @Summary SetStatus
// @Description Auto-generated endpoint documentation for SetStatus.
// @Tags listing
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
// @Router /api/v1/listings/{id}/status [patch]
func (h *ListingHandler) SetStatus(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	var req setListingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInternal, "invalid request")
		return
	}

	item, err := h.listingService.SetStatus(c.Request.Context(), claims.UserID, model.UserRole(claims.Role), c.Param("id"), req.Status)
	if err != nil {
		handleListingServiceError(c, err)
		return
	}

	response.Success(c, item)
}

// Delete
// @Summary Delete
// @Description Auto-generated endpoint documentation for Delete.
// @Tags listing
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
// @Router /api/v1/listings/{id} [delete]
func (h *ListingHandler) Delete(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	if err := h.listingService.Delete(c.Request.Context(), claims.UserID, model.UserRole(claims.Role), c.Param("id")); err != nil {
		handleListingServiceError(c, err)
		return
	}

	response.Success(c, gin.H{"deleted": true})
}

func handleListingServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrListingNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrListingNotFound, "listing not found")
	case errors.Is(err, service.ErrListingForbidden):
		response.Fail(c, http.StatusForbidden, response.ErrListingForbidden, "listing does not belong to user")
	case errors.Is(err, service.ErrInvalidListingReq),
		errors.Is(err, service.ErrInvalidUserID):
		response.Fail(c, http.StatusBadRequest, response.ErrInternal, "invalid request")
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "internal error")
	}
}
