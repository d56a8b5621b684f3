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

type FeedbackHandler struct {
	feedbackService *service.FeedbackService
}

type submitFeedbackRequest struct {
	Type    string `json:"type" binding:"required"`
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required"`
	Subject string `json:"subject"`
	Message string `json:"message"`
	Rating  *int   `json:"rating"`
}

func NewFeedbackHandler(feedbackService *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{
		feedbackService: feedbackService,
	}
}

func RegisterFeedbackRoutes(group *gin.RouterGroup, feedbackService *service.FeedbackService) {
	if feedbackService == nil {
		return
	}

	handler := NewFeedbackHandler(feedbackService)
	feedback := group.Group("/feedback")

	// Submission is open to anonymous visitors; claims are attached when a
	// session exists so the entry can be tied to its author.
	feedback.POST(
		"/",
		middleware.OptionalJWTAuth(),
		middleware.RateLimit("ip", 10, time.Minute),
		handler.Submit,
	)

	feedback.GET("/", middleware.JWTAuth(), middleware.RequireRole("admin"), handler.List)
	feedback.POST("/drain", middleware.JWTAuth(), middleware.RequireRole("admin"), middleware.AuditLog("feedback.drain", "feedback"), handler.Drain)
}

// Submit
// @Summary Submit
// @Description Auto-generated endpoint documentation for Submit.
// @Tags feedback
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/feedback [post]
func (h *FeedbackHandler) Submit(c *gin.Context) {
	var req submitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFeedbackRejected, "invalid request")
		return
	}

	var userID *string
	if claims, ok := middleware.GetClaims(c); ok {
		userID = &claims.UserID
	}

	entry, err := h.feedbackService.Submit(c.Request.Context(), userID, service.SubmitFeedbackRequest{
		Type:    req.Type,
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
		Rating:  req.Rating,
	})
	if err != nil {
		handleFeedbackServiceError(c, err)
		return
	}

	response.Success(c, entry)
}

// List
// @Summary List
// @Description Auto-generated endpoint documentation for List.
// @Tags feedback
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/feedback [get]
func (h *FeedbackHandler) List(c *gin.Context) {
	page := parseIntOrDefault(c.Query("page"), 1)
	pageSize := parseIntOrDefault(c.Query("page_size"), 20)

	items, total, err := h.feedbackService.List(
		c.Request.Context(),
		c.Query("type"),
		c.Query("status"),
		page,
		pageSize,
	)
	if err != nil {
		handleFeedbackServiceError(c, err)
		return
	}
	response.Paginated(c, items, page, pageSize, total)
}

// Drain
// @Summary Drain
// @Description Auto-generated endpoint documentation for Drain.
// @Tags feedback
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Security ApiKeyAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/feedback/drain [post]
func (h *FeedbackHandler) Drain(c *gin.Context) {
	delivered, failed, err := h.feedbackService.DrainOutbox(c.Request.Context())
	if err != nil {
		handleFeedbackServiceError(c, err)
		return
	}
	response.Success(c, gin.H{
		"delivered": delivered,
		"failed":    failed,
	})
}

func handleFeedbackServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidFeedbackReq):
		response.Fail(c, http.StatusBadRequest, response.ErrFeedbackRejected, "invalid feedback")
	case errors.Is(err, service.ErrInvalidUserID):
		response.Fail(c, http.StatusBadRequest, response.ErrInternal, "invalid request")
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "internal error")
	}
}
