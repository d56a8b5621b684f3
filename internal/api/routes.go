package api

import (
	"github.com/gin-gonic/gin"

	v1 "unishare-hub/internal/api/v1"
	"unishare-hub/internal/service"
	"unishare-hub/internal/sse"
)

// Services bundles everything the HTTP surface depends on. Nil entries skip
// their route group, which keeps partial wiring in tests cheap.
type Services struct {
	Auth         *service.AuthService
	User         *service.UserService
	Announcement *service.AnnouncementService
	Feedback     *service.FeedbackService
	Listing      *service.ListingService
	Ride         *service.RideService
	LostFound    *service.LostFoundService
	Audit        *service.AuditService
	System       *service.SystemService
	SSEHub       *sse.Hub
}

func RegisterRoutes(group *gin.RouterGroup, services Services) {
	v1.RegisterAuthRoutes(group, services.Auth)
	v1.RegisterUserRoutes(group, services.User)
	v1.RegisterAnnouncementRoutes(group, services.Announcement)
	v1.RegisterFeedbackRoutes(group, services.Feedback)
	v1.RegisterListingRoutes(group, services.Listing)
	v1.RegisterRideRoutes(group, services.Ride)
	v1.RegisterLostFoundRoutes(group, services.LostFound)
	v1.RegisterAuditRoutes(group, services.Audit)
	v1.RegisterSystemRoutes(group, services.System)
	if services.SSEHub != nil {
		v1.RegisterSSERoutes(group, services.SSEHub)
	}
}
