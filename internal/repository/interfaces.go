package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"unishare-hub/internal/model"
)

type Pagination struct {
	Limit  int32 `json:"limit"`
	Offset int32 `json:"offset"`
}

type AnnouncementListFilter struct {
	Source     *model.AnnouncementSource   `json:"source,omitempty"`
	Priority   *model.AnnouncementPriority `json:"priority,omitempty"`
	ActiveOnly bool                        `json:"active_only"`
	Pagination Pagination                  `json:"pagination"`
}

type ListingListFilter struct {
	SellerID   *uuid.UUID           `json:"seller_id,omitempty"`
	Category   *string              `json:"category,omitempty"`
	Status     *model.ListingStatus `json:"status,omitempty"`
	Keyword    *string              `json:"keyword,omitempty"`
	Pagination Pagination           `json:"pagination"`
}

type RideListFilter struct {
	DriverID     *uuid.UUID        `json:"driver_id,omitempty"`
	Status       *model.RideStatus `json:"status,omitempty"`
	DepartsAfter *time.Time        `json:"departs_after,omitempty"`
	Pagination   Pagination        `json:"pagination"`
}

type LostFoundListFilter struct {
	Kind       *model.LostFoundKind   `json:"kind,omitempty"`
	Status     *model.LostFoundStatus `json:"status,omitempty"`
	Keyword    *string                `json:"keyword,omitempty"`
	Pagination Pagination             `json:"pagination"`
}

type FeedbackListFilter struct {
	Type       *model.FeedbackType   `json:"type,omitempty"`
	Status     *model.FeedbackStatus `json:"status,omitempty"`
	Pagination Pagination            `json:"pagination"`
}

type AuditListFilter struct {
	UserID       *uuid.UUID `json:"user_id,omitempty"`
	ResourceType *string    `json:"resource_type,omitempty"`
	StartTime    *time.Time `json:"start_time,omitempty"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	Pagination   Pagination `json:"pagination"`
}

type AnnouncementRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Announcement, error)
	Create(ctx context.Context, a *model.Announcement) error
	Update(ctx context.Context, a *model.Announcement) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter AnnouncementListFilter) ([]*model.Announcement, error)
	Count(ctx context.Context, filter AnnouncementListFilter) (int64, error)
	// ListEligible returns active announcements whose expiry, if any, lies
	// after now, ranked most recently updated first.
	ListEligible(ctx context.Context, now time.Time) ([]*model.Announcement, error)
	// UpsertFromFeed inserts or refreshes an announcement synced from the
	// upstream feed, matching on its feed id.
	UpsertFromFeed(ctx context.Context, a *model.Announcement) error
}

// DismissalRepository holds at most one row per user. Write overwrites the
// existing row; Read returns ErrNotFound when the user never dismissed
// anything.
type DismissalRepository interface {
	Read(ctx context.Context, userID uuid.UUID) (*model.Dismissal, error)
	Write(ctx context.Context, userID, announcementID uuid.UUID, ts time.Time) error
}

type FeedbackRepository interface {
	Create(ctx context.Context, f *model.Feedback) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.FeedbackStatus, attempts int, lastError *string) error
	// ListQueued returns outbox entries awaiting a delivery retry, oldest
	// first, capped at limit.
	ListQueued(ctx context.Context, limit int32) ([]*model.Feedback, error)
	List(ctx context.Context, filter FeedbackListFilter) ([]*model.Feedback, error)
	Count(ctx context.Context, filter FeedbackListFilter) (int64, error)
}

type ListingRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Listing, error)
	Create(ctx context.Context, l *model.Listing) error
	Update(ctx context.Context, l *model.Listing) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.ListingStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ListingListFilter) ([]*model.Listing, error)
	Count(ctx context.Context, filter ListingListFilter) (int64, error)
}

type RideRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Ride, error)
	Create(ctx context.Context, r *model.Ride) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.RideStatus) error
	// ReserveSeat atomically increments seats_taken on an open ride with
	// spare capacity, flipping the ride to full when the last seat goes.
	// Returns ErrNotFound when no such ride qualifies.
	ReserveSeat(ctx context.Context, id uuid.UUID) (*model.Ride, error)
	ReleaseSeat(ctx context.Context, id uuid.UUID) (*model.Ride, error)
	List(ctx context.Context, filter RideListFilter) ([]*model.Ride, error)
	Count(ctx context.Context, filter RideListFilter) (int64, error)

	FindRequestByID(ctx context.Context, id uuid.UUID) (*model.RideRequest, error)
	CreateRequest(ctx context.Context, req *model.RideRequest) error
	UpdateRequestStatus(ctx context.Context, id uuid.UUID, status model.RideRequestStatus) error
	ListRequestsByRide(ctx context.Context, rideID uuid.UUID) ([]*model.RideRequest, error)
	ListRequestsByRider(ctx context.Context, riderID uuid.UUID) ([]*model.RideRequest, error)
}

type LostFoundRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.LostFoundReport, error)
	FindByCaseCode(ctx context.Context, code string) (*model.LostFoundReport, error)
	Create(ctx context.Context, r *model.LostFoundReport) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.LostFoundStatus) error
	List(ctx context.Context, filter LostFoundListFilter) ([]*model.LostFoundReport, error)
	Count(ctx context.Context, filter LostFoundListFilter) (int64, error)
}

type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.UserStatus) error
	// SetPopupSeen marks the one-time first-visit popup as consumed. The
	// flag is never cleared by the application.
	SetPopupSeen(ctx context.Context, id uuid.UUID) error
}

type AuditRepository interface {
	Create(ctx context.Context, log *model.AuditLog) error
	List(ctx context.Context, filter AuditListFilter) ([]*model.AuditLog, error)
}
