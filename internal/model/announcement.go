package model

import (
	"time"

	"github.com/google/uuid"
)

type AnnouncementPriority string

type AnnouncementSource string

const (
	AnnouncementPriorityLow    AnnouncementPriority = "low"
	AnnouncementPriorityNormal AnnouncementPriority = "normal"
	AnnouncementPriorityHigh   AnnouncementPriority = "high"
)

const (
	AnnouncementSourceLocal AnnouncementSource = "local"
	AnnouncementSourceFeed  AnnouncementSource = "feed"
)

type Announcement struct {
	ID        uuid.UUID            `db:"id" json:"id"`
	Title     string               `db:"title" json:"title"`
	Body      string               `db:"body" json:"body"`
	Priority  AnnouncementPriority `db:"priority" json:"priority"`
	Active    bool                 `db:"active" json:"active"`
	Source    AnnouncementSource   `db:"source" json:"source"`
	FeedID    *string              `db:"feed_id" json:"feed_id,omitempty"`
	ExpiresAt *time.Time           `db:"expires_at" json:"expires_at,omitempty"`
	CreatedBy *uuid.UUID           `db:"created_by" json:"created_by,omitempty"`
	CreatedAt time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt time.Time            `db:"updated_at" json:"updated_at"`
}

// Eligible reports whether the announcement may be shown at the given
// instant: it is active and either carries no expiry or expires later.
func (a *Announcement) Eligible(now time.Time) bool {
	if a == nil || !a.Active {
		return false
	}
	if a.ExpiresAt == nil {
		return true
	}
	return a.ExpiresAt.After(now)
}

// RankTime is the timestamp candidates are ordered by: updated_at when set,
// otherwise created_at, otherwise the zero time.
func (a *Announcement) RankTime() time.Time {
	if a == nil {
		return time.Time{}
	}
	if !a.UpdatedAt.IsZero() {
		return a.UpdatedAt
	}
	return a.CreatedAt
}

// Dismissal is the single-slot record of the last announcement a user
// dismissed. Dismissing another announcement overwrites it, so only the most
// recent dismissal is remembered per user.
type Dismissal struct {
	UserID         uuid.UUID `db:"user_id" json:"user_id"`
	AnnouncementID uuid.UUID `db:"announcement_id" json:"announcement_id"`
	DismissedAt    time.Time `db:"dismissed_at" json:"dismissed_at"`
}
