package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"unishare-hub/internal/api/sanitize"
	"unishare-hub/internal/feed"
	"unishare-hub/internal/model"
	"unishare-hub/internal/repository"
	"unishare-hub/internal/sse"
)

var (
	ErrAnnouncementNotFound   = errors.New("announcement not found")
	ErrInvalidAnnouncementReq = errors.New("invalid announcement input")
	ErrNoAnnouncement         = errors.New("no announcement available")
)

type CreateAnnouncementRequest struct {
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	Priority  string     `json:"priority"`
	Active    *bool      `json:"active,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type UpdateAnnouncementRequest struct {
	Title     *string    `json:"title,omitempty"`
	Body      *string    `json:"body,omitempty"`
	Priority  *string    `json:"priority,omitempty"`
	Active    *bool      `json:"active,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// NoticeDecision is what a client renders: at most one announcement, plus
// whether it should be shown at all and whether the one-time popup variant
// fires.
type NoticeDecision struct {
	Visible      bool                `json:"visible"`
	Popup        bool                `json:"popup"`
	Announcement *model.Announcement `json:"announcement,omitempty"`
}

type feedSource interface {
	Fetch(ctx context.Context) ([]*model.Announcement, error)
	Latest(ctx context.Context) (*model.Announcement, error)
}

type AnnouncementService struct {
	announcementRepo repository.AnnouncementRepository
	dismissalRepo    repository.DismissalRepository
	userRepo         repository.UserRepository
	auditRepo        repository.AuditRepository
	feed             feedSource
	sseHub           *sse.Hub
	logger           *zap.Logger
}

func NewAnnouncementService(
	announcementRepo repository.AnnouncementRepository,
	dismissalRepo repository.DismissalRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	feedClient feedSource,
	sseHub *sse.Hub,
	logger *zap.Logger,
) *AnnouncementService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AnnouncementService{
		announcementRepo: announcementRepo,
		dismissalRepo:    dismissalRepo,
		userRepo:         userRepo,
		auditRepo:        auditRepo,
		feed:             feedClient,
		sseHub:           sseHub,
		logger:           logger,
	}
}

func (s *AnnouncementService) Create(
	ctx context.Context,
	operatorID string,
	req CreateAnnouncementRequest,
) (*model.Announcement, error) {
	operatorUUID, err := uuid.Parse(strings.TrimSpace(operatorID))
	if err != nil {
		return nil, ErrInvalidUserID
	}

	announcement, err := buildAnnouncementForCreate(operatorUUID, req)
	if err != nil {
		return nil, err
	}

	if err := s.announcementRepo.Create(ctx, announcement); err != nil {
		return nil, err
	}

	s.writeAudit(ctx, &operatorUUID, "announcement.create", announcement.ID.String(), nil, map[string]interface{}{
		"title":      announcement.Title,
		"priority":   string(announcement.Priority),
		"active":     announcement.Active,
		"expires_at": formatTimePtr(announcement.ExpiresAt),
	})
	s.broadcast("create", announcement)

	return announcement, nil
}

func (s *AnnouncementService) Update(
	ctx context.Context,
	operatorID string,
	announcementID string,
	req UpdateAnnouncementRequest,
) (*model.Announcement, error) {
	operatorUUID, err := uuid.Parse(strings.TrimSpace(operatorID))
	if err != nil {
		return nil, ErrInvalidUserID
	}
	id, err := uuid.Parse(strings.TrimSpace(announcementID))
	if err != nil {
		return nil, ErrInvalidAnnouncementReq
	}

	current, err := s.getByUUID(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := buildAnnouncementForUpdate(current, req)
	if err != nil {
		return nil, err
	}

	if err := s.announcementRepo.Update(ctx, next); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAnnouncementNotFound
		}
		return nil, err
	}

	s.writeAudit(ctx, &operatorUUID, "announcement.update", next.ID.String(), map[string]interface{}{
		"title":      current.Title,
		"body":       current.Body,
		"priority":   string(current.Priority),
		"active":     current.Active,
		"expires_at": formatTimePtr(current.ExpiresAt),
	}, map[string]interface{}{
		"title":      next.Title,
		"body":       next.Body,
		"priority":   string(next.Priority),
		"active":     next.Active,
		"expires_at": formatTimePtr(next.ExpiresAt),
	})
	s.broadcast("update", next)

	return next, nil
}

func (s *AnnouncementService) Delete(ctx context.Context, operatorID, announcementID string) error {
	operatorUUID, err := uuid.Parse(strings.TrimSpace(operatorID))
	if err != nil {
		return ErrInvalidUserID
	}
	id, err := uuid.Parse(strings.TrimSpace(announcementID))
	if err != nil {
		return ErrInvalidAnnouncementReq
	}

	current, err := s.getByUUID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.announcementRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAnnouncementNotFound
		}
		return err
	}

	s.writeAudit(ctx, &operatorUUID, "announcement.delete", id.String(), map[string]interface{}{
		"title":    current.Title,
		"priority": string(current.Priority),
		"active":   current.Active,
	}, nil)

	if s.sseHub != nil {
		s.sseHub.Broadcast(sse.NewEvent(sse.EventAnnouncement, map[string]interface{}{
			"action": "delete",
			"id":     id.String(),
			"ts":     time.Now().UTC().Format(time.RFC3339Nano),
		}))
	}

	return nil
}

func (s *AnnouncementService) Toggle(
	ctx context.Context,
	operatorID string,
	announcementID string,
	active bool,
) (*model.Announcement, error) {
	operatorUUID, err := uuid.Parse(strings.TrimSpace(operatorID))
	if err != nil {
		return nil, ErrInvalidUserID
	}
	id, err := uuid.Parse(strings.TrimSpace(announcementID))
	if err != nil {
		return nil, ErrInvalidAnnouncementReq
	}

	current, err := s.getByUUID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.announcementRepo.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAnnouncementNotFound
		}
		return nil, err
	}

	item, err := s.getByUUID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.writeAudit(ctx, &operatorUUID, "announcement.toggle", id.String(), map[string]interface{}{
		"active": current.Active,
	}, map[string]interface{}{
		"active": active,
	})
	s.broadcast("toggle", item)
	return item, nil
}

func (s *AnnouncementService) GetByID(ctx context.Context, announcementID string) (*model.Announcement, error) {
	id, err := uuid.Parse(strings.TrimSpace(announcementID))
	if err != nil {
		return nil, ErrInvalidAnnouncementReq
	}
	return s.getByUUID(ctx, id)
}

func (s *AnnouncementService) List(
	ctx context.Context,
	page, pageSize int,
) ([]*model.Announcement, int64, error) {
	limit, offset := pageToPagination(page, pageSize)
	filter := repository.AnnouncementListFilter{
		Pagination: repository.Pagination{Limit: limit, Offset: offset},
	}

	items, err := s.announcementRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.announcementRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (s *AnnouncementService) ListActive(ctx context.Context) ([]*model.Announcement, error) {
	return s.announcementRepo.ListEligible(ctx, time.Now().UTC())
}

// Latest returns the single candidate announcement. Stored announcements
// (local plus synced feed entries) win; when none are eligible the live feed
// is consulted, which itself degrades to the static default on fetch
// failure. ErrNoAnnouncement means the feed answered with a genuinely empty
// list.
func (s *AnnouncementService) Latest(ctx context.Context) (*model.Announcement, error) {
	items, err := s.announcementRepo.ListEligible(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Warn("eligible announcement query failed", zap.Error(err))
	}
	if len(items) > 0 {
		return items[0], nil
	}

	if s.feed == nil {
		return nil, ErrNoAnnouncement
	}

	candidate, err := s.feed.Latest(ctx)
	if err != nil {
		if errors.Is(err, feed.ErrEmptyFeed) {
			return nil, ErrNoAnnouncement
		}
		return nil, err
	}
	return candidate, nil
}

// Notice decides what the client shows. An empty candidate set hides the
// notice; otherwise it is visible unless the user's stored dismissal matches
// the candidate id. Dismissal read failures count as "never dismissed" so a
// broken dismissal store can only ever show too much, not too little.
func (s *AnnouncementService) Notice(ctx context.Context, userID string) (*NoticeDecision, error) {
	uid, err := uuid.Parse(strings.TrimSpace(userID))
	if err != nil {
		return nil, ErrInvalidUserID
	}

	candidate, err := s.Latest(ctx)
	if err != nil {
		if errors.Is(err, ErrNoAnnouncement) {
			return &NoticeDecision{Visible: false}, nil
		}
		return nil, err
	}

	decision := &NoticeDecision{
		Visible:      true,
		Announcement: candidate,
	}

	dismissal, err := s.dismissalRepo.Read(ctx, uid)
	switch {
	case err == nil:
		if dismissal.AnnouncementID == candidate.ID {
			decision.Visible = false
			decision.Announcement = nil
		}
	case errors.Is(err, repository.ErrNotFound):
		// Never dismissed.
	default:
		s.logger.Warn("dismissal read failed, treating as not dismissed",
			zap.String("user_id", uid.String()),
			zap.Error(err),
		)
	}

	if decision.Visible {
		decision.Popup = s.consumePopupFlag(ctx, uid)
	}

	return decision, nil
}

// Dismiss records the user's dismissal. Storage failures are logged and
// swallowed; the worst case is the notice reappearing on the next visit.
func (s *AnnouncementService) Dismiss(ctx context.Context, userID, announcementID string) error {
	uid, err := uuid.Parse(strings.TrimSpace(userID))
	if err != nil {
		return ErrInvalidUserID
	}
	id, err := uuid.Parse(strings.TrimSpace(announcementID))
	if err != nil {
		return ErrInvalidAnnouncementReq
	}

	if err := s.dismissalRepo.Write(ctx, uid, id, time.Now().UTC()); err != nil {
		s.logger.Warn("dismissal write failed",
			zap.String("user_id", uid.String()),
			zap.String("announcement_id", id.String()),
			zap.Error(err),
		)
	}

	return nil
}

// SyncFromFeed pulls the upstream feed and upserts every entry, keyed by
// feed id. Returns how many entries were stored.
func (s *AnnouncementService) SyncFromFeed(ctx context.Context) (int, error) {
	if s.feed == nil {
		return 0, errors.New("feed client is not configured")
	}

	items, err := s.feed.Fetch(ctx)
	if err != nil {
		return 0, err
	}

	synced := 0
	for _, item := range items {
		if err := s.announcementRepo.UpsertFromFeed(ctx, item); err != nil {
			s.logger.Warn("feed entry upsert failed",
				zap.Stringp("feed_id", item.FeedID),
				zap.Error(err),
			)
			continue
		}
		synced++
	}

	return synced, nil
}

// consumePopupFlag reports whether the one-time popup fires and permanently
// sets popup_seen when it does. The flag is never cleared afterwards, so a
// user who dismisses without reading never sees the popup again.
func (s *AnnouncementService) consumePopupFlag(ctx context.Context, uid uuid.UUID) bool {
	if s.userRepo == nil {
		return false
	}

	user, err := s.userRepo.FindByID(ctx, uid)
	if err != nil {
		s.logger.Warn("popup flag lookup failed", zap.String("user_id", uid.String()), zap.Error(err))
		return false
	}
	if user.PopupSeen {
		return false
	}

	if err := s.userRepo.SetPopupSeen(ctx, uid); err != nil {
		s.logger.Warn("popup flag write failed", zap.String("user_id", uid.String()), zap.Error(err))
	}
	return true
}

func (s *AnnouncementService) getByUUID(ctx context.Context, id uuid.UUID) (*model.Announcement, error) {
	item, err := s.announcementRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAnnouncementNotFound
		}
		return nil, err
	}
	return item, nil
}

func buildAnnouncementForCreate(operatorID uuid.UUID, req CreateAnnouncementRequest) (*model.Announcement, error) {
	title := sanitize.Text(req.Title)
	body := sanitize.Markdown(req.Body)
	if title == "" || body == "" {
		return nil, ErrInvalidAnnouncementReq
	}

	priority, err := parseAnnouncementPriority(req.Priority)
	if err != nil {
		return nil, err
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	now := time.Now().UTC()
	return &model.Announcement{
		ID:        uuid.New(),
		Title:     title,
		Body:      body,
		Priority:  priority,
		Active:    active,
		Source:    model.AnnouncementSourceLocal,
		ExpiresAt: cloneTimePtr(req.ExpiresAt),
		CreatedBy: &operatorID,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func buildAnnouncementForUpdate(
	current *model.Announcement,
	req UpdateAnnouncementRequest,
) (*model.Announcement, error) {
	if current == nil {
		return nil, ErrAnnouncementNotFound
	}

	next := *current
	next.ExpiresAt = cloneTimePtr(current.ExpiresAt)

	if req.Title != nil {
		title := sanitize.Text(*req.Title)
		if title == "" {
			return nil, ErrInvalidAnnouncementReq
		}
		next.Title = title
	}
	if req.Body != nil {
		body := sanitize.Markdown(*req.Body)
		if body == "" {
			return nil, ErrInvalidAnnouncementReq
		}
		next.Body = body
	}
	if req.Priority != nil {
		priority, err := parseAnnouncementPriority(*req.Priority)
		if err != nil {
			return nil, err
		}
		next.Priority = priority
	}
	if req.Active != nil {
		next.Active = *req.Active
	}
	if req.ExpiresAt != nil {
		next.ExpiresAt = cloneTimePtr(req.ExpiresAt)
	}

	next.UpdatedAt = time.Now().UTC()
	return &next, nil
}

func parseAnnouncementPriority(raw string) (model.AnnouncementPriority, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "normal":
		return model.AnnouncementPriorityNormal, nil
	case "low":
		return model.AnnouncementPriorityLow, nil
	case "high":
		return model.AnnouncementPriorityHigh, nil
	default:
		return "", ErrInvalidAnnouncementReq
	}
}

func (s *AnnouncementService) writeAudit(
	ctx context.Context,
	userID *uuid.UUID,
	action, resourceID string,
	oldValue, newValue map[string]interface{},
) {
	if s.auditRepo == nil {
		return
	}

	resourceType := "announcement"
	_ = s.auditRepo.Create(ctx, &model.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: &resourceType,
		ResourceID:   &resourceID,
		OldValue:     oldValue,
		NewValue:     newValue,
		CreatedAt:    time.Now().UTC(),
	})
}

func (s *AnnouncementService) broadcast(action string, item *model.Announcement) {
	if s.sseHub == nil || item == nil {
		return
	}

	s.sseHub.Broadcast(sse.NewEvent(sse.EventAnnouncement, map[string]interface{}{
		"action":     action,
		"id":         item.ID.String(),
		"title":      item.Title,
		"body":       item.Body,
		"priority":   string(item.Priority),
		"active":     item.Active,
		"expires_at": formatTimePtr(item.ExpiresAt),
		"updated_at": item.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}))
}
