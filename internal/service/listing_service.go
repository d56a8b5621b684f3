package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"unishare-hub/internal/api/sanitize"
	"unishare-hub/internal/model"
	"unishare-hub/internal/repository"
	"unishare-hub/internal/sse"
)

var (
	ErrListingNotFound   = errors.New("listing not found")
	ErrInvalidListingReq = errors.New("invalid listing input")
	ErrListingForbidden  = errors.New("listing does not belong to user")
)

type CreateListingRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	PriceCents  int64  `json:"price_cents"`
}

type UpdateListingRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	PriceCents  *int64  `json:"price_cents,omitempty"`
}

type ListListingsQuery struct {
	Category string
	Keyword  string
	Status   string
	SellerID string
	Page     int
	PageSize int
}

type ListingService struct {
	listingRepo repository.ListingRepository
	auditRepo   repository.AuditRepository
	sseHub      *sse.Hub
	logger      *zap.Logger
}

func NewListingService(
	listingRepo repository.ListingRepository,
	auditRepo repository.AuditRepository,
	sseHub *sse.Hub,
	logger *zap.Logger,
) *ListingService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ListingService{
		listingRepo: listingRepo,
		auditRepo:   auditRepo,
		sseHub:      sseHub,
		logger:      logger,
	}
}

func (s *ListingService) Create(ctx context.Context, sellerID string, req CreateListingRequest) (*model.Listing, error) {
	sellerUUID, err := uuid.Parse(strings.TrimSpace(sellerID))
	if err != nil {
		return nil, ErrInvalidUserID
	}

	listing, err := buildListingForCreate(sellerUUID, req)
	if err != nil {
		return nil, err
	}

	if err := s.listingRepo.Create(ctx, listing); err != nil {
		return nil, err
	}

	s.writeAudit(ctx, &sellerUUID, "listing.create", listing.ID.String(), nil, map[string]interface{}{
		"title":       listing.Title,
		"category":    listing.Category,
		"price_cents": listing.PriceCents,
	})

	if s.sseHub != nil {
		s.sseHub.Broadcast(sse.NewEvent(sse.EventListingCreated, map[string]interface{}{
			"id":          listing.ID.String(),
			"title":       listing.Title,
			"category":    listing.Category,
			"price_cents": listing.PriceCents,
		}))
	}

	return listing, nil
}

func (s *ListingService) Update(
	ctx context.Context,
	operatorID string,
	operatorRole model.UserRole,
	listingID string,
	req UpdateListingRequest,
) (*model.Listing, error) {
	operatorUUID, err := uuid.Parse(strings.TrimSpace(operatorID))
	if err != nil {
		return nil, ErrInvalidUserID
	}

	current, err := s.getByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if err := requireListingOwnership(current, operatorUUID, operatorRole); err != nil {
		return nil, err
	}

	next, err := buildListingForUpdate(current, req)
	if err != nil {
		return nil, err
	}

	if err := s.listingRepo.Update(ctx, next); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}

	s.writeAudit(ctx, &operatorUUID, "listing.update", next.ID.String(), map[string]interface{}{
		"title":       current.Title,
		"category":    current.Category,
		"price_cents": current.PriceCents,
	}, map[string]interface{}{
		"title":       next.Title,
		"category":    next.Category,
		"price_cents": next.PriceCents,
	})

	return next, nil
}

func (s *ListingService) SetStatus(
	ctx context.Context,
	operatorID string,
	operatorRole model.UserRole,
	listingID string,
	status string,
) (*model.Listing, error) {
	operatorUUID, err := uuid.Parse(strings.TrimSpace(operatorID))
	if err != nil {
		return nil, ErrInvalidUserID
	}

	parsedStatus, err := parseListingStatus(status)
	if err != nil {
		return nil, err
	}

	current, err := s.getByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if err := requireListingOwnership(current, operatorUUID, operatorRole); err != nil {
		return nil, err
	}

	if err := s.listingRepo.UpdateStatus(ctx, current.ID, parsedStatus); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}

	s.writeAudit(ctx, &operatorUUID, "listing.status", current.ID.String(), map[string]interface{}{
		"status": string(current.Status),
	}, map[string]interface{}{
		"status": string(parsedStatus),
	})

	current.Status = parsedStatus
	return current, nil
}

func (s *ListingService) Delete(
	ctx context.Context,
	operatorID string,
	operatorRole model.UserRole,
	listingID string,
) error {
	operatorUUID, err := uuid.Parse(strings.TrimSpace(operatorID))
	if err != nil {
		return ErrInvalidUserID
	}

	current, err := s.getByID(ctx, listingID)
	if err != nil {
		return err
	}
	if err := requireListingOwnership(current, operatorUUID, operatorRole); err != nil {
		return err
	}

	if err := s.listingRepo.Delete(ctx, current.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrListingNotFound
		}
		return err
	}

	s.writeAudit(ctx, &operatorUUID, "listing.delete", current.ID.String(), map[string]interface{}{
		"title": current.Title,
	}, nil)

	return nil
}

func (s *ListingService) GetByID(ctx context.Context, listingID string) (*model.Listing, error) {
	return s.getByID(ctx, listingID)
}

func (s *ListingService) List(ctx context.Context, query ListListingsQuery) ([]*model.Listing, int64, error) {
	limit, offset := pageToPagination(query.Page, query.PageSize)
	filter := repository.ListingListFilter{
		Pagination: repository.Pagination{Limit: limit, Offset: offset},
	}

	if category := sanitize.Text(query.Category); category != "" {
		filter.Category = &category
	}
	if keyword := sanitize.Text(query.Keyword); keyword != "" {
		filter.Keyword = &keyword
	}
	if trimmed := strings.TrimSpace(query.Status); trimmed != "" {
		parsed, err := parseListingStatus(trimmed)
		if err != nil {
			return nil, 0, err
		}
		filter.Status = &parsed
	}
	if trimmed := strings.TrimSpace(query.SellerID); trimmed != "" {
		sellerUUID, err := uuid.Parse(trimmed)
		if err != nil {
			return nil, 0, ErrInvalidUserID
		}
		filter.SellerID = &sellerUUID
	}

	items, err := s.listingRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.listingRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (s *ListingService) getByID(ctx context.Context, listingID string) (*model.Listing, error) {
	id, err := uuid.Parse(strings.TrimSpace(listingID))
	if err != nil {
		return nil, ErrInvalidListingReq
	}

	listing, err := s.listingRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return listing, nil
}

func requireListingOwnership(listing *model.Listing, operatorID uuid.UUID, role model.UserRole) error {
	if listing == nil {
		return ErrListingNotFound
	}
	if role == model.UserRoleAdmin {
		return nil
	}
	if listing.SellerID != operatorID {
		return ErrListingForbidden
	}
	return nil
}

func buildListingForCreate(sellerID uuid.UUID, req CreateListingRequest) (*model.Listing, error) {
	title := sanitize.Text(req.Title)
	description := sanitize.Markdown(req.Description)
	category := sanitize.Text(req.Category)
	if title == "" || category == "" || req.PriceCents < 0 {
		return nil, ErrInvalidListingReq
	}

	now := time.Now().UTC()
	return &model.Listing{
		ID:          uuid.New(),
		SellerID:    sellerID,
		Title:       title,
		Description: description,
		Category:    category,
		PriceCents:  req.PriceCents,
		Status:      model.ListingStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func buildListingForUpdate(current *model.Listing, req UpdateListingRequest) (*model.Listing, error) {
	if current == nil {
		return nil, ErrListingNotFound
	}

	next := *current

	if req.Title != nil {
		title := sanitize.Text(*req.Title)
		if title == "" {
			return nil, ErrInvalidListingReq
		}
		next.Title = title
	}
	if req.Description != nil {
		next.Description = sanitize.Markdown(*req.Description)
	}
	if req.Category != nil {
		category := sanitize.Text(*req.Category)
		if category == "" {
			return nil, ErrInvalidListingReq
		}
		next.Category = category
	}
	if req.PriceCents != nil {
		if *req.PriceCents < 0 {
			return nil, ErrInvalidListingReq
		}
		next.PriceCents = *req.PriceCents
	}

	next.UpdatedAt = time.Now().UTC()
	return &next, nil
}

func parseListingStatus(raw string) (model.ListingStatus, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "active":
		return model.ListingStatusActive, nil
	case "sold":
		return model.ListingStatusSold, nil
	case "closed":
		return model.ListingStatusClosed, nil
	default:
		return "", ErrInvalidListingReq
	}
}

func (s *ListingService) writeAudit(
	ctx context.Context,
	userID *uuid.UUID,
	action, resourceID string,
	oldValue, newValue map[string]interface{},
) {
	if s.auditRepo == nil {
		return
	}

	resourceType := "listing"
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
