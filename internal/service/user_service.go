package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"unishare-hub/internal/api/sanitize"
	"unishare-hub/internal/model"
	"unishare-hub/internal/repository"
)

var (
	ErrSelfBanForbidden = errors.New("admin cannot ban self")
)

type UpdateProfileRequest struct {
	Email       *string `json:"email,omitempty"`
	DisplayName *string `json:"display_name,omitempty"`
	Campus      *string `json:"campus,omitempty"`
}

type UserService struct {
	userRepo  repository.UserRepository
	auditRepo repository.AuditRepository
}

func NewUserService(userRepo repository.UserRepository, auditRepo repository.AuditRepository) *UserService {
	return &UserService{
		userRepo:  userRepo,
		auditRepo: auditRepo,
	}
}

func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	uid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, ErrInvalidUserID
	}

	user, err := s.userRepo.FindByID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*model.User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		user.Email = sanitize.TextPtr(req.Email)
	}
	if req.DisplayName != nil {
		name := sanitize.Text(*req.DisplayName)
		if name == "" {
			return nil, ErrInvalidUserInput
		}
		user.DisplayName = name
	}
	if req.Campus != nil {
		user.Campus = sanitize.TextPtr(req.Campus)
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *UserService) SetStatus(ctx context.Context, operatorID, userID string, status model.UserStatus) error {
	operatorUUID, err := uuid.Parse(strings.TrimSpace(operatorID))
	if err != nil {
		return ErrInvalidUserID
	}
	uid, err := uuid.Parse(strings.TrimSpace(userID))
	if err != nil {
		return ErrInvalidUserID
	}
	if operatorUUID == uid && status != model.UserStatusNormal {
		return ErrSelfBanForbidden
	}

	if err := s.userRepo.UpdateStatus(ctx, uid, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	s.writeAudit(ctx, &operatorUUID, "user.status", uid.String(), map[string]interface{}{
		"status": string(status),
	})

	return nil
}

func (s *UserService) writeAudit(ctx context.Context, operatorID *uuid.UUID, action, resourceID string, newValue map[string]interface{}) {
	if s.auditRepo == nil {
		return
	}

	resourceType := "user"
	_ = s.auditRepo.Create(ctx, &model.AuditLog{
		UserID:       operatorID,
		Action:       action,
		ResourceType: &resourceType,
		ResourceID:   &resourceID,
		NewValue:     newValue,
		CreatedAt:    time.Now().UTC(),
	})
}
