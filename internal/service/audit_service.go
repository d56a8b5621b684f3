package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"unishare-hub/internal/model"
	"unishare-hub/internal/repository"
)

var (
	ErrInvalidAuditInput = errors.New("invalid audit input")
)

type AuditQuery struct {
	UserID       string
	ResourceType string
	From         *time.Time
	To           *time.Time
	Page         int
	PageSize     int
}

type AuditService struct {
	auditRepo repository.AuditRepository
}

func NewAuditService(auditRepo repository.AuditRepository) *AuditService {
	return &AuditService{auditRepo: auditRepo}
}

func (s *AuditService) Log(ctx context.Context, log *model.AuditLog) error {
	if s.auditRepo == nil {
		return errors.New("audit repository is nil")
	}
	if log == nil || strings.TrimSpace(log.Action) == "" {
		return ErrInvalidAuditInput
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	return s.auditRepo.Create(ctx, log)
}

func (s *AuditService) List(ctx context.Context, query AuditQuery) ([]*model.AuditLog, error) {
	limit, offset := pageToPagination(query.Page, query.PageSize)
	filter := repository.AuditListFilter{
		StartTime:  query.From,
		EndTime:    query.To,
		Pagination: repository.Pagination{Limit: limit, Offset: offset},
	}

	if trimmed := strings.TrimSpace(query.UserID); trimmed != "" {
		uid, err := uuid.Parse(trimmed)
		if err != nil {
			return nil, ErrInvalidUserID
		}
		filter.UserID = &uid
	}
	if trimmed := strings.TrimSpace(query.ResourceType); trimmed != "" {
		filter.ResourceType = &trimmed
	}

	return s.auditRepo.List(ctx, filter)
}
