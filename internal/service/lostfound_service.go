package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"

	"unishare-hub/internal/api/sanitize"
	"unishare-hub/internal/event"
	"unishare-hub/internal/model"
	"unishare-hub/internal/repository"
)

// Case codes are what people read out at the campus desk, so the alphabet
// skips lookalike characters.
const (
	caseCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	caseCodeLength   = 10
)

var (
	ErrReportNotFound     = errors.New("lost and found report not found")
	ErrInvalidReportReq   = errors.New("invalid lost and found input")
	ErrCaseCodeNotFound   = errors.New("case code not found")
	ErrReportNotOpen      = errors.New("report is not open")
	ErrLostFoundForbidden = errors.New("report does not belong to user")
)

type CreateReportRequest struct {
	Kind        string `json:"kind"`
	Item        string `json:"item"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

type LostFoundService struct {
	reportRepo repository.LostFoundRepository
	bus        *event.Bus
	logger     *zap.Logger
}

func NewLostFoundService(
	reportRepo repository.LostFoundRepository,
	bus *event.Bus,
	logger *zap.Logger,
) *LostFoundService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &LostFoundService{
		reportRepo: reportRepo,
		bus:        bus,
		logger:     logger,
	}
}

func (s *LostFoundService) Create(ctx context.Context, reporterID string, req CreateReportRequest) (*model.LostFoundReport, error) {
	reporterUUID, err := uuid.Parse(strings.TrimSpace(reporterID))
	if err != nil {
		return nil, ErrInvalidUserID
	}

	kind, err := parseLostFoundKind(req.Kind)
	if err != nil {
		return nil, err
	}

	item := sanitize.Text(req.Item)
	location := sanitize.Text(req.Location)
	if item == "" || location == "" {
		return nil, ErrInvalidReportReq
	}

	code, err := gonanoid.Generate(caseCodeAlphabet, caseCodeLength)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	report := &model.LostFoundReport{
		ID:          uuid.New(),
		ReporterID:  reporterUUID,
		Kind:        kind,
		Item:        item,
		Description: sanitize.Text(req.Description),
		Location:    location,
		CaseCode:    code,
		Status:      model.LostFoundStatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.reportRepo.Create(ctx, report); err != nil {
		return nil, err
	}

	return report, nil
}

func (s *LostFoundService) GetByID(ctx context.Context, reportID string) (*model.LostFoundReport, error) {
	id, err := uuid.Parse(strings.TrimSpace(reportID))
	if err != nil {
		return nil, ErrInvalidReportReq
	}

	report, err := s.reportRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	return report, nil
}

func (s *LostFoundService) List(
	ctx context.Context,
	kind, status, keyword string,
	page, pageSize int,
) ([]*model.LostFoundReport, int64, error) {
	limit, offset := pageToPagination(page, pageSize)
	filter := repository.LostFoundListFilter{
		Pagination: repository.Pagination{Limit: limit, Offset: offset},
	}

	if trimmed := strings.TrimSpace(kind); trimmed != "" {
		parsed, err := parseLostFoundKind(trimmed)
		if err != nil {
			return nil, 0, err
		}
		filter.Kind = &parsed
	}
	if trimmed := strings.TrimSpace(status); trimmed != "" {
		parsed, err := parseLostFoundStatus(trimmed)
		if err != nil {
			return nil, 0, err
		}
		filter.Status = &parsed
	}
	if cleaned := sanitize.Text(keyword); cleaned != "" {
		filter.Keyword = &cleaned
	}

	items, err := s.reportRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.reportRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// ResolveByCaseCode marks an open report claimed, looked up by the code the
// finder or owner presents.
func (s *LostFoundService) ResolveByCaseCode(ctx context.Context, code string) (*model.LostFoundReport, error) {
	cleaned := strings.ToUpper(strings.TrimSpace(code))
	if cleaned == "" {
		return nil, ErrInvalidReportReq
	}

	report, err := s.reportRepo.FindByCaseCode(ctx, cleaned)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCaseCodeNotFound
		}
		return nil, err
	}
	if report.Status != model.LostFoundStatusOpen {
		return nil, ErrReportNotOpen
	}

	if err := s.reportRepo.UpdateStatus(ctx, report.ID, model.LostFoundStatusClaimed); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}

	report.Status = model.LostFoundStatusClaimed
	report.UpdatedAt = time.Now().UTC()

	if s.bus != nil {
		s.bus.Publish(event.EventLostFoundResolved, event.LostFoundResolvedPayload{
			ItemID:     report.ID.String(),
			CaseCode:   report.CaseCode,
			ResolvedAt: report.UpdatedAt,
		})
	}

	return report, nil
}

func (s *LostFoundService) Close(ctx context.Context, operatorID string, operatorRole model.UserRole, reportID string) (*model.LostFoundReport, error) {
	operatorUUID, err := uuid.Parse(strings.TrimSpace(operatorID))
	if err != nil {
		return nil, ErrInvalidUserID
	}

	report, err := s.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if operatorRole != model.UserRoleAdmin && report.ReporterID != operatorUUID {
		return nil, ErrLostFoundForbidden
	}

	if err := s.reportRepo.UpdateStatus(ctx, report.ID, model.LostFoundStatusClosed); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}

	report.Status = model.LostFoundStatusClosed
	report.UpdatedAt = time.Now().UTC()
	return report, nil
}

func parseLostFoundKind(raw string) (model.LostFoundKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "lost":
		return model.LostFoundKindLost, nil
	case "found":
		return model.LostFoundKindFound, nil
	default:
		return "", ErrInvalidReportReq
	}
}

func parseLostFoundStatus(raw string) (model.LostFoundStatus, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "open":
		return model.LostFoundStatusOpen, nil
	case "claimed":
		return model.LostFoundStatusClaimed, nil
	case "closed":
		return model.LostFoundStatusClosed, nil
	default:
		return "", ErrInvalidReportReq
	}
}
