package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"unishare-hub/internal/api/sanitize"
	"unishare-hub/internal/event"
	"unishare-hub/internal/metrics"
	"unishare-hub/internal/model"
	"unishare-hub/internal/repository"
	"unishare-hub/internal/sse"
	"unishare-hub/pkg/forms"
)

const (
	feedbackMaxDeliveryAttempts = 5
	feedbackDrainBatchSize      = 50
	// Each drain attempt gets a hard deadline so a hung upstream cannot
	// stall the whole batch.
	feedbackAttemptTimeout = 3 * time.Second
)

var (
	ErrInvalidFeedbackReq = errors.New("invalid feedback input")
)

type SubmitFeedbackRequest struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
	Rating  *int   `json:"rating,omitempty"`
}

type formSubmitter interface {
	Values(name, email, category, subject, message string, rating *int) url.Values
	Submit(ctx context.Context, values url.Values) error
}

type FeedbackService struct {
	feedbackRepo repository.FeedbackRepository
	submitter    formSubmitter
	bus          *event.Bus
	sseHub       *sse.Hub
	logger       *zap.Logger

	maxAttempts    int
	attemptTimeout time.Duration
}

func NewFeedbackService(
	feedbackRepo repository.FeedbackRepository,
	formsClient *forms.Client,
	bus *event.Bus,
	sseHub *sse.Hub,
	logger *zap.Logger,
) *FeedbackService {
	if logger == nil {
		logger = zap.NewNop()
	}

	svc := &FeedbackService{
		feedbackRepo:   feedbackRepo,
		bus:            bus,
		sseHub:         sseHub,
		logger:         logger,
		maxAttempts:    feedbackMaxDeliveryAttempts,
		attemptTimeout: feedbackAttemptTimeout,
	}
	if formsClient != nil {
		svc.submitter = formsClient
	}
	return svc
}

// Submit validates, attempts direct delivery, and falls back to the outbox.
// The caller always gets an accepted submission back unless validation
// fails; delivery failures are the operator's problem, not the user's.
func (s *FeedbackService) Submit(ctx context.Context, userID *string, req SubmitFeedbackRequest) (*model.Feedback, error) {
	entry, err := buildFeedbackForSubmit(userID, req)
	if err != nil {
		return nil, err
	}

	entry.Status = model.FeedbackStatusDelivered
	if deliverErr := s.deliver(ctx, entry); deliverErr != nil {
		entry.Status = model.FeedbackStatusQueued
		entry.LastError = strPtr(deliverErr.Error())
		s.logger.Warn("direct feedback delivery failed, queueing",
			zap.String("feedback_id", entry.ID.String()),
			zap.Error(deliverErr),
		)
	}
	entry.Attempts = 1

	if err := s.feedbackRepo.Create(ctx, entry); err != nil {
		return nil, err
	}

	metrics.IncFeedbackSubmission(string(entry.Status))
	if entry.Status == model.FeedbackStatusQueued && s.bus != nil {
		s.bus.Publish(event.EventFeedbackQueued, event.FeedbackQueuedPayload{
			FeedbackID: entry.ID.String(),
			Type:       string(entry.Type),
		})
	}
	if s.sseHub != nil {
		s.sseHub.SendToRole("admin", sse.NewEvent(sse.EventFeedbackReceived, map[string]interface{}{
			"id":     entry.ID.String(),
			"type":   string(entry.Type),
			"status": string(entry.Status),
		}))
	}

	return entry, nil
}

// DrainOutbox retries queued entries. Every row it touches ends up either
// delivered or, after the attempt budget runs out, failed; nothing stays
// queued forever once the upstream answers or the budget is spent.
func (s *FeedbackService) DrainOutbox(ctx context.Context) (delivered, failed int, err error) {
	queued, err := s.feedbackRepo.ListQueued(ctx, feedbackDrainBatchSize)
	if err != nil {
		return 0, 0, err
	}

	for _, entry := range queued {
		attemptCtx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
		deliverErr := s.deliver(attemptCtx, entry)
		cancel()

		attempts := entry.Attempts + 1

		if deliverErr == nil {
			if updateErr := s.feedbackRepo.UpdateStatus(ctx, entry.ID, model.FeedbackStatusDelivered, attempts, nil); updateErr != nil {
				s.logger.Error("feedback status update failed",
					zap.String("feedback_id", entry.ID.String()),
					zap.Error(updateErr),
				)
				continue
			}
			delivered++
			metrics.IncFeedbackSubmission(string(model.FeedbackStatusDelivered))
			continue
		}

		lastError := strPtr(deliverErr.Error())
		status := model.FeedbackStatusQueued
		if attempts >= s.maxAttempts {
			status = model.FeedbackStatusFailed
		}

		if updateErr := s.feedbackRepo.UpdateStatus(ctx, entry.ID, status, attempts, lastError); updateErr != nil {
			s.logger.Error("feedback status update failed",
				zap.String("feedback_id", entry.ID.String()),
				zap.Error(updateErr),
			)
			continue
		}

		if status == model.FeedbackStatusFailed {
			failed++
			metrics.IncFeedbackSubmission(string(model.FeedbackStatusFailed))
			s.logger.Error("feedback delivery abandoned",
				zap.String("feedback_id", entry.ID.String()),
				zap.Int("attempts", attempts),
				zap.Error(deliverErr),
			)
			if s.bus != nil {
				s.bus.Publish(event.EventFeedbackFailed, event.FeedbackFailedPayload{
					FeedbackID: entry.ID.String(),
					Attempts:   attempts,
					LastError:  deliverErr.Error(),
				})
			}
		}
	}

	return delivered, failed, nil
}

func (s *FeedbackService) List(
	ctx context.Context,
	typeFilter, statusFilter string,
	page, pageSize int,
) ([]*model.Feedback, int64, error) {
	limit, offset := pageToPagination(page, pageSize)
	filter := repository.FeedbackListFilter{
		Pagination: repository.Pagination{Limit: limit, Offset: offset},
	}

	if trimmed := strings.TrimSpace(typeFilter); trimmed != "" {
		parsed, err := parseFeedbackType(trimmed)
		if err != nil {
			return nil, 0, err
		}
		filter.Type = &parsed
	}
	if trimmed := strings.TrimSpace(statusFilter); trimmed != "" {
		parsed, err := parseFeedbackStatus(trimmed)
		if err != nil {
			return nil, 0, err
		}
		filter.Status = &parsed
	}

	items, err := s.feedbackRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.feedbackRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (s *FeedbackService) deliver(ctx context.Context, entry *model.Feedback) error {
	if s.submitter == nil {
		return errors.New("form submitter is not configured")
	}

	startedAt := time.Now()
	values := s.submitter.Values(
		entry.Name,
		entry.Email,
		string(entry.Type),
		entry.Subject,
		entry.Message,
		entry.Rating,
	)
	err := s.submitter.Submit(ctx, values)
	metrics.ObserveFormsDeliveryDuration(time.Since(startedAt))
	return err
}

// buildFeedbackForSubmit applies the per-type gating: feature requests need
// a subject and message, everything else needs a rating in 1..5.
func buildFeedbackForSubmit(userID *string, req SubmitFeedbackRequest) (*model.Feedback, error) {
	feedbackType, err := parseFeedbackType(req.Type)
	if err != nil {
		return nil, err
	}

	name := sanitize.Text(req.Name)
	email := sanitize.Text(req.Email)
	subject := sanitize.Text(req.Subject)
	message := sanitize.Text(req.Message)

	switch feedbackType {
	case model.FeedbackTypeFeature:
		if subject == "" || message == "" {
			return nil, ErrInvalidFeedbackReq
		}
	default:
		if req.Rating == nil || *req.Rating < 1 || *req.Rating > 5 {
			return nil, ErrInvalidFeedbackReq
		}
	}

	var uid *uuid.UUID
	if userID != nil && strings.TrimSpace(*userID) != "" {
		parsed, parseErr := uuid.Parse(strings.TrimSpace(*userID))
		if parseErr != nil {
			return nil, ErrInvalidUserID
		}
		uid = &parsed
	}

	var rating *int
	if req.Rating != nil {
		value := *req.Rating
		rating = &value
	}

	now := time.Now().UTC()
	return &model.Feedback{
		ID:        uuid.New(),
		UserID:    uid,
		Type:      feedbackType,
		Name:      name,
		Email:     email,
		Subject:   subject,
		Message:   message,
		Rating:    rating,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func parseFeedbackType(raw string) (model.FeedbackType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "general":
		return model.FeedbackTypeGeneral, nil
	case "ui":
		return model.FeedbackTypeUI, nil
	case "feature":
		return model.FeedbackTypeFeature, nil
	case "other":
		return model.FeedbackTypeOther, nil
	default:
		return "", ErrInvalidFeedbackReq
	}
}

func parseFeedbackStatus(raw string) (model.FeedbackStatus, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "delivered":
		return model.FeedbackStatusDelivered, nil
	case "queued":
		return model.FeedbackStatusQueued, nil
	case "failed":
		return model.FeedbackStatusFailed, nil
	default:
		return "", ErrInvalidFeedbackReq
	}
}
