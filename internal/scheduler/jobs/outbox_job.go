package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"unishare-hub/internal/service"
)

type OutboxJob struct {
	feedbackService *service.FeedbackService
	logger          *zap.Logger
}

func NewOutboxJob(feedbackService *service.FeedbackService, logger *zap.Logger) *OutboxJob {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &OutboxJob{
		feedbackService: feedbackService,
		logger:          logger,
	}
}

func (j *OutboxJob) Drain() {
	if j == nil || j.feedbackService == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	delivered, failed, err := j.feedbackService.DrainOutbox(ctx)
	if err != nil {
		j.logger.Warn("outbox drain failed", zap.Error(err))
		return
	}

	if delivered > 0 || failed > 0 {
		j.logger.Info("outbox drained",
			zap.Int("delivered", delivered),
			zap.Int("failed", failed),
		)
	}
}
