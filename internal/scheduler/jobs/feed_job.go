package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"unishare-hub/internal/metrics"
	"unishare-hub/internal/service"
)

type FeedJob struct {
	announcementService *service.AnnouncementService
	logger              *zap.Logger
}

func NewFeedJob(announcementService *service.AnnouncementService, logger *zap.Logger) *FeedJob {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &FeedJob{
		announcementService: announcementService,
		logger:              logger,
	}
}

func (j *FeedJob) SyncFeed() {
	if j == nil || j.announcementService == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	start := time.Now()
	synced, err := j.announcementService.SyncFromFeed(ctx)
	metrics.ObserveFeedSyncDuration(time.Since(start))
	if err != nil {
		metrics.IncFeedSyncError()
		j.logger.Warn("feed sync failed", zap.Error(err))
		return
	}

	j.logger.Debug("feed sync finished", zap.Int("synced", synced))
}
