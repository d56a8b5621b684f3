package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	specFeedSync    = "0 */10 * * * *"
	specOutboxDrain = "0 * * * * *"
	specRideSweep   = "0 */5 * * * *"
)

type FeedTask interface {
	SyncFeed()
}

type OutboxTask interface {
	Drain()
}

type SweepTask interface {
	CloseDepartedRides()
}

type Deps struct {
	FeedJob   FeedTask
	OutboxJob OutboxTask
	SweepJob  SweepTask
}

func NewScheduler(deps Deps, logger *zap.Logger) *cron.Cron {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC))

	if deps.FeedJob != nil {
		addFunc(c, specFeedSync, "feed.sync", logger, deps.FeedJob.SyncFeed)
	}
	if deps.OutboxJob != nil {
		addFunc(c, specOutboxDrain, "feedback.drain_outbox", logger, deps.OutboxJob.Drain)
	}
	if deps.SweepJob != nil {
		addFunc(c, specRideSweep, "ride.close_departed", logger, deps.SweepJob.CloseDepartedRides)
	}

	return c
}

func addFunc(c *cron.Cron, spec string, name string, logger *zap.Logger, fn func()) {
	if c == nil || fn == nil {
		return
	}

	if _, err := c.AddFunc(spec, func() {
		defer recoverJobPanic(name, logger)
		start := time.Now()
		fn()
		logger.Debug("scheduler job finished", zap.String("job", name), zap.Duration("cost", time.Since(start)))
	}); err != nil {
		logger.Error("register scheduler job failed",
			zap.String("job", name),
			zap.String("spec", spec),
			zap.Error(err),
		)
	}
}

func recoverJobPanic(jobName string, logger *zap.Logger) {
	if logger == nil {
		return
	}

	if recovered := recover(); recovered != nil {
		logger.Error("scheduler job panic recovered",
			zap.String("job", jobName),
			zap.Any("panic", recovered),
		)
	}
}
