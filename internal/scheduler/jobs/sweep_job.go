package jobs

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// SweepJob runs the time-based state transitions nothing else triggers:
// rides whose departure has passed stop accepting requests.
type SweepJob struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewSweepJob(pool *pgxpool.Pool, logger *zap.Logger) *SweepJob {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SweepJob{
		pool:   pool,
		logger: logger,
	}
}

func (j *SweepJob) CloseDepartedRides() {
	if j == nil || j.pool == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tag, err := j.pool.Exec(
		ctx,
		`UPDATE rides
		    SET status = 'done', updated_at = NOW()
		  WHERE status IN ('open', 'full')
		    AND departs_at <= NOW()`,
	)
	if err != nil {
		j.logger.Warn("close departed rides failed", zap.Error(err))
		return
	}

	if tag.RowsAffected() > 0 {
		j.logger.Info("departed rides closed", zap.Int64("count", tag.RowsAffected()))
	}
}
