package service

import (
	"context"
	"runtime"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"go.uber.org/zap"

	loggerpkg "unishare-hub/pkg/logger"
)

type SystemStats struct {
	CPUPercent    float64   `json:"cpu_percent"`
	MemPercent    float64   `json:"mem_percent"`
	Goroutines    int       `json:"goroutines"`
	HeapAllocMB   float64   `json:"heap_alloc_mb"`
	DBTotalConns  int32     `json:"db_total_conns"`
	DBIdleConns   int32     `json:"db_idle_conns"`
	UptimeSeconds float64   `json:"uptime_seconds"`
	Timestamp     time.Time `json:"timestamp"`
}

type SystemService struct {
	pool      *pgxpool.Pool
	logStore  *loggerpkg.SystemLogStore
	logger    *zap.Logger
	startedAt time.Time
}

func NewSystemService(pool *pgxpool.Pool, logStore *loggerpkg.SystemLogStore, logger *zap.Logger) *SystemService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SystemService{
		pool:      pool,
		logStore:  logStore,
		logger:    logger,
		startedAt: time.Now().UTC(),
	}
}

// Stats samples process and host health for the admin dashboard. Individual
// probe failures degrade to zero values rather than failing the whole call.
func (s *SystemService) Stats(ctx context.Context) (*SystemStats, error) {
	stats := &SystemStats{
		Goroutines:    runtime.NumGoroutine(),
		UptimeSeconds: time.Since(s.startedAt).Seconds(),
		Timestamp:     time.Now().UTC(),
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats.HeapAllocMB = float64(memStats.HeapAlloc) / (1 << 20)

	if values, err := cpu.PercentWithContext(ctx, 200*time.Millisecond, false); err == nil && len(values) > 0 {
		stats.CPUPercent = values[0]
	} else if err != nil {
		s.logger.Debug("cpu sample failed", zap.Error(err))
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		stats.MemPercent = vm.UsedPercent
	} else {
		s.logger.Debug("memory sample failed", zap.Error(err))
	}

	if s.pool != nil {
		poolStat := s.pool.Stat()
		stats.DBTotalConns = poolStat.TotalConns()
		stats.DBIdleConns = poolStat.IdleConns()
	}

	return stats, nil
}

func (s *SystemService) QueryLogs(query loggerpkg.LogQuery) ([]loggerpkg.SystemLogEntry, int64) {
	if s.logStore == nil {
		return nil, 0
	}
	return s.logStore.Query(query)
}
