package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	SessionCleanupJob = "session_cleanup"
	LimiterPruneJob   = "rate_limiter_prune"

	limiterIdle = 30 * time.Minute
)

type SessionPurger interface {
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

type LimiterPruner interface {
	Prune(idle time.Duration) int
}

type JobRecorder interface {
	RecordJobRun(job string, processed int64, duration time.Duration, success bool)
}

// CleanupScheduler periodically deletes expired sessions and idle rate
// limiter buckets. Expired sessions are already refused on read; this only
// reclaims storage.
type CleanupScheduler struct {
	cron     *cron.Cron
	sessions SessionPurger
	limiter  LimiterPruner
	recorder JobRecorder
	log      *zap.Logger
	timeout  time.Duration
}

func NewCleanupScheduler(sessions SessionPurger, limiter LimiterPruner, recorder JobRecorder, log *zap.Logger) *CleanupScheduler {
	return &CleanupScheduler{
		cron:     cron.New(),
		sessions: sessions,
		limiter:  limiter,
		recorder: recorder,
		log:      log,
		timeout:  time.Minute,
	}
}

// Start registers the jobs on spec (standard cron syntax or "@every 1h").
func (s *CleanupScheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.PurgeSessions); err != nil {
		return err
	}
	if s.limiter != nil {
		if _, err := s.cron.AddFunc(spec, s.PruneLimiters); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.log.Info("cleanup scheduler started", zap.String("schedule", spec))
	return nil
}

func (s *CleanupScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("cleanup scheduler stopped")
}

func (s *CleanupScheduler) PurgeSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	deleted, err := s.sessions.PurgeExpiredSessions(ctx)
	s.record(SessionCleanupJob, deleted, time.Since(start), err == nil)
	if err != nil {
		s.log.Error("failed to purge expired sessions", zap.Error(err))
		return
	}
	s.log.Info("expired sessions purged", zap.Int64("deleted", deleted))
}

func (s *CleanupScheduler) PruneLimiters() {
	start := time.Now()
	removed := s.limiter.Prune(limiterIdle)
	s.record(LimiterPruneJob, int64(removed), time.Since(start), true)
	if removed > 0 {
		s.log.Debug("idle rate limiters pruned", zap.Int("removed", removed))
	}
}

func (s *CleanupScheduler) record(job string, processed int64, d time.Duration, success bool) {
	if s.recorder != nil {
		s.recorder.RecordJobRun(job, processed, d, success)
	}
}
