package scheduler

import (
	"time"

	"github.com/ikkim/dishshot-intake/pkg/logger"
	"github.com/robfig/cron/v3"
)

// Sweeper is satisfied by session.Manager.
type Sweeper interface {
	Sweep(ttl time.Duration) int
}

// SessionSweeper evicts idle wizard sessions on a cron schedule.
type SessionSweeper struct {
	cron     *cron.Cron
	sessions Sweeper
	schedule string
	ttl      time.Duration
}

func NewSessionSweeper(sessions Sweeper, schedule string, ttl time.Duration) *SessionSweeper {
	return &SessionSweeper{
		cron:     cron.New(),
		sessions: sessions,
		schedule: schedule,
		ttl:      ttl,
	}
}

func (s *SessionSweeper) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.run)
	if err != nil {
		logger.Error("Failed to add cron job for session sweep", err, map[string]interface{}{
			"schedule": s.schedule,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Session sweeper started successfully", map[string]interface{}{
		"schedule": s.schedule,
		"ttl":      s.ttl.String(),
	})
	return nil
}

func (s *SessionSweeper) run() {
	removed := s.sessions.Sweep(s.ttl)
	if removed > 0 {
		logger.Info("Evicted idle wizard sessions", map[string]interface{}{
			"removed": removed,
		})
	}
}

// Stop waits for a running sweep to finish.
func (s *SessionSweeper) Stop() {
	logger.Info("Stopping session sweeper...", nil)
	<-s.cron.Stop().Done()
	logger.Info("Session sweeper stopped", nil)
}
