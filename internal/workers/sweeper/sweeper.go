package sweeper

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"labelcheck/internal/ports"
)

// Sweeper deletes expired sessions on a cron schedule.
type Sweeper struct {
	repo ports.SessionPurger
	log  *zap.Logger
	now  func() time.Time
}

func New(repo ports.SessionPurger, log *zap.Logger) *Sweeper {
	return &Sweeper{repo: repo, log: log, now: time.Now}
}

// Sweep runs one purge pass.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	n, err := s.repo.PurgeExpiredSessions(ctx, s.now().UTC())
	if err != nil {
		s.log.Warn("session sweep failed", zap.Error(err))
		return 0, err
	}
	if n > 0 {
		s.log.Info("expired sessions purged", zap.Int64("removed", n))
	}
	return n, nil
}

// Run schedules Sweep with spec (for example "@every 1h") and blocks until
// ctx is done. In-flight passes finish before Run returns.
func Run(ctx context.Context, s *Sweeper, spec string) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(spec, func() { _, _ = s.Sweep(ctx) }); err != nil {
		return err
	}
	c.Start()
	s.log.Info("session sweeper started", zap.String("schedule", spec))
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
