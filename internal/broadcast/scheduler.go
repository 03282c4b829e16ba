package broadcast

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/rzbill/pushsub/internal/config"
	logpkg "github.com/rzbill/pushsub/pkg/log"
)

// Scheduler runs configured broadcasts on cron schedules.
type Scheduler struct {
	cron   *cron.Cron
	logger logpkg.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler registers one cron job per schedule. Filters are compiled up
// front so a bad expression fails here rather than at fire time.
func NewScheduler(c *Coordinator, schedules []config.Schedule, logger logpkg.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = logpkg.NewNopLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{cron: cron.New(), logger: logger, ctx: ctx, cancel: cancel}
	for _, sc := range schedules {
		sc := sc
		if _, err := NewFilter(sc.Filter); err != nil {
			cancel()
			return nil, fmt.Errorf("schedule %q: filter: %w", sc.Feature, err)
		}
		_, err := s.cron.AddFunc(sc.Cron, func() {
			rep, err := c.BroadcastFiltered(s.ctx, sc.Feature, sc.Filter)
			if err != nil {
				s.logger.Error("scheduled broadcast failed", logpkg.Str("feature", sc.Feature), logpkg.Err(err))
				return
			}
			s.logger.Info("scheduled broadcast",
				logpkg.Str("run_id", rep.RunID),
				logpkg.Str("feature", sc.Feature),
				logpkg.Int("requests", rep.Requests()))
		})
		if err != nil {
			cancel()
			return nil, fmt.Errorf("schedule %q: cron %q: %w", sc.Feature, sc.Cron, err)
		}
	}
	return s, nil
}

// Len returns the number of registered schedules.
func (s *Scheduler) Len() int { return len(s.cron.Entries()) }

// Start begins firing schedules in the background.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts the schedule and waits for running broadcasts to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}
