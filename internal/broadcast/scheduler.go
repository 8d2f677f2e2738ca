package broadcast

import (
	"context"
	"fmt"
	"sync"
	"time"

	"letterdrop/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Scheduler is the cooperative recurring timer: each tick promotes due
// posts, then runs one broadcast cycle. A tick that fails partway never
// prevents the next tick; per-item errors are logged by the components
// themselves. Exactly one scheduler instance should be active per
// process; Start is idempotent so calling it twice is a no-op rather
// than a double-fire.
type Scheduler struct {
	promoter    *Promoter
	broadcaster *Broadcaster
	log         *logger.Logger
	interval    time.Duration
	clock       func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	started bool
}

func NewScheduler(promoter *Promoter, broadcaster *Broadcaster, log *logger.Logger, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		promoter:    promoter,
		broadcaster: broadcaster,
		log:         log,
		interval:    interval,
		clock:       time.Now,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	c := cron.New()
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := c.AddFunc(spec, func() { s.Tick(ctx) }); err != nil {
		return fmt.Errorf("scheduler: register tick: %w", err)
	}
	c.Start()

	s.cron = c
	s.started = true
	s.log.Infof("scheduler started, tick interval %s", s.interval)
	return nil
}

// Stop halts ticking. In-flight work is allowed to complete; Stop returns
// after the running tick, if any, has finished.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	<-s.cron.Stop().Done()
	s.cron = nil
	s.started = false
	s.log.Infof("scheduler stopped")
}

// Tick runs one promote-then-broadcast pass. Exported so the direct
// publish path and tests can drive the same code the timer fires.
func (s *Scheduler) Tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorf("scheduler: tick panic recovered: %v", r)
		}
	}()
	s.promoter.PromoteDue(ctx, s.clock())
	s.broadcaster.RunCycle(ctx)
}
