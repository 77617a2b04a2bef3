package rate

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const defaultPrewarmInterval = 15 * time.Minute

// Scheduler periodically pre-warms the cache for a fixed list of base
// currencies so interactive lookups mostly hit the fast path and history keeps
// accumulating even without traffic.
type Scheduler struct {
	cache      *Cache
	currencies []string
	interval   time.Duration
	// -----
	sched gocron.Scheduler
}

func (s *Scheduler) Start(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	s.sched = scheduler

	job := func(jobCtx context.Context) {
		execID := uuid.NewString()
		failed := PrewarmRates(jobCtx, execID, s.cache, s.currencies, s.interval)
		if failed > 0 {
			logrus.Errorf("Prewarm job %s finished with %d failed currencies", execID, failed)
		}
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(job),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}

	scheduler.Start()

	// Stop scheduler when the provided context is canceled.
	go func() {
		<-ctx.Done()
		if sdErr := s.Shutdown(); sdErr != nil {
			logrus.Errorf("Scheduler shutdown error: %v", sdErr)
		}
	}()
	return nil
}

func (s *Scheduler) Shutdown() error {
	if s.sched == nil {
		return nil
	}
	err := s.sched.Shutdown()
	s.sched = nil
	return err
}

func NewScheduler(cache *Cache, currencies []string, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = defaultPrewarmInterval
	}
	return &Scheduler{cache: cache, currencies: currencies, interval: interval}
}
