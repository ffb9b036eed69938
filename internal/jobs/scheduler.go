package jobs

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sbpickleball/match_app/pkg/logger"
)

// Sweep is a periodic cleanup that reports how many entries it removed.
type Sweep struct {
	Name  string
	Every time.Duration
	Run   func() int
}

// Scheduler runs the background sweeps.
type Scheduler struct {
	sched gocron.Scheduler
}

func NewScheduler(sweeps ...Sweep) (*Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	for _, sw := range sweeps {
		sw := sw
		_, err := sched.NewJob(
			gocron.DurationJob(sw.Every),
			gocron.NewTask(func() { runSweep(sw) }),
			gocron.WithName(sw.Name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			_ = sched.Shutdown()
			return nil, fmt.Errorf("failed to schedule %s: %w", sw.Name, err)
		}
	}

	return &Scheduler{sched: sched}, nil
}

func (s *Scheduler) Start() {
	s.sched.Start()
	logger.Info("Background jobs started", "jobs", len(s.sched.Jobs()))
}

func (s *Scheduler) Shutdown() error {
	return s.sched.Shutdown()
}

func runSweep(sw Sweep) int {
	removed := sw.Run()
	if removed > 0 {
		logger.Debug("Sweep finished", "job", sw.Name, "removed", removed)
	}
	return removed
}
