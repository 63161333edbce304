package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/okian/swiss/pkg/logger"
)

const exportTimeout = 30 * time.Second

// Scheduler runs an export on a fixed interval.
type Scheduler struct {
	sched    gocron.Scheduler
	exporter *Exporter
	logger   logger.Logger
}

// NewScheduler registers a periodic export. The first run happens right after Start.
func NewScheduler(exporter *Exporter, interval time.Duration) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	s := &Scheduler{
		sched:    sched,
		exporter: exporter,
		logger:   logger.Get().Named("snapshot-scheduler"),
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.run),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("schedule snapshot job: %w", err)
	}
	return s, nil
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.sched.Start()
}

// Shutdown stops the scheduler and waits for a running export to finish.
func (s *Scheduler) Shutdown() error {
	return s.sched.Shutdown()
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
	defer cancel()

	if _, err := s.exporter.Export(ctx); err != nil {
		s.logger.Error(ctx, "scheduled snapshot failed", logger.Error(err))
	}
}
