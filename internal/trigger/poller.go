package trigger

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Poller requests a rebuild on a fixed interval, for file systems that do not
// deliver change notifications.
type Poller struct {
	scheduler gocron.Scheduler
	interval  time.Duration
}

// NewPoller schedules next every interval. Call Start to begin.
func NewPoller(next Requester, interval time.Duration) (*Poller, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("poll interval must be > 0, got %s", interval)
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(next.RequestBuild),
		gocron.WithName("poll-rebuild"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create poll job: %w", err)
	}
	return &Poller{scheduler: s, interval: interval}, nil
}

// Start begins polling.
func (p *Poller) Start() {
	slog.Info("Polling for changes", slog.Duration("interval", p.interval))
	p.scheduler.Start()
}

// Stop shuts the scheduler down.
func (p *Poller) Stop() error {
	return p.scheduler.Shutdown()
}
