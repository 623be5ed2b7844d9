package scheduler

import (
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"

	"github.com/i474232898/watch-weather-bridge/internal/bridge"
)

// Scheduler periodically asks the bridge for a refresh, standing in for the
// watch's own tick-driven requests.
type Scheduler struct {
	scheduler *gocron.Scheduler
	listener  bridge.Listener
	interval  time.Duration
	log       zerolog.Logger
}

// New creates a new Scheduler.
func New(interval time.Duration, listener bridge.Listener, log zerolog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		listener:  listener,
		interval:  interval,
		log:       log.With().Str("component", "scheduler").Logger(),
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.log.Info().Msg("periodic refresh disabled")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).WaitForSchedule().Do(func() {
		id := s.listener.OnRefreshRequested(bridge.RefreshPayload{})
		s.log.Info().Str("run_id", id).Msg("periodic refresh started")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
