// Package scheduler runs the periodic registry reachability probe that
// feeds the health endpoint.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/giygas/israeldrugs-mcp/entities"
	"github.com/giygas/israeldrugs-mcp/interfaces"
	"github.com/giygas/israeldrugs-mcp/logging"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// probeTerm is a stable, common name the autocomplete endpoint always knows.
const probeTerm = "acamol"

// Scheduler probes the registry on a fixed interval.
type Scheduler struct {
	client    interfaces.RegistryClient
	probe     interfaces.UpstreamProbe
	interval  time.Duration
	timeout   time.Duration
	scheduler *gocron.Scheduler
}

// NewScheduler creates a scheduler probing every interval.
func NewScheduler(client interfaces.RegistryClient, probe interfaces.UpstreamProbe, interval time.Duration) *Scheduler {
	timeout := 30 * time.Second
	if interval < timeout {
		timeout = interval
	}
	return &Scheduler{
		client:    client,
		probe:     probe,
		interval:  interval,
		timeout:   timeout,
		scheduler: gocron.NewScheduler(time.Local),
	}
}

// Start schedules the probe; the first run happens immediately.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		return fmt.Errorf("probe interval must be positive, got %s", s.interval)
	}

	_, err := s.scheduler.Every(s.interval).SingletonMode().Do(s.probeOnce)
	if err != nil {
		logging.Error("Failed to schedule registry probe", "error", err)
		return fmt.Errorf("failed to schedule registry probe: %w", err)
	}

	s.scheduler.StartAsync()
	logging.Info("Registry probe scheduled", "interval", s.interval.String())
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// probeOnce issues one cheap autocomplete call and records the outcome.
func (s *Scheduler) probeOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	_, err := s.client.Autocomplete(ctx, entities.AutocompleteParams{
		Term:              probeTerm,
		IncludeTradeNames: true,
	})
	latency := time.Since(start)

	if err != nil {
		logging.Warn("Registry probe failed", "error", err, "duration_ms", latency.Milliseconds())
		s.probe.RecordFailure(time.Now(), err)
		return
	}

	logging.Debug("Registry probe succeeded", "duration_ms", latency.Milliseconds())
	s.probe.RecordSuccess(time.Now(), latency)
}
