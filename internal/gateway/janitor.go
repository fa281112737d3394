package gateway

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Janitor periodically drops streams whose consumer never attached. Tasks
// are untouched; only the stream map is swept.
type Janitor struct {
	cron     *cron.Cron
	registry *Registry
	ttl      time.Duration
}

// NewJanitor schedules a sweep on the given cron expression.
func NewJanitor(registry *Registry, schedule string, ttl time.Duration) (*Janitor, error) {
	j := &Janitor{cron: cron.New(), registry: registry, ttl: ttl}
	if _, err := j.cron.AddFunc(schedule, j.sweep); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return j, nil
}

func (j *Janitor) Start() {
	j.cron.Start()
	slog.Info("stream janitor started", "ttl", j.ttl.String())
}

// Stop halts scheduling and waits for a running sweep to finish.
func (j *Janitor) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
}

func (j *Janitor) sweep() {
	if dropped := j.registry.SweepIdle(j.ttl); dropped > 0 {
		slog.Info("swept abandoned streams", "count", dropped)
	}
}
