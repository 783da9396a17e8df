package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"plansbot/internal/ports"
)

// CronScheduler drives recurring runs from a cron expression. Ticks that
// fire while a run is still in flight are skipped: the state store assumes
// one writer at a time.
type CronScheduler struct {
	spec     string
	location *time.Location
	cron     *cron.Cron
	running  atomic.Bool
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler from a cron expression and timezone.
func NewCronScheduler(spec string, location *time.Location) *CronScheduler {
	if location == nil {
		location = time.UTC
	}
	return &CronScheduler{spec: spec, location: location}
}

// Start registers the job and begins ticking.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}
	if c.cron != nil {
		return nil
	}

	c.cron = cron.New(cron.WithLocation(c.location))
	_, err := c.cron.AddFunc(c.spec, func() {
		if !c.running.CompareAndSwap(false, true) {
			return
		}
		defer c.running.Store(false)
		job(time.Now().In(c.location))
	})
	if err != nil {
		c.cron = nil
		return fmt.Errorf("cron spec %q: %w", c.spec, err)
	}

	c.cron.Start()
	return nil
}

// Stop halts ticking and waits for an in-flight run, bounded by ctx.
func (c *CronScheduler) Stop(ctx context.Context) error {
	if c.cron == nil {
		return nil
	}

	done := c.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	c.cron = nil
	return nil
}
