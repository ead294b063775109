package engine

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
)

// Ticker drives the engine. Tests skip it and call Engine.Tick directly.
type Ticker interface {
	// Start runs tick once per second and every on the given period.
	Start(tick func(time.Time), every time.Duration, job func()) error
	Stop()
}

// CronTicker runs jobs on a gocron scheduler in singleton mode, so a slow
// tick delays the next one instead of overlapping it.
type CronTicker struct {
	scheduler *gocron.Scheduler
}

func NewCronTicker(loc *time.Location) *CronTicker {
	if loc == nil {
		loc = time.Local
	}
	s := gocron.NewScheduler(loc)
	s.SingletonModeAll()
	return &CronTicker{scheduler: s}
}

func (c *CronTicker) Start(tick func(time.Time), every time.Duration, job func()) error {
	if _, err := c.scheduler.Every(1).Second().Do(func() { tick(time.Now()) }); err != nil {
		return fmt.Errorf("schedule tick: %w", err)
	}
	if job != nil && every > 0 {
		if _, err := c.scheduler.Every(every).WaitForSchedule().Do(job); err != nil {
			return fmt.Errorf("schedule job: %w", err)
		}
	}
	c.scheduler.StartAsync()
	return nil
}

func (c *CronTicker) Stop() {
	c.scheduler.Stop()
}
