package playback

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Dry logs commands without producing sound. Position advances with the
// wall clock so pause and resume look realistic in the logs.
type Dry struct {
	mu      sync.Mutex
	source  string
	started time.Time
	offset  time.Duration
	paused  bool
	now     func() time.Time
}

func NewDry() *Dry {
	return NewDryWithClock(time.Now)
}

// NewDryWithClock is NewDry with a custom clock, for replaying a day.
func NewDryWithClock(now func() time.Time) *Dry {
	return &Dry{now: now}
}

func (d *Dry) Play(ctx context.Context, source string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.source, d.started, d.offset, d.paused = source, d.now(), 0, false
	log.Info().Str("driver", "dry").Str("source", source).Msg("play")
	return nil
}

func (d *Dry) Pause(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.source == "" {
		return ErrNotPlaying
	}
	d.offset = d.positionLocked()
	d.paused = true
	log.Info().Str("driver", "dry").Str("source", d.source).Dur("position", d.offset).Msg("pause")
	return nil
}

func (d *Dry) Resume(ctx context.Context, source string, position time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.source, d.started, d.offset, d.paused = source, d.now(), position, false
	log.Info().Str("driver", "dry").Str("source", source).Dur("position", position).Msg("resume")
	return nil
}

func (d *Dry) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.source != "" {
		log.Info().Str("driver", "dry").Str("source", d.source).Msg("stop")
	}
	d.source, d.offset, d.paused = "", 0, false
	return nil
}

func (d *Dry) Position() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.positionLocked()
}

func (d *Dry) positionLocked() time.Duration {
	switch {
	case d.source == "":
		return 0
	case d.paused:
		return d.offset
	}
	return d.offset + d.now().Sub(d.started)
}
