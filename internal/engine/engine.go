// Package engine runs the once-per-second evaluation loop. It owns the audio
// state and the overlay machine, recomputes the prayer schedule when settings
// or the date change, and hands playback commands to a driver.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Ganezza/tvmasjid-sub000/internal/audio"
	"github.com/Ganezza/tvmasjid-sub000/internal/model"
	"github.com/Ganezza/tvmasjid-sub000/internal/overlay"
	"github.com/Ganezza/tvmasjid-sub000/internal/playback"
	"github.com/Ganezza/tvmasjid-sub000/internal/prayer"
	"github.com/Ganezza/tvmasjid-sub000/internal/settings"
)

const (
	queueSize      = 64
	commandTimeout = 10 * time.Second
	// RetryInterval is how often an unavailable settings store is polled.
	RetryInterval = 30 * time.Second
)

type Config struct {
	Calculator prayer.Calculator
	Store      settings.Store
	Driver     playback.Driver
	// Now defaults to time.Now.
	Now func() time.Time
}

// Update is published after every tick.
type Update struct {
	At       time.Time            `json:"at"`
	Schedule model.PrayerSchedule `json:"-"`
	Playback audio.View           `json:"playback"`
	Overlay  overlay.Snapshot     `json:"overlay"`
	Events   []overlay.Event      `json:"events,omitempty"`
	Commands []audio.Command      `json:"-"`
}

type Engine struct {
	calc   prayer.Calculator
	store  settings.Store
	driver playback.Driver
	now    func() time.Time

	mu           sync.Mutex
	settings     model.Settings
	haveSettings bool
	outage       bool
	schedule     model.PrayerSchedule
	scheduleDay  string
	// scheduleStale is set while the schedule for scheduleDay failed to
	// compute; the retry job tries again.
	scheduleStale bool
	state         audio.State
	overlay       *overlay.Machine
	last          Update
	closed        bool

	subs   map[int]chan Update
	nextID int

	cmds           chan audio.Command
	pending        sync.WaitGroup
	dispatcherDone chan struct{}
	cancelSettings func()
	closeOnce      sync.Once
}

// New builds an engine and starts its dispatcher. Settings are not loaded
// until Start.
func New(cfg Config) *Engine {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	e := &Engine{
		calc:           cfg.Calculator,
		store:          cfg.Store,
		driver:         cfg.Driver,
		now:            now,
		state:          audio.NewState(),
		overlay:        overlay.NewMachine(),
		subs:           map[int]chan Update{},
		cmds:           make(chan audio.Command, queueSize),
		dispatcherDone: make(chan struct{}),
	}
	go e.dispatcher()
	return e
}

// Start loads the first settings snapshot and subscribes to changes. An
// unavailable store is not fatal: audio and overlays stay disabled until a
// snapshot arrives.
func (e *Engine) Start(ctx context.Context) error {
	if n, ok := e.driver.(playback.Notifier); ok {
		n.SetListener(e)
	}
	e.cancelSettings = e.store.OnSettingsChanged(e.applySettings)
	if err := e.Refresh(ctx); err != nil && !errors.Is(err, settings.ErrUnavailable) {
		return err
	}
	return nil
}

// Refresh pulls a snapshot from the store.
func (e *Engine) Refresh(ctx context.Context) error {
	s, err := e.store.Snapshot(ctx)
	if err != nil {
		e.mu.Lock()
		if !e.outage {
			e.outage = true
			ev := log.Warn().Err(err)
			if e.haveSettings {
				ev.Msg("settings unavailable, keeping last good settings")
			} else {
				ev.Msg("settings unavailable, audio and overlays disabled")
			}
		}
		e.mu.Unlock()
		return err
	}
	e.applySettings(s)
	return nil
}

func (e *Engine) applySettings(s model.Settings) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.outage {
		log.Info().Msg("settings available again")
	}
	e.settings = s
	e.haveSettings = true
	e.outage = false
	e.recompute(e.now())
}

// recompute must be called with e.mu held. A failed computation keeps the
// previous schedule and marks it stale for the retry job.
func (e *Engine) recompute(now time.Time) {
	loc := e.settings.Location()
	day := now.In(loc).Format(model.DateLayout)
	e.scheduleDay = day
	e.scheduleStale = false
	if !e.haveSettings {
		return
	}
	e.scheduleStale = true
	sched, err := e.calc.Compute(now.In(loc), e.settings)
	if err != nil {
		log.Error().Err(err).Str("date", day).Msg("prayer schedule unavailable, keeping last good schedule")
		return
	}
	e.schedule = sched
	e.scheduleStale = false
	log.Info().Str("date", sched.Date).Bool("friday", sched.Friday).Msg("prayer schedule computed")
}

// Tick evaluates audio and overlays for now. It never panics; a failing tick
// is logged and the previous update is returned.
func (e *Engine) Tick(now time.Time) (u Update) {
	now = now.Truncate(time.Second)
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Time("at", now).Msg("tick failed")
			u = e.last
		}
	}()
	if e.closed {
		return e.last
	}

	if now.In(e.settings.Location()).Format(model.DateLayout) != e.scheduleDay {
		e.recompute(now)
	}

	s := e.effectiveSettings()
	next, cmds := audio.Evaluate(audio.Input{
		Now:      now,
		Schedule: e.schedule,
		Settings: s,
		Position: e.driver.Position(),
	}, e.state)
	e.state = next
	snap, events := e.overlay.Advance(now, e.schedule, s)

	for _, cmd := range cmds {
		e.enqueue(cmd)
	}
	for _, ev := range events {
		log.Info().Str("event", string(ev.Kind)).Str("family", string(ev.Family)).
			Str("phase", string(ev.Phase)).Str("prayer", string(ev.Prayer)).Msg("overlay")
	}

	u = Update{
		At:       now,
		Schedule: e.schedule,
		Playback: e.state.View(),
		Overlay:  snap,
		Events:   events,
		Commands: cmds,
	}
	e.last = u
	e.publish(u)
	return u
}

// effectiveSettings disables every feature until a snapshot has been loaded.
func (e *Engine) effectiveSettings() model.Settings {
	if e.haveSettings {
		return e.settings
	}
	s := model.DefaultSettings()
	s.AudioEnabled = false
	s.RamadanMode = false
	return s
}

// enqueue must be called with e.mu held.
func (e *Engine) enqueue(cmd audio.Command) {
	e.pending.Add(1)
	select {
	case e.cmds <- cmd:
	default:
		e.pending.Done()
		log.Error().Str("op", cmd.Op.String()).Str("source", cmd.Source).Msg("playback queue full, command dropped")
	}
}

func (e *Engine) dispatcher() {
	defer close(e.dispatcherDone)
	for cmd := range e.cmds {
		e.execute(cmd)
		e.pending.Done()
	}
}

func (e *Engine) execute(cmd audio.Command) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	var err error
	switch cmd.Op {
	case audio.OpPlay:
		err = e.driver.Play(ctx, cmd.Source)
	case audio.OpPause:
		err = e.driver.Pause(ctx)
	case audio.OpResume:
		err = e.driver.Resume(ctx, cmd.Source, cmd.Position)
	case audio.OpStop:
		err = e.driver.Stop(ctx)
	}
	if err == nil {
		log.Debug().Str("op", cmd.Op.String()).Str("source", cmd.Source).Msg("playback command")
		return
	}
	if cmd.Op == audio.OpPlay || cmd.Op == audio.OpResume {
		e.ReportFailure(cmd.Source, err)
		return
	}
	log.Warn().Err(err).Str("op", cmd.Op.String()).Msg("playback command failed")
}

// Drain blocks until every queued command has reached the driver.
func (e *Engine) Drain() {
	e.pending.Wait()
}

// ReportFailure deselects the clip; it is not retried within its window.
func (e *Engine) ReportFailure(source string, err error) {
	log.Warn().Err(err).Str("source", source).Msg("playback failed")
	e.mu.Lock()
	e.state = audio.Fail(e.state, source)
	e.mu.Unlock()
}

// ReportEnded frees the slot of a clip that played to its end.
func (e *Engine) ReportEnded(source string) {
	e.mu.Lock()
	e.state = audio.Finish(e.state, source)
	e.mu.Unlock()
}

// Subscribe returns a channel receiving every update. Slow subscribers miss
// updates rather than stall the tick.
func (e *Engine) Subscribe(buffer int) (<-chan Update, func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ch := make(chan Update, buffer)
	if e.closed {
		close(ch)
		return ch, func() {}
	}
	id := e.nextID
	e.nextID++
	e.subs[id] = ch
	return ch, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if c, ok := e.subs[id]; ok {
			delete(e.subs, id)
			close(c)
		}
	}
}

// publish must be called with e.mu held.
func (e *Engine) publish(u Update) {
	for _, ch := range e.subs {
		select {
		case ch <- u:
		default:
		}
	}
}

// Last returns the most recent update.
func (e *Engine) Last() Update {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// Schedule returns the schedule in effect.
func (e *Engine) Schedule() model.PrayerSchedule {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.schedule
}

// Settings returns the settings in effect and whether any were loaded.
func (e *Engine) Settings() (model.Settings, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings, e.haveSettings
}

// Run ticks until ctx is done, then closes the engine.
func (e *Engine) Run(ctx context.Context, t Ticker) error {
	retry := func() { e.retry(ctx) }
	if err := t.Start(func(now time.Time) { e.Tick(now) }, RetryInterval, retry); err != nil {
		return fmt.Errorf("start ticker: %w", err)
	}
	log.Info().Msg("engine running")
	<-ctx.Done()
	t.Stop()
	return e.Close()
}

// retry polls an unavailable settings store and recomputes a schedule that
// failed to compute.
func (e *Engine) retry(ctx context.Context) {
	e.mu.Lock()
	down := e.outage || !e.haveSettings
	if e.scheduleStale && !e.closed {
		e.recomputeRecovered(e.now())
	}
	e.mu.Unlock()
	if down {
		rctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		_ = e.Refresh(rctx)
	}
}

// recomputeRecovered must be called with e.mu held.
func (e *Engine) recomputeRecovered(now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Time("at", now).Msg("prayer schedule computation failed")
		}
	}()
	e.recompute(now)
}

// Close silences the driver, drains the queue and detaches from the store.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		e.mu.Lock()
		e.closed = true
		for id, ch := range e.subs {
			delete(e.subs, id)
			close(ch)
		}
		e.mu.Unlock()

		// no tick enqueues once closed is set
		e.pending.Add(1)
		e.cmds <- audio.Command{Op: audio.OpStop}
		close(e.cmds)
		<-e.dispatcherDone
		if e.cancelSettings != nil {
			e.cancelSettings()
		}
		log.Info().Msg("engine stopped")
	})
	return nil
}
