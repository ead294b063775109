package audio

import (
	"time"

	"github.com/Ganezza/tvmasjid-sub000/internal/model"
)

// Input is everything a tick decision depends on.
type Input struct {
	Now      time.Time
	Schedule model.PrayerSchedule
	Settings model.Settings
	// Position is the driver-reported offset into the active clip.
	Position time.Duration
}

func (in Input) day() string {
	loc := in.Schedule.Location
	if loc == nil {
		loc = in.Settings.Location()
	}
	return in.Now.In(loc).Format(model.DateLayout)
}

// Evaluate resolves the active trigger for in.Now and returns the next
// state together with the commands needed to get there. st is not
// modified; evaluating the same input twice yields no further commands.
func Evaluate(in Input, st State) (State, []Command) {
	next := st.clone()
	next.rollover(in.day())

	if !in.Settings.AudioEnabled {
		next.Paused = nil
	}

	active := next.Active
	imsakActive := active != nil && active.Kind == KindImsak
	if p := next.Paused; p != nil && !imsakActive && !p.heldByImsak() && !p.Trigger.Window.Contains(in.Now) {
		next.Paused = nil
	}

	cand := selectTrigger(in, next)

	var cmds []Command
	switch {
	case cand == nil:
		// the beep may have ended or failed before its window closed
		if p := next.Paused; p != nil && (imsakActive || p.heldByImsak() && !p.By.Window.Contains(in.Now)) {
			cmds = append(cmds, resume(*p))
			resumed := p.Trigger
			next.Active = &resumed
			next.Paused = nil
			break
		}
		if active == nil {
			break
		}
		next.Active = nil
		if next.Paused == nil {
			cmds = append(cmds, Command{Op: OpStop})
		}

	case active != nil && cand.ID() == active.ID():
		// still playing

	default:
		if active != nil && active.Kind == KindMurottal && cand.Kind != KindMurottal {
			by := *cand
			next.Paused = &PausedMurottal{Trigger: *active, Position: in.Position, By: &by}
			cmds = append(cmds, Command{Op: OpPause})
		} else if p := next.Paused; p != nil && p.heldByImsak() && cand.Kind != KindImsak {
			// a new candidate wins over resuming
			next.Paused = nil
		}
		if cand.Kind == KindMurottal {
			next.Paused = nil
		}
		cmds = append(cmds, play(*cand))
		next.Active = cand
		next.Played[cand.ID()] = true
	}
	return next, cmds
}

func selectTrigger(in Input, st State) *Trigger {
	active := st.Active
	for _, t := range Triggers(in.Schedule, in.Settings) {
		if t.Kind == KindMurottal {
			// a playing recitation is never replaced by another one
			if active != nil && active.Kind == KindMurottal {
				if stillConfigured(in.Settings, *active) {
					a := *active
					return &a
				}
				return nil
			}
			if st.Paused != nil {
				return nil
			}
		}
		if !t.Window.Contains(in.Now) || st.failed(t.ID(), in.Now) {
			continue
		}
		isActive := active != nil && active.ID() == t.ID()
		if t.Kind.gated() && st.HasPlayed(t.ID()) && !isActive {
			continue
		}
		sel := t
		return &sel
	}
	if active != nil && active.Kind == KindMurottal && stillConfigured(in.Settings, *active) {
		a := *active
		return &a
	}
	return nil
}

// stillConfigured reports whether a playing recitation may continue after
// its selection window has closed.
func stillConfigured(s model.Settings, t Trigger) bool {
	return s.AudioEnabled && s.Murottal.Enabled && s.Murottal.Sources.For(t.Prayer) == t.Source
}

// Fail handles a playback failure for source: the active trigger is
// deselected and not retried until its window closes. Played is untouched.
func Fail(st State, source string) State {
	next := st.clone()
	if a := next.Active; a != nil && a.Source == source {
		next.Failed[a.ID()] = a.Window.End
		next.Active = nil
		return next
	}
	if p := next.Paused; p != nil && p.Trigger.Source == source {
		next.Paused = nil
	}
	return next
}

// Finish clears the active trigger once its clip has played to the end.
func Finish(st State, source string) State {
	next := st.clone()
	if a := next.Active; a != nil && a.Source == source {
		next.Active = nil
	}
	return next
}
