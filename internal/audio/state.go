package audio

import (
	"sort"
	"time"
)

// PausedMurottal is a recitation interrupted by a higher-priority trigger.
type PausedMurottal struct {
	Trigger  Trigger
	Position time.Duration
	// By is the trigger that took over the output.
	By *Trigger
}

// heldByImsak reports whether the recitation waits for the Imsak beep's
// window to close, whether or not the beep is still playing.
func (p PausedMurottal) heldByImsak() bool {
	return p.By != nil && p.By.Kind == KindImsak
}

// State is the scheduler's playback state. Only the engine that owns it may
// replace it, and only with the value returned by Evaluate, Fail or Finish.
type State struct {
	Day    string
	Active *Trigger
	Paused *PausedMurottal
	Played map[string]bool
	// Failed holds the window end of triggers whose playback failed; they
	// are not retried before that instant.
	Failed map[string]time.Time
}

func NewState() State {
	return State{Played: map[string]bool{}, Failed: map[string]time.Time{}}
}

func (s State) clone() State {
	out := State{Day: s.Day, Played: make(map[string]bool, len(s.Played)), Failed: make(map[string]time.Time, len(s.Failed))}
	if s.Active != nil {
		a := *s.Active
		out.Active = &a
	}
	if s.Paused != nil {
		p := *s.Paused
		if p.By != nil {
			by := *p.By
			p.By = &by
		}
		out.Paused = &p
	}
	for k, v := range s.Played {
		out.Played[k] = v
	}
	for k, v := range s.Failed {
		out.Failed[k] = v
	}
	return out
}

// rollover clears the per-day sets when day differs from the recorded one.
func (s *State) rollover(day string) bool {
	if s.Day == day {
		return false
	}
	s.Day = day
	s.Played = map[string]bool{}
	s.Failed = map[string]time.Time{}
	return true
}

func (s State) HasPlayed(id string) bool {
	return s.Played[id]
}

func (s State) failed(id string, now time.Time) bool {
	until, ok := s.Failed[id]
	return ok && !now.After(until)
}

// View is a read-only projection for the display layer.
type View struct {
	Day            string   `json:"day"`
	Active         *Trigger `json:"active,omitempty"`
	PausedSource   string   `json:"paused_source,omitempty"`
	PausedPosition float64  `json:"paused_position_seconds,omitempty"`
	Played         []string `json:"played"`
}

func (s State) View() View {
	v := View{Day: s.Day, Played: make([]string, 0, len(s.Played))}
	if s.Active != nil {
		a := *s.Active
		v.Active = &a
	}
	if s.Paused != nil {
		v.PausedSource = s.Paused.Trigger.Source
		v.PausedPosition = s.Paused.Position.Seconds()
	}
	for id := range s.Played {
		v.Played = append(v.Played, id)
	}
	sort.Strings(v.Played)
	return v
}
