package overlay

import (
	"time"

	"github.com/Ganezza/tvmasjid-sub000/internal/model"
)

// Status is the evaluated state of one overlay family.
type Status struct {
	Family    Family        `json:"family"`
	Phase     Phase         `json:"phase"`
	Prayer    model.Prayer  `json:"prayer,omitempty"`
	Label     string        `json:"label,omitempty"`
	Remaining time.Duration `json:"-"`
	Countdown string        `json:"countdown"`
}

func (s Status) Visible() bool {
	return s.Phase != Hidden && s.Phase != ""
}

func hidden(f Family) Status {
	return Status{Family: f, Phase: Hidden, Countdown: FormatCountdown(0)}
}

// Snapshot is the arbitrated overlay state for one tick. At most one
// family is visible; the others report Hidden.
type Snapshot struct {
	At       time.Time         `json:"at"`
	Active   Family            `json:"active,omitempty"`
	Families map[Family]Status `json:"families"`
}

// Current returns the visible status, if any.
func (s Snapshot) Current() (Status, bool) {
	if s.Active == "" {
		return Status{}, false
	}
	st, ok := s.Families[s.Active]
	return st, ok
}

// RegularWindows lists the daily-prayer windows. Sunrise never has one and
// Friday dhuhr belongs to the Jumuah family.
func RegularWindows(sched model.PrayerSchedule, s model.Settings) map[model.Prayer]Window {
	out := make(map[model.Prayer]Window, len(model.CanonicalPrayers))
	for _, p := range model.CanonicalPrayers {
		if sched.IsJumuah(p) {
			continue
		}
		t, ok := sched.At(p)
		if !ok {
			continue
		}
		out[p] = Window{
			Anchor:     t,
			Lead:       s.OverlayLead(),
			Adhan:      s.AdhanDuration(),
			After:      s.IqomahCountdown(),
			AfterPhase: Iqomah,
		}
	}
	return out
}

// JumuahWindow returns the Friday window anchored at the adjusted dhuhr.
func JumuahWindow(sched model.PrayerSchedule, s model.Settings) (Window, bool) {
	if !sched.Friday {
		return Window{}, false
	}
	t, ok := sched.At(model.Dhuhr)
	if !ok {
		return Window{}, false
	}
	return Window{
		Anchor:     t,
		Lead:       s.JumuahLead(),
		Adhan:      s.AdhanDuration(),
		After:      s.KhutbahDuration(),
		AfterPhase: Khutbah,
	}, true
}

func evalRegular(now time.Time, sched model.PrayerSchedule, s model.Settings) Status {
	windows := RegularWindows(sched, s)
	for _, p := range model.CanonicalPrayers {
		w, ok := windows[p]
		if !ok {
			continue
		}
		phase, until := w.PhaseAt(now)
		if phase == Hidden {
			continue
		}
		return visible(Regular, phase, p, sched, until.Sub(now))
	}
	return hidden(Regular)
}

func evalJumuah(now time.Time, sched model.PrayerSchedule, s model.Settings) Status {
	w, ok := JumuahWindow(sched, s)
	if !ok {
		return hidden(Jumuah)
	}
	phase, until := w.PhaseAt(now)
	if phase == Hidden {
		return hidden(Jumuah)
	}
	return visible(Jumuah, phase, model.Dhuhr, sched, until.Sub(now))
}

// evalImsak is a fixed flash, not the four-phase machine.
func evalImsak(now time.Time, sched model.PrayerSchedule, s model.Settings) Status {
	if !s.RamadanMode {
		return hidden(Imsak)
	}
	t, ok := sched.At(model.Imsak)
	if !ok {
		return hidden(Imsak)
	}
	end := t.Add(s.ImsakFlash())
	if now.Before(t) || !now.Before(end) {
		return hidden(Imsak)
	}
	return visible(Imsak, Shown, model.Imsak, sched, end.Sub(now))
}

func visible(f Family, phase Phase, p model.Prayer, sched model.PrayerSchedule, remaining time.Duration) Status {
	return Status{
		Family:    f,
		Phase:     phase,
		Prayer:    p,
		Label:     p.Label(sched.Friday),
		Remaining: remaining,
		Countdown: FormatCountdown(remaining),
	}
}

// evaluate runs each family's own phase machine, before arbitration.
func evaluate(now time.Time, sched model.PrayerSchedule, s model.Settings) map[Family]Status {
	evals := map[Family]func(time.Time, model.PrayerSchedule, model.Settings) Status{
		Imsak:   evalImsak,
		Jumuah:  evalJumuah,
		Regular: evalRegular,
	}
	out := make(map[Family]Status, len(Families))
	for _, f := range Families {
		out[f] = evals[f](now, sched, s)
	}
	return out
}

// arbitrate keeps the first visible family in order Imsak, Jumuah, Regular
// and reports the rest Hidden.
func arbitrate(now time.Time, own map[Family]Status) Snapshot {
	snap := Snapshot{At: now, Families: make(map[Family]Status, len(Families))}
	for _, f := range Families {
		st := own[f]
		if snap.Active != "" {
			st = hidden(f)
		} else if st.Visible() {
			snap.Active = f
		}
		snap.Families[f] = st
	}
	return snap
}

// Resolve returns the arbitrated overlay for now.
func Resolve(now time.Time, sched model.PrayerSchedule, s model.Settings) Snapshot {
	return arbitrate(now, evaluate(now, sched, s))
}
